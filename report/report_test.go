package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/weiihann/qrngbench/circuit"
	"github.com/weiihann/qrngbench/harness"
	"github.com/weiihann/qrngbench/outcome"
)

func sampleResults() []harness.Result {
	return []harness.Result{
		{
			Backend:     "qasm",
			Form:        "histogram",
			Circuit:     "OPENQASM 2.0;",
			Repetitions: 4,
			Bits:        "0001",
			Value:       big.NewInt(1),
			Timing: harness.Timing{
				Simulation: 1500 * time.Microsecond,
				Total:      2 * time.Millisecond,
			},
		},
		{
			Backend:     "grid",
			Form:        "trials",
			Circuit:     "(0, 0): ───H───M('m')───",
			Repetitions: 4,
			Bits:        "1011",
			Value:       big.NewInt(11),
			Timing: harness.Timing{
				Simulation: 3 * time.Millisecond,
				Total:      4 * time.Millisecond,
			},
		},
	}
}

func TestGenerate(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, sampleResults()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := `=== QASM QRNG ===
Circuit:
OPENQASM 2.0;
Random bits: 0001
Random number: 1
Simulation time: 0.001500 seconds
Total execution time: 0.002000 seconds

=== GRID QRNG ===
Circuit:
(0, 0): ───H───M('m')───
Random bits: 1011
Random number: 11
Simulation time: 0.003000 seconds
Total execution time: 0.004000 seconds

`
	if got := buf.String(); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerateFailedResult(t *testing.T) {
	results := sampleResults()
	results[0].Error = "run qasm: backend qasm: unavailable"

	var buf bytes.Buffer
	if err := Generate(&buf, results); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "Error: run qasm: backend qasm: unavailable") {
		t.Error("expected error line for failed backend")
	}
	if strings.Contains(output, "Random bits: 0001") {
		t.Error("failed backend should not report bits")
	}
	if !strings.Contains(output, "Random bits: 1011") {
		t.Error("expected grid bits in output")
	}
}

func TestGenerateEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, nil); err == nil {
		t.Error("expected error for empty results")
	}
	if err := GenerateTable(&buf, nil); err == nil {
		t.Error("expected error for empty results")
	}
}

func TestGenerateTable(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateTable(&buf, sampleResults()); err != nil {
		t.Fatalf("GenerateTable failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "| qasm | histogram | 4 | 25.0% | 1.50ms | 2.00ms | 1.00x |") {
		t.Errorf("missing qasm row:\n%s", output)
	}
	if !strings.Contains(output, "2.00x") {
		t.Error("expected 2.00x speedup for grid (twice as slow)")
	}
	if !strings.Contains(output, "| grid | 1011 | 11 |") {
		t.Errorf("missing grid value row:\n%s", output)
	}
}

func TestGenerateTableFailed(t *testing.T) {
	results := sampleResults()
	results[1].Error = "boom"

	var buf bytes.Buffer
	if err := GenerateTable(&buf, results); err != nil {
		t.Fatalf("GenerateTable failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "| grid | - | - | - | - | - | failed |") {
		t.Errorf("missing failed row:\n%s", output)
	}
}

func TestGenerateJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateJSON(&buf, sampleResults()[:1]); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	var parsed []harness.Result
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if len(parsed) != 1 {
		t.Fatalf("expected 1 result, got %d", len(parsed))
	}
	if parsed[0].Backend != "qasm" {
		t.Errorf("backend = %q, want qasm", parsed[0].Backend)
	}
	if parsed[0].Value.Int64() != 1 {
		t.Errorf("value = %s, want 1", parsed[0].Value)
	}
	if parsed[0].Timing.Total != 2*time.Millisecond {
		t.Errorf("total = %s, want 2ms", parsed[0].Timing.Total)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "0.000000"},
		{time.Microsecond, "0.000001"},
		{1500 * time.Microsecond, "0.001500"},
		{2 * time.Second, "2.000000"},
	}

	for _, tt := range tests {
		got := formatSeconds(tt.input)
		if got != tt.want {
			t.Errorf("formatSeconds(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{0, "0µs"},
		{500 * time.Microsecond, "500µs"},
		{time.Millisecond, "1.00ms"},
		{1500 * time.Microsecond, "1.50ms"},
		{time.Second, "1.00s"},
		{90 * time.Second, "90.00s"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.input)
		if got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

type stubAdapter struct {
	name string
	raw  outcome.Raw
	err  error
}

func (s stubAdapter) Name() string                       { return s.name }
func (s stubAdapter) Describe(c *circuit.Circuit) string { return c.Diagram() }

func (s stubAdapter) Run(context.Context, *circuit.Circuit, int) (outcome.Raw, error) {
	return s.raw, s.err
}

func TestStreamKeepsEarlierBlockOnFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runners := []*harness.Runner{
		harness.NewRunner(stubAdapter{name: "qasm", raw: outcome.Trials([]byte{1, 0})}, logger),
		harness.NewRunner(stubAdapter{name: "grid", err: errors.New("unavailable")}, logger),
	}

	var buf bytes.Buffer
	_, err := harness.RunAll(context.Background(), runners, harness.RunConfig{
		Bits:     2,
		Observer: NewStream(&buf),
	}, harness.Options{})
	if err == nil {
		t.Fatal("expected error from failing backend")
	}

	output := buf.String()
	diagram := circuit.CoinFlip(circuit.DefaultKey).Diagram()

	if !strings.HasPrefix(output, "=== QASM QRNG ===\nCircuit:\n"+diagram+"\nRandom bits: 10\nRandom number: 2\n") {
		t.Errorf("missing first backend block:\n%s", output)
	}
	if !strings.Contains(output, "=== GRID QRNG ===\nCircuit:\n"+diagram+"\nError: ") {
		t.Errorf("failed backend should print its circuit then the error:\n%s", output)
	}
	if !strings.Contains(output, "unavailable") {
		t.Errorf("missing failure reason:\n%s", output)
	}
}

func TestStreamMatchesGenerate(t *testing.T) {
	var streamed, generated bytes.Buffer

	s := NewStream(&streamed)
	for _, r := range sampleResults() {
		s.CircuitReady(r.Backend, r.Circuit)
		s.Finished(r)
	}

	if err := Generate(&generated, sampleResults()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if streamed.String() != generated.String() {
		t.Errorf("stream output differs\ngot:\n%s\nwant:\n%s", streamed.String(), generated.String())
	}
}

func TestStreamFinishedWithoutCircuit(t *testing.T) {
	var buf bytes.Buffer

	NewStream(&buf).Finished(harness.Result{Backend: "grid", Error: "bit count must be at least 1"})

	want := "=== GRID QRNG ===\nError: bit count must be at least 1\n\n"
	if got := buf.String(); got != want {
		t.Errorf("output mismatch\ngot:\n%q\nwant:\n%q", got, want)
	}
}
