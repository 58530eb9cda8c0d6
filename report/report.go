// Package report formats benchmark results for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/weiihann/qrngbench/harness"
)

// Generate writes one text block per result, in result order: the
// circuit as the backend consumed it, the bits, the decoded number and
// both durations in seconds with six fractional digits.
func Generate(w io.Writer, results []harness.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	for _, r := range results {
		writeHeader(w, r.Backend, r.Circuit)
		writeBody(w, r)
	}

	return nil
}

// Stream writes the same blocks as Generate while the benchmark runs.
// The header and circuit go out before the backend executes, so output
// from earlier backends survives a later failure.
type Stream struct {
	w    io.Writer
	open bool
}

// NewStream returns a Stream writing to w. It is meant to be passed as
// harness.RunConfig.Observer.
func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

// CircuitReady writes the block header and the circuit.
func (s *Stream) CircuitReady(backend, circuit string) {
	writeHeader(s.w, backend, circuit)
	s.open = true
}

// Finished completes the block for r.
func (s *Stream) Finished(r harness.Result) {
	if !s.open {
		writeHeader(s.w, r.Backend, r.Circuit)
	}

	writeBody(s.w, r)
	s.open = false
}

func writeHeader(w io.Writer, backend, circuit string) {
	fmt.Fprintf(w, "=== %s QRNG ===\n", strings.ToUpper(backend))

	if circuit != "" {
		fmt.Fprintln(w, "Circuit:")
		fmt.Fprintln(w, circuit)
	}
}

func writeBody(w io.Writer, r harness.Result) {
	if r.Failed() {
		fmt.Fprintf(w, "Error: %s\n\n", r.Error)

		return
	}

	fmt.Fprintf(w, "Random bits: %s\n", r.Bits)
	fmt.Fprintf(w, "Random number: %s\n", r.Value)
	fmt.Fprintf(w, "Simulation time: %s seconds\n",
		formatSeconds(r.Timing.Simulation))
	fmt.Fprintf(w, "Total execution time: %s seconds\n",
		formatSeconds(r.Timing.Total))
	fmt.Fprintln(w)
}

// GenerateTable writes a markdown comparison table for the given results.
func GenerateTable(w io.Writer, results []harness.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	fastest := findFastest(results)

	// Header.
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Backend | Form | Bits | Ones | Simulation "+
		"| Total | Speedup |")
	fmt.Fprintln(w, "|---------|------|------|------|------------"+
		"|-------|---------|")

	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(w, "| %s | - | - | - | - | - | failed |\n", r.Backend)

			continue
		}

		speedup := 1.0
		if fastest > 0 && r.Timing.Total > 0 {
			speedup = float64(r.Timing.Total) / float64(fastest)
		}

		fmt.Fprintf(w, "| %s | %s | %d | %.1f%% | %s | %s | %.2fx |\n",
			r.Backend,
			r.Form,
			len(r.Bits),
			r.OnesRatio()*100,
			formatDuration(r.Timing.Simulation),
			formatDuration(r.Timing.Total),
			speedup,
		)
	}

	fmt.Fprintln(w)

	// Value rows.
	fmt.Fprintln(w, "| Backend | Random bits | Random number |")
	fmt.Fprintln(w, "|---------|-------------|---------------|")

	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(w, "| %s | - | %s |\n", r.Backend, r.Error)

			continue
		}

		fmt.Fprintf(w, "| %s | %s | %s |\n", r.Backend, r.Bits, r.Value)
	}

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []harness.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

// findFastest returns the smallest positive total among successful
// results, or 0 if there is none.
func findFastest(results []harness.Result) time.Duration {
	var fastest time.Duration

	for _, r := range results {
		if r.Failed() || r.Timing.Total <= 0 {
			continue
		}
		if fastest == 0 || r.Timing.Total < fastest {
			fastest = r.Timing.Total
		}
	}

	return fastest
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.6f", d.Seconds())
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
