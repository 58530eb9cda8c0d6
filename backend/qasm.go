package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/weiihann/qrngbench/circuit"
	"github.com/weiihann/qrngbench/outcome"
	"github.com/weiihann/qrngbench/simulator"
)

var bitLabels = [2]string{"0", "1"}

// QASM is a sampling backend. It receives the circuit as OpenQASM text,
// evolves the state once and draws every shot from the final
// distribution. Results come back as a histogram keyed by the classical
// register bits, in first-observed order.
type QASM struct {
	sim *simulator.Simulator
}

// NewQASM creates a QASM backend seeded with seed.
func NewQASM(seed uint64) *QASM {
	return &QASM{sim: simulator.New(seed)}
}

func (q *QASM) Name() string { return "qasm" }

func (q *QASM) Describe(c *circuit.Circuit) string {
	return strings.TrimRight(c.QASM(), "\n")
}

func (q *QASM) Run(
	ctx context.Context,
	c *circuit.Circuit,
	repetitions int,
) (outcome.Raw, error) {
	if err := checkRepetitions(q.Name(), repetitions); err != nil {
		return outcome.Raw{}, err
	}

	parsed, err := circuit.ParseQASM(c.QASM())
	if err != nil {
		return outcome.Raw{}, fail(q.Name(), fmt.Errorf("compile: %w", err))
	}

	state, keys, err := simulator.Evolve(parsed)
	if err != nil {
		return outcome.Raw{}, fail(q.Name(), fmt.Errorf("evolve: %w", err))
	}

	var (
		bins  []outcome.Bin
		index = make(map[string]int, 2)
	)

	for shot := 0; shot < repetitions; shot++ {
		if err := ctx.Err(); err != nil {
			return outcome.Raw{}, fail(q.Name(), err)
		}

		// Consecutive measurements of one qubit agree, so every key
		// records the same sampled bit.
		label := strings.Repeat(bitLabels[q.sim.Sample(state)], len(keys))

		i, ok := index[label]
		if !ok {
			i = len(bins)
			index[label] = i
			bins = append(bins, outcome.Bin{Label: label})
		}
		bins[i].Count++
	}

	return outcome.Histogram(bins...), nil
}
