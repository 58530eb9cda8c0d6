package backend

import (
	"context"
	"fmt"
	"slices"

	"github.com/weiihann/qrngbench/circuit"
	"github.com/weiihann/qrngbench/outcome"
	"github.com/weiihann/qrngbench/simulator"
)

// Grid is a stepping backend. It replays the circuit from |0> for every
// repetition and reports the bit recorded under Key for each trial.
type Grid struct {
	Key string
	sim *simulator.Simulator
}

// NewGrid creates a Grid backend reading measurement key and seeded
// with seed.
func NewGrid(key string, seed uint64) *Grid {
	return &Grid{Key: key, sim: simulator.New(seed)}
}

func (g *Grid) Name() string { return "grid" }

func (g *Grid) Describe(c *circuit.Circuit) string {
	return c.Diagram()
}

func (g *Grid) Run(
	ctx context.Context,
	c *circuit.Circuit,
	repetitions int,
) (outcome.Raw, error) {
	if err := checkRepetitions(g.Name(), repetitions); err != nil {
		return outcome.Raw{}, err
	}

	if err := c.Validate(); err != nil {
		return outcome.Raw{}, fail(g.Name(), err)
	}

	if !slices.Contains(c.Keys(), g.Key) {
		return outcome.Raw{}, fail(g.Name(),
			fmt.Errorf("circuit has no measurement %q", g.Key))
	}

	trials := make([]byte, repetitions)

	for i := range trials {
		if err := ctx.Err(); err != nil {
			return outcome.Raw{}, fail(g.Name(), err)
		}

		out, err := g.sim.Step(c)
		if err != nil {
			return outcome.Raw{}, fail(g.Name(), fmt.Errorf("trial %d: %w", i, err))
		}

		trials[i] = out[g.Key]
	}

	return outcome.Trials(trials), nil
}
