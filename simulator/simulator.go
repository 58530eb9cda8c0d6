// Package simulator evolves a single qubit through a circuit and samples
// measurement outcomes from it.
package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/weiihann/qrngbench/circuit"
)

var invSqrt2 = complex(1/math.Sqrt2, 0)

// State is the amplitude pair of a single qubit: alpha|0> + beta|1>.
type State struct {
	alpha complex128
	beta  complex128
}

// Ground returns |0>.
func Ground() State {
	return State{alpha: 1}
}

// Apply applies a unitary gate. Measurements are not unitary and are
// rejected here; use Measure.
func (s *State) Apply(g circuit.Gate) error {
	switch g {
	case circuit.H:
		// H = 1/√2 [[1, 1], [1, -1]]
		s.alpha, s.beta = (s.alpha+s.beta)*invSqrt2, (s.alpha-s.beta)*invSqrt2
	case circuit.X:
		s.alpha, s.beta = s.beta, s.alpha
	default:
		return fmt.Errorf("unsupported gate %q", g)
	}

	return nil
}

// Prob1 returns the probability of measuring 1.
func (s State) Prob1() float64 {
	p1 := real(s.beta)*real(s.beta) + imag(s.beta)*imag(s.beta)
	p0 := real(s.alpha)*real(s.alpha) + imag(s.alpha)*imag(s.alpha)

	if total := p0 + p1; total > 0 {
		return p1 / total
	}

	return 0
}

// Measure samples the qubit and collapses it onto the observed basis state.
func (s *State) Measure(rng *rand.Rand) byte {
	if rng.Float64() < s.Prob1() {
		*s = State{beta: 1}

		return 1
	}

	*s = State{alpha: 1}

	return 0
}

// Simulator owns the random source used for measurement. It is not safe
// for concurrent use.
type Simulator struct {
	rng *rand.Rand
}

// New creates a Simulator whose outcomes are determined by seed.
func New(seed uint64) *Simulator {
	return &Simulator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Evolve applies every gate up to the first measurement and returns the
// resulting state together with the measurement keys that follow it.
func Evolve(c *circuit.Circuit) (State, []string, error) {
	s := Ground()

	for i, op := range c.Ops {
		if op.Gate == circuit.Measure {
			return s, c.Keys(), nil
		}
		if err := s.Apply(op.Gate); err != nil {
			return State{}, nil, fmt.Errorf("op %d: %w", i, err)
		}
	}

	return s, nil, nil
}

// Sample draws one outcome from the final state without collapsing it.
func (sim *Simulator) Sample(s State) byte {
	if sim.rng.Float64() < s.Prob1() {
		return 1
	}

	return 0
}

// Step runs the circuit once from |0>, measuring and collapsing the qubit
// at every measurement. It returns the bit recorded under each key.
func (sim *Simulator) Step(c *circuit.Circuit) (map[string]byte, error) {
	s := Ground()
	out := make(map[string]byte, 1)

	for i, op := range c.Ops {
		if op.Gate == circuit.Measure {
			out[op.Key] = s.Measure(sim.rng)

			continue
		}
		if err := s.Apply(op.Gate); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}

	return out, nil
}
