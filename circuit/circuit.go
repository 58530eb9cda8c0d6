// Package circuit describes the single-qubit circuits run by the
// simulator backends and renders them for audit output.
package circuit

import (
	"errors"
	"fmt"
	"strings"
)

// Gate names an operation applied to the circuit's qubit.
type Gate string

const (
	// H puts the qubit into an equal superposition of |0> and |1>.
	H Gate = "H"
	// X flips the qubit.
	X Gate = "X"
	// Measure records the qubit into a classical bit under a key.
	Measure Gate = "M"
)

// DefaultKey is the measurement key used by CoinFlip.
const DefaultKey = "m"

// ErrInvalid is returned by Validate and ParseQASM for malformed circuits.
var ErrInvalid = errors.New("invalid circuit")

// GridQubit addresses a qubit by row and column.
type GridQubit struct {
	Row int
	Col int
}

func (q GridQubit) String() string {
	return fmt.Sprintf("(%d, %d)", q.Row, q.Col)
}

// Op is a single gate application. Key is set only for measurements.
type Op struct {
	Gate Gate
	Key  string
}

// Circuit is an ordered list of operations on one qubit.
type Circuit struct {
	Qubit GridQubit
	Ops   []Op
}

// New creates a circuit on qubit with the given operations.
func New(qubit GridQubit, ops ...Op) *Circuit {
	return &Circuit{Qubit: qubit, Ops: ops}
}

// CoinFlip returns the fixed "superpose and measure" circuit on (0, 0).
func CoinFlip(key string) *Circuit {
	return New(GridQubit{},
		Op{Gate: H},
		Op{Gate: Measure, Key: key},
	)
}

// Keys returns the measurement keys in the order they are measured.
func (c *Circuit) Keys() []string {
	var keys []string
	for _, op := range c.Ops {
		if op.Gate == Measure {
			keys = append(keys, op.Key)
		}
	}

	return keys
}

// Validate checks that the circuit can be simulated.
func (c *Circuit) Validate() error {
	if len(c.Ops) == 0 {
		return fmt.Errorf("%w: no operations", ErrInvalid)
	}

	seen := make(map[string]bool)
	measured := false

	for i, op := range c.Ops {
		switch op.Gate {
		case H, X:
			if op.Key != "" {
				return fmt.Errorf("%w: op %d: gate %s takes no key",
					ErrInvalid, i, op.Gate)
			}
			if measured {
				return fmt.Errorf("%w: op %d: gate %s after measurement",
					ErrInvalid, i, op.Gate)
			}

		case Measure:
			if op.Key == "" {
				return fmt.Errorf("%w: op %d: measurement without key",
					ErrInvalid, i)
			}
			if seen[op.Key] {
				return fmt.Errorf("%w: op %d: duplicate key %q",
					ErrInvalid, i, op.Key)
			}
			seen[op.Key] = true
			measured = true

		default:
			return fmt.Errorf("%w: op %d: unknown gate %q",
				ErrInvalid, i, op.Gate)
		}
	}

	if !measured {
		return fmt.Errorf("%w: no measurement", ErrInvalid)
	}

	return nil
}

// Diagram renders the circuit as a single wire:
//
//	(0, 0): ───H───M('m')───
func (c *Circuit) Diagram() string {
	var b strings.Builder

	b.WriteString(c.Qubit.String())
	b.WriteString(": ───")

	for _, op := range c.Ops {
		if op.Gate == Measure {
			fmt.Fprintf(&b, "M('%s')", op.Key)
		} else {
			b.WriteString(string(op.Gate))
		}
		b.WriteString("───")
	}

	return b.String()
}
