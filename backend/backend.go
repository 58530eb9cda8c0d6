// Package backend provides the simulator backends benchmarked by
// qrngbench. Each backend returns outcomes in its own native form.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/weiihann/qrngbench/circuit"
	"github.com/weiihann/qrngbench/outcome"
)

// MaxRepetitions bounds the repetitions a single Run accepts.
const MaxRepetitions = 1 << 24

// ErrAdapter matches every *Failure via errors.Is.
var ErrAdapter = errors.New("backend failure")

// Adapter executes a circuit for a number of repetitions.
type Adapter interface {
	// Name returns the registry name of the backend.
	Name() string
	// Describe renders the circuit the way the backend consumes it.
	Describe(c *circuit.Circuit) string
	// Run executes c repetitions times.
	Run(ctx context.Context, c *circuit.Circuit, repetitions int) (outcome.Raw, error)
}

// Failure wraps an error raised while a backend executed a circuit.
type Failure struct {
	Backend string
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("backend %s: %v", f.Backend, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is reports true for ErrAdapter.
func (f *Failure) Is(target error) bool {
	return target == ErrAdapter
}

func fail(backend string, err error) error {
	return &Failure{Backend: backend, Err: err}
}

func checkRepetitions(backend string, repetitions int) error {
	if repetitions < 1 {
		return fail(backend, fmt.Errorf("repetitions must be positive, got %d", repetitions))
	}
	if repetitions > MaxRepetitions {
		return fail(backend, fmt.Errorf("repetitions %d exceed limit %d",
			repetitions, MaxRepetitions))
	}

	return nil
}
