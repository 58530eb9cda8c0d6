package backend

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/qrngbench/circuit"
	"github.com/weiihann/qrngbench/outcome"
)

func TestQASMReturnsHistogram(t *testing.T) {
	q := NewQASM(11)

	raw, err := q.Run(context.Background(), circuit.CoinFlip(circuit.DefaultKey), 500)
	require.NoError(t, err)

	assert.Equal(t, outcome.FormHistogram, raw.Form())
	assert.Equal(t, 500, raw.Shots())

	bins := raw.Bins()
	require.Len(t, bins, 2, "500 fair shots should hit both outcomes")
	assert.NotEqual(t, bins[0].Label, bins[1].Label)
	for _, b := range bins {
		assert.Contains(t, []string{"0", "1"}, b.Label)
	}
}

func TestQASMDeterministicCircuit(t *testing.T) {
	c := circuit.New(circuit.GridQubit{},
		circuit.Op{Gate: circuit.X},
		circuit.Op{Gate: circuit.Measure, Key: "m"},
	)

	raw, err := NewQASM(1).Run(context.Background(), c, 8)
	require.NoError(t, err)
	assert.Equal(t, []outcome.Bin{{Label: "1", Count: 8}}, raw.Bins())
}

func TestGridReturnsTrials(t *testing.T) {
	g := NewGrid(circuit.DefaultKey, 11)

	raw, err := g.Run(context.Background(), circuit.CoinFlip(circuit.DefaultKey), 64)
	require.NoError(t, err)

	assert.Equal(t, outcome.FormTrials, raw.Form())
	assert.Equal(t, 64, raw.Shots())

	bits, err := outcome.Normalize(raw, 64)
	require.NoError(t, err)
	assert.Len(t, bits, 64)
}

func TestSeededBackendsReproducible(t *testing.T) {
	c := circuit.CoinFlip(circuit.DefaultKey)

	for _, name := range Known() {
		t.Run(name, func(t *testing.T) {
			a, err := New(name, Options{Seed: 99})
			require.NoError(t, err)
			b, err := New(name, Options{Seed: 99})
			require.NoError(t, err)

			rawA, err := a.Run(context.Background(), c, 40)
			require.NoError(t, err)
			rawB, err := b.Run(context.Background(), c, 40)
			require.NoError(t, err)

			bitsA, err := outcome.Normalize(rawA, 40)
			require.NoError(t, err)
			bitsB, err := outcome.Normalize(rawB, 40)
			require.NoError(t, err)
			assert.Equal(t, bitsA, bitsB)
		})
	}
}

func TestGridMissingKey(t *testing.T) {
	_, err := NewGrid("other", 1).Run(context.Background(), circuit.CoinFlip("m"), 4)

	require.ErrorIs(t, err, ErrAdapter)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "grid", f.Backend)
}

func TestAdapterFailures(t *testing.T) {
	invalid := circuit.New(circuit.GridQubit{}, circuit.Op{Gate: circuit.H})

	for _, name := range Known() {
		t.Run(name, func(t *testing.T) {
			a, err := New(name, Options{})
			require.NoError(t, err)

			_, err = a.Run(context.Background(), invalid, 4)
			assert.ErrorIs(t, err, ErrAdapter)
			assert.ErrorIs(t, err, circuit.ErrInvalid)

			_, err = a.Run(context.Background(), circuit.CoinFlip("m"), 0)
			assert.ErrorIs(t, err, ErrAdapter)
		})
	}
}

func TestRepetitionLimit(t *testing.T) {
	for _, name := range Known() {
		t.Run(name, func(t *testing.T) {
			a, err := New(name, Options{})
			require.NoError(t, err)

			for _, reps := range []int{MaxRepetitions + 1, math.MaxInt} {
				require.NotPanics(t, func() {
					_, err = a.Run(context.Background(), circuit.CoinFlip("m"), reps)
				})
				assert.ErrorIs(t, err, ErrAdapter)
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, name := range Known() {
		a, err := New(name, Options{})
		require.NoError(t, err)

		_, err = a.Run(ctx, circuit.CoinFlip("m"), 4)
		assert.ErrorIs(t, err, ErrAdapter)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestDescribe(t *testing.T) {
	c := circuit.CoinFlip("m")

	assert.Contains(t, NewQASM(0).Describe(c), "measure q[0] -> m[0];")
	assert.Equal(t, c.Diagram(), NewGrid("m", 0).Describe(c))
}

func TestNewUnknown(t *testing.T) {
	_, err := New("aer", Options{})
	assert.Error(t, err)
}
