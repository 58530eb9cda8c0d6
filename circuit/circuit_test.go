package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinFlip(t *testing.T) {
	c := CoinFlip(DefaultKey)

	require.NoError(t, c.Validate())
	assert.Equal(t, GridQubit{}, c.Qubit)
	assert.Equal(t, []string{"m"}, c.Keys())
	assert.Equal(t, "(0, 0): ───H───M('m')───", c.Diagram())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ops  []Op
	}{
		{"empty", nil},
		{"no measurement", []Op{{Gate: H}}},
		{"missing key", []Op{{Gate: H}, {Gate: Measure}}},
		{"duplicate key", []Op{{Gate: Measure, Key: "a"}, {Gate: Measure, Key: "a"}}},
		{"gate after measure", []Op{{Gate: Measure, Key: "a"}, {Gate: X}}},
		{"gate with key", []Op{{Gate: H, Key: "a"}, {Gate: Measure, Key: "b"}}},
		{"unknown gate", []Op{{Gate: "CNOT"}, {Gate: Measure, Key: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(GridQubit{}, tt.ops...).Validate()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestValidateMultipleKeys(t *testing.T) {
	c := New(GridQubit{Row: 1, Col: 2},
		Op{Gate: X},
		Op{Gate: Measure, Key: "a"},
		Op{Gate: Measure, Key: "b"},
	)

	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"a", "b"}, c.Keys())
	assert.Equal(t, "(1, 2): ───X───M('a')───M('b')───", c.Diagram())
}
