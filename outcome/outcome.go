// Package outcome reduces backend-native measurement results to a
// canonical fixed-length bit string and decodes it as an integer.
package outcome

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
)

var (
	// ErrBitCount is returned when the requested bit count is below 1.
	ErrBitCount = errors.New("bit count must be at least 1")
	// ErrShortSequence is returned when the outcomes hold fewer bits than
	// requested. The result is never silently decoded at a shorter width.
	ErrShortSequence = errors.New("short bit sequence")
	// ErrMalformed is returned for outcomes that are not binary.
	ErrMalformed = errors.New("malformed outcomes")
	// ErrDecode is returned when a bit sequence cannot be read as a number.
	ErrDecode = errors.New("decode bit sequence")
)

// Form identifies which shape a Raw value holds.
type Form int

const (
	// FormUnset is the zero Raw.
	FormUnset Form = iota
	// FormHistogram is an aggregated label -> count mapping.
	FormHistogram
	// FormTrials is an ordered per-trial bit array.
	FormTrials
)

func (f Form) String() string {
	switch f {
	case FormHistogram:
		return "histogram"
	case FormTrials:
		return "trials"
	default:
		return "unset"
	}
}

// Bin is one histogram entry: Label was observed Count times.
type Bin struct {
	Label string
	Count int
}

// Raw holds backend outcomes in exactly one of the two forms.
type Raw struct {
	form      Form
	histogram []Bin
	trials    []byte
}

// Histogram wraps aggregated outcomes. Bin order is preserved and
// determines the order of the normalized sequence.
func Histogram(bins ...Bin) Raw {
	return Raw{form: FormHistogram, histogram: bins}
}

// Trials wraps per-trial bits (each 0 or 1) in trial order.
func Trials(bits []byte) Raw {
	return Raw{form: FormTrials, trials: bits}
}

// Form reports which shape r holds.
func (r Raw) Form() Form {
	return r.form
}

// Bins returns the histogram entries, or nil for other forms.
func (r Raw) Bins() []Bin {
	return r.histogram
}

// Shots returns the number of recorded outcomes, saturating at
// math.MaxInt.
func (r Raw) Shots() int {
	switch r.form {
	case FormHistogram:
		total := 0
		for _, b := range r.histogram {
			if b.Count > math.MaxInt-total {
				return math.MaxInt
			}
			total += max(b.Count, 0)
		}

		return total
	case FormTrials:
		return len(r.trials)
	default:
		return 0
	}
}

// Bits is a canonical sequence of '0' and '1' characters.
type Bits string

// Ones returns how many '1' characters b holds.
func (b Bits) Ones() int {
	return strings.Count(string(b), "1")
}

// Normalize reduces raw to exactly n bits.
//
// Histogram outcomes are expanded by repeating each label Count times in
// bin order and truncating to n. Per-trial ordering is lost by the
// aggregation, so equal outcomes end up grouped together: the result is a
// valid length-n sequence but not the order the shots were taken in.
//
// Trial outcomes are mapped to characters in trial order and truncated
// to n when longer.
//
// Fewer than n available bits yields ErrShortSequence.
func Normalize(raw Raw, n int) (Bits, error) {
	if n < 1 {
		return "", fmt.Errorf("%w: got %d", ErrBitCount, n)
	}

	have, err := available(raw)
	if err != nil {
		return "", err
	}

	if have < n {
		return "", fmt.Errorf("%w: got %d of %d bits",
			ErrShortSequence, have, n)
	}

	var b strings.Builder
	b.Grow(n)

	if raw.form == FormHistogram {
		expandHistogram(&b, raw.histogram, n)
	} else {
		joinTrials(&b, raw.trials, n)
	}

	return Bits(b.String()), nil
}

// available validates raw and returns how many characters it expands to.
// The count saturates at math.MaxInt.
func available(raw Raw) (int, error) {
	switch raw.form {
	case FormHistogram:
		total := 0
		for _, bin := range raw.histogram {
			if bin.Count < 0 {
				return 0, fmt.Errorf("%w: label %q has negative count %d",
					ErrMalformed, bin.Label, bin.Count)
			}
			if bin.Label == "" || !isBinary(bin.Label) {
				return 0, fmt.Errorf("%w: label %q is not a bit string",
					ErrMalformed, bin.Label)
			}

			if bin.Count > (math.MaxInt-total)/len(bin.Label) {
				total = math.MaxInt
			} else {
				total += bin.Count * len(bin.Label)
			}
		}

		return total, nil

	case FormTrials:
		for i, bit := range raw.trials {
			if bit > 1 {
				return 0, fmt.Errorf("%w: trial %d has value %d",
					ErrMalformed, i, bit)
			}
		}

		return len(raw.trials), nil

	default:
		return 0, fmt.Errorf("%w: no outcome form set", ErrMalformed)
	}
}

func expandHistogram(b *strings.Builder, bins []Bin, n int) {
	for _, bin := range bins {
		for i := 0; i < bin.Count && b.Len() < n; i++ {
			remaining := n - b.Len()
			if len(bin.Label) > remaining {
				b.WriteString(bin.Label[:remaining])
			} else {
				b.WriteString(bin.Label)
			}
		}
	}
}

func joinTrials(b *strings.Builder, trials []byte, n int) {
	for _, bit := range trials[:min(n, len(trials))] {
		b.WriteByte('0' + bit)
	}
}

// Decode interprets b as a base-2 numeral, most significant bit first.
// An empty sequence is an error rather than zero.
func Decode(b Bits) (*big.Int, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty sequence", ErrDecode)
	}
	if !isBinary(string(b)) {
		return nil, fmt.Errorf("%w: %q is not a bit string", ErrDecode, string(b))
	}

	v, ok := new(big.Int).SetString(string(b), 2)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDecode, string(b))
	}

	return v, nil
}

func isBinary(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return false
		}
	}

	return true
}
