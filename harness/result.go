// Package harness runs the benchmark pipeline for each simulator backend:
// build the circuit, execute it under timing, then normalize and decode
// the outcomes.
package harness

import (
	"math/big"

	"github.com/weiihann/qrngbench/outcome"
)

// Result holds the output of one backend pipeline.
type Result struct {
	Backend     string       `json:"backend"`
	Form        string       `json:"form"`
	Circuit     string       `json:"circuit"`
	Repetitions int          `json:"repetitions"`
	Bits        outcome.Bits `json:"bits"`
	Value       *big.Int     `json:"value"`
	Timing      Timing       `json:"timing"`
	// Error is set when this pipeline failed.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the pipeline ended with an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// OnesRatio returns the fraction of '1' bits, or 0 for an empty result.
func (r Result) OnesRatio() float64 {
	if len(r.Bits) == 0 {
		return 0
	}

	return float64(r.Bits.Ones()) / float64(len(r.Bits))
}
