// Package workload plans a benchmark run: one job per backend, each with
// its own seed derived deterministically from a master seed.
package workload

import (
	"encoding/json"
	"fmt"
	"io"
	mrand "math/rand"
)

// Job is the work assigned to a single backend.
type Job struct {
	Backend     string `json:"backend"`
	Repetitions int    `json:"repetitions"`
	Seed        uint64 `json:"seed"`
}

// Config controls workload generation parameters.
type Config struct {
	Backends []string
	Bits     int
	Seed     int64
}

// Generator produces deterministic job plans from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Generate returns one job per configured backend, in order.
// Repeated backend names get independent seeds.
func (g *Generator) Generate() []Job {
	jobs := make([]Job, 0, len(g.cfg.Backends))

	for _, name := range g.cfg.Backends {
		jobs = append(jobs, Job{
			Backend:     name,
			Repetitions: g.cfg.Bits,
			Seed:        g.rng.Uint64(),
		})
	}

	return jobs
}

// Encode writes jobs to w as JSONL, one job per line.
func Encode(w io.Writer, jobs []Job) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, job := range jobs {
		if err := enc.Encode(job); err != nil {
			return fmt.Errorf("encode job %s: %w", job.Backend, err)
		}
	}

	return nil
}
