package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weiihann/qrngbench/backend"
	"github.com/weiihann/qrngbench/circuit"
	"github.com/weiihann/qrngbench/outcome"
)

// RunConfig holds parameters for a single pipeline execution.
type RunConfig struct {
	// Bits is the number of repetitions and the length of the result.
	Bits int
	// Key is the measurement key of the circuit. Empty means
	// circuit.DefaultKey.
	Key string
	// Timeout bounds the whole pipeline. Zero means no limit.
	Timeout time.Duration
	// Observer, when set, is told about each pipeline as it progresses.
	Observer Observer
}

// Observer receives pipeline events as they happen so output can be
// written before slower backends finish.
type Observer interface {
	// CircuitReady is called once the circuit is built, before the
	// backend executes it.
	CircuitReady(backend, circuit string)
	// Finished is called with the final result, failed or not.
	Finished(r Result)
}

// recorder buffers events from one pipeline for in-order replay.
type recorder struct {
	events []func(Observer)
}

func (rec *recorder) CircuitReady(backend, circuit string) {
	rec.events = append(rec.events, func(o Observer) { o.CircuitReady(backend, circuit) })
}

func (rec *recorder) Finished(r Result) {
	rec.events = append(rec.events, func(o Observer) { o.Finished(r) })
}

func (rec *recorder) replay(o Observer) {
	for _, ev := range rec.events {
		ev(o)
	}
}

// Runner drives one backend through the benchmark pipeline.
type Runner struct {
	Name    string
	Adapter backend.Adapter
	Logger  *slog.Logger
}

// NewRunner creates a Runner for adapter.
func NewRunner(adapter backend.Adapter, logger *slog.Logger) *Runner {
	return &Runner{
		Name:    adapter.Name(),
		Adapter: adapter,
		Logger:  logger.With(slog.String("backend", adapter.Name())),
	}
}

// Run builds the circuit, executes it on the backend and reduces the
// outcomes to cfg.Bits bits. The simulation span covers only the backend
// call; the total span covers the whole pipeline.
//
// On failure the partially filled result is returned with Error set,
// together with the error.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	result := &Result{Backend: r.Name, Repetitions: cfg.Bits}

	err := r.run(ctx, cfg, result)
	if err != nil {
		result.Error = err.Error()

		r.Logger.ErrorContext(ctx, "backend failed",
			slog.String("error", err.Error()),
		)
	} else {
		r.Logger.InfoContext(ctx, "backend finished",
			slog.String("form", result.Form),
			slog.Duration("simulation", result.Timing.Simulation),
			slog.Duration("total", result.Timing.Total),
		)
	}

	if cfg.Observer != nil {
		cfg.Observer.Finished(*result)
	}

	return result, err
}

func (r *Runner) run(ctx context.Context, cfg RunConfig, result *Result) error {
	if cfg.Bits < 1 {
		return fmt.Errorf("%w: got %d", outcome.ErrBitCount, cfg.Bits)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	key := cfg.Key
	if key == "" {
		key = circuit.DefaultKey
	}

	return Span(&result.Timing.Total, func() error {
		c := circuit.CoinFlip(key)
		result.Circuit = r.Adapter.Describe(c)

		r.Logger.DebugContext(ctx, "circuit built",
			slog.String("circuit", result.Circuit),
		)

		if cfg.Observer != nil {
			cfg.Observer.CircuitReady(r.Name, result.Circuit)
		}

		var raw outcome.Raw

		if err := Span(&result.Timing.Simulation, func() error {
			var err error
			raw, err = r.Adapter.Run(ctx, c, cfg.Bits)

			return err
		}); err != nil {
			return fmt.Errorf("simulate: %w", err)
		}

		result.Form = raw.Form().String()

		r.Logger.DebugContext(ctx, "outcomes collected",
			slog.String("form", result.Form),
			slog.Int("shots", raw.Shots()),
		)

		bits, err := outcome.Normalize(raw, cfg.Bits)
		if err != nil {
			return fmt.Errorf("normalize %s outcomes: %w", result.Form, err)
		}

		value, err := outcome.Decode(bits)
		if err != nil {
			return err
		}

		result.Bits = bits
		result.Value = value

		return nil
	})
}

// Options controls how RunAll schedules pipelines.
type Options struct {
	// Parallel runs every pipeline in its own goroutine.
	Parallel bool
	// Isolate keeps running the remaining pipelines after one fails.
	Isolate bool
}

// RunAll runs every runner with the same config and returns results in
// runner order. Failed pipelines are returned with Result.Error set.
//
// Without Isolate the first failure stops the run: sequentially, the
// results up to and including the failed one are returned with its
// error. With Isolate every pipeline runs and the failures are joined.
//
// cfg.Observer sees events in runner order. In parallel mode each
// pipeline's events are buffered and replayed once all have finished.
func RunAll(
	ctx context.Context,
	runners []*Runner,
	cfg RunConfig,
	opts Options,
) ([]Result, error) {
	results := make([]Result, len(runners))

	var (
		mu       sync.Mutex
		failures []error
	)

	run := func(ctx context.Context, i int, cfg RunConfig) error {
		runner := runners[i]

		result, err := runner.Run(ctx, cfg)
		results[i] = *result

		if err != nil {
			err = fmt.Errorf("run %s: %w", runner.Name, err)
			if !opts.Isolate {
				return err
			}

			mu.Lock()
			failures = append(failures, err)
			mu.Unlock()
		}

		return nil
	}

	if !opts.Parallel {
		for i := range runners {
			if err := run(ctx, i, cfg); err != nil {
				return results[:i+1], err
			}
		}

		return results, errors.Join(failures...)
	}

	recorders := make([]*recorder, len(runners))

	g, gctx := errgroup.WithContext(ctx)
	for i := range runners {
		runCfg := cfg
		if cfg.Observer != nil {
			recorders[i] = &recorder{}
			runCfg.Observer = recorders[i]
		}

		g.Go(func() error { return run(gctx, i, runCfg) })
	}

	err := g.Wait()

	if cfg.Observer != nil {
		for _, rec := range recorders {
			rec.replay(cfg.Observer)
		}
	}

	if err != nil {
		return results, err
	}

	return results, errors.Join(failures...)
}
