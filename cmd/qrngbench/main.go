// Package main provides the CLI entry point for qrngbench, which compares
// quantum circuit simulator backends used as random number sources.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weiihann/qrngbench/backend"
	"github.com/weiihann/qrngbench/config"
	"github.com/weiihann/qrngbench/harness"
	"github.com/weiihann/qrngbench/metrics"
	"github.com/weiihann/qrngbench/report"
	"github.com/weiihann/qrngbench/workload"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "qrngbench",
		Short: "Benchmark quantum circuit simulators as random number sources",
		Long: `Qrngbench runs a one-qubit superposition-and-measure circuit on each
simulator backend, turns the measurement outcomes into a fixed-length bit
string and the number it encodes, and reports how long each backend took.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default: ./qrngbench.yaml if present)")

	root.AddCommand(
		newRunCmd(stdout, stderr, &cfgFile),
		newPlanCmd(stdout, &cfgFile),
		newBackendsCmd(stdout),
	)

	return root
}

func addBenchmarkFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("bits", 20,
		"Number of random bits (repetitions per backend)")
	flags.StringSlice("backends", backend.Known(),
		"Backends to benchmark, in order")
	flags.Int64("seed", 0,
		"Random seed (0 = use current time)")
}

func newRunCmd(stdout, stderr io.Writer, cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark on every configured backend",
		Long: `Run the coin-flip circuit on each backend for the configured number of
bits, then print the bits, the decoded number and the simulation and total
times for each backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags(), *cfgFile)
			if err != nil {
				return err
			}

			level, err := config.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
				Level: level,
			}))

			return runBenchmark(cmd.Context(), logger, stdout, cfg)
		},
	}

	addBenchmarkFlags(cmd)

	flags := cmd.Flags()
	flags.String("format", "text",
		"Output format: text, table, json")
	flags.Bool("parallel", false,
		"Run backends concurrently")
	flags.Bool("isolate", false,
		"Keep running other backends when one fails")
	flags.Duration("timeout", 0,
		"Per-backend timeout (0 = none)")
	flags.String("pushgateway", "",
		"Prometheus Pushgateway URL to push timings to")
	flags.String("log-level", "info",
		"Log level: debug, info, warn, error")

	return cmd
}

func newPlanCmd(stdout io.Writer, cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the per-backend job plan as JSONL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags(), *cfgFile)
			if err != nil {
				return err
			}

			return workload.Encode(stdout, planJobs(cfg))
		},
	}

	addBenchmarkFlags(cmd)

	return cmd
}

func newBackendsCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available backends",
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, name := range backend.Known() {
				fmt.Fprintln(stdout, name)
			}

			return nil
		},
	}
}

func planJobs(cfg config.Config) []workload.Job {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return workload.NewGenerator(workload.Config{
		Backends: cfg.Backends,
		Bits:     cfg.Bits,
		Seed:     seed,
	}).Generate()
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	stdout io.Writer,
	cfg config.Config,
) error {
	logger.InfoContext(ctx, "starting benchmark",
		slog.Int("bits", cfg.Bits),
		slog.Any("backends", cfg.Backends),
		slog.Int64("seed", cfg.Seed),
		slog.Bool("parallel", cfg.Parallel),
	)

	// Step 1: Plan one seeded job per backend.
	jobs := planJobs(cfg)

	// Step 2: Create the backends.
	runners := make([]*harness.Runner, 0, len(jobs))

	for _, job := range jobs {
		adapter, err := backend.New(job.Backend, backend.Options{Seed: job.Seed})
		if err != nil {
			return fmt.Errorf("create backend %s: %w", job.Backend, err)
		}

		runners = append(runners, harness.NewRunner(adapter, logger))
	}

	// Step 3: Run every pipeline. Text output streams each block as the
	// backend progresses.
	runCfg := harness.RunConfig{
		Bits:    cfg.Bits,
		Timeout: cfg.Timeout,
	}

	if cfg.Format == "text" {
		runCfg.Observer = report.NewStream(stdout)
	}

	results, runErr := harness.RunAll(ctx, runners, runCfg, harness.Options{
		Parallel: cfg.Parallel,
		Isolate:  cfg.Isolate,
	})
	if len(results) == 0 {
		return runErr
	}

	// Step 4: Publish metrics.
	if cfg.Pushgateway != "" {
		rec := metrics.NewRecorder()
		for _, r := range results {
			rec.Observe(r)
		}

		if err := rec.Push(ctx, cfg.Pushgateway, "qrngbench"); err != nil {
			logger.WarnContext(ctx, "failed to push metrics",
				slog.String("error", err.Error()),
			)
		}
	}

	// Step 5: Generate report.
	var err error

	switch cfg.Format {
	case "json":
		err = report.GenerateJSON(stdout, results)
	case "table":
		err = report.GenerateTable(stdout, results)
	}

	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if runErr != nil {
		return runErr
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}
