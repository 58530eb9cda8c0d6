// Package metrics records benchmark results as Prometheus metrics and
// pushes them to a Pushgateway, the usual sink for short-lived jobs.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/weiihann/qrngbench/harness"
)

// Recorder collects benchmark metrics on its own registry.
type Recorder struct {
	Registry *prometheus.Registry

	SimulationSeconds *prometheus.HistogramVec
	TotalSeconds      *prometheus.HistogramVec
	Runs              *prometheus.CounterVec
	OnesRatio         *prometheus.GaugeVec
}

// Sub-millisecond buckets; simulating a few dozen shots is fast.
var durationBuckets = prometheus.ExponentialBuckets(1e-6, 4, 12)

// NewRecorder creates a Recorder and registers its metrics.
func NewRecorder() *Recorder {
	r := &Recorder{Registry: prometheus.NewRegistry()}

	r.SimulationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qrngbench_simulation_seconds",
			Help:    "Time spent inside the backend call",
			Buckets: durationBuckets,
		},
		[]string{"backend"},
	)

	r.TotalSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qrngbench_total_seconds",
			Help:    "Time spent in the whole backend pipeline",
			Buckets: durationBuckets,
		},
		[]string{"backend"},
	)

	r.Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrngbench_runs_total",
			Help: "Backend pipelines run, by outcome",
		},
		[]string{"backend", "status"},
	)

	r.OnesRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qrngbench_ones_ratio",
			Help: "Fraction of 1 bits in the last result",
		},
		[]string{"backend"},
	)

	r.Registry.MustRegister(
		r.SimulationSeconds,
		r.TotalSeconds,
		r.Runs,
		r.OnesRatio,
	)

	return r
}

// Observe records one pipeline result.
func (r *Recorder) Observe(result harness.Result) {
	if result.Failed() {
		r.Runs.WithLabelValues(result.Backend, "failed").Inc()

		return
	}

	r.Runs.WithLabelValues(result.Backend, "ok").Inc()
	r.SimulationSeconds.WithLabelValues(result.Backend).
		Observe(result.Timing.Simulation.Seconds())
	r.TotalSeconds.WithLabelValues(result.Backend).
		Observe(result.Timing.Total.Seconds())
	r.OnesRatio.WithLabelValues(result.Backend).Set(result.OnesRatio())
}

// Push sends every collected metric to the Pushgateway at url, grouped
// under job.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}

	return nil
}
