package harness

import "time"

// Timing holds the elapsed durations of one backend pipeline.
// Simulation is nested inside Total, so Total >= Simulation.
type Timing struct {
	Simulation time.Duration `json:"simulation_ns"`
	Total      time.Duration `json:"total_ns"`
}

// Stopwatch measures elapsed time from the moment it was started. It
// relies on the monotonic reading carried by time.Time, so wall clock
// adjustments do not affect it.
type Stopwatch struct {
	start time.Time
}

// Start returns a running Stopwatch.
func Start() Stopwatch {
	return Stopwatch{start: time.Now()}
}

// Elapsed returns the time since the stopwatch was started.
func (s Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Span runs fn and stores its elapsed time in *d on every exit path,
// including when fn fails or panics.
func Span(d *time.Duration, fn func() error) error {
	sw := Start()
	defer func() { *d = sw.Elapsed() }()

	return fn()
}
