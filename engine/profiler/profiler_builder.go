package profiler

import (
	"log/slog"
	"time"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often statistics are logged.
//
// Parameters:
//   - interval: the logging interval, ignored if not positive
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a profiler
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithStatsSource sets the function polled for streaming counters at every interval.
//
// Parameters:
//   - source: the counter source
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the source option to a profiler
func WithStatsSource(source StatsSource) ProfilerBuilderOption {
	return func(p *Profiler) {
		if source != nil {
			p.source = source
		}
	}
}

// WithLogger sets the logger the statistics are written to. Defaults to common.Logger().
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the logger option to a profiler
func WithLogger(logger *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}
