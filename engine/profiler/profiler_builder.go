package profiler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
)

// ProfilerBuilderOption is a functional option used to configure a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often a sample is taken. Non-positive values are ignored.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithLogger sets the logger samples are written to.
func WithLogger(l zerolog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = l
	}
}

// WithMetrics sets the recorder whose runtime gauges receive each sample.
func WithMetrics(m *metrics.Recorder) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.metrics = m
	}
}
