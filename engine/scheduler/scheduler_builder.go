package scheduler

import (
	"time"

	"github.com/Carmen-Shannon/oxy-station/engine/camera"
	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/rs/zerolog"
)

// SchedulerBuilderOption is a functional option used to configure a Scheduler during construction.
type SchedulerBuilderOption func(*scheduler)

// WithTickRate sets the interval between ticks.
//
// Parameters:
//   - d: the interval; non-positive values are ignored
//
// Returns:
//   - SchedulerBuilderOption: a function that sets the tick rate
func WithTickRate(d time.Duration) SchedulerBuilderOption {
	return func(s *scheduler) {
		if d > 0 {
			s.tickRate = d
		}
	}
}

// WithControls sets the orbit controls updated every tick and the camera they move.
//
// Parameters:
//   - controls: the orbit controls
//   - cam: the camera
//
// Returns:
//   - SchedulerBuilderOption: a function that sets the controls
func WithControls(controls camera.OrbitControls, cam camera.Camera) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.controls = controls
		s.cam = cam
	}
}

// WithPresenter sets the presentation updated after the controls.
func WithPresenter(p Presenter) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.presenter = p
	}
}

// WithFrameObserver sets a function called at the end of every tick, such as a profiler.
func WithFrameObserver(fn func()) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.observer = fn
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.logger = l
	}
}

// WithMetrics sets the recorder that counts frames.
func WithMetrics(m *metrics.Recorder) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.metrics = m
	}
}
