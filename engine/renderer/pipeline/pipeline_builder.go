package pipeline

import (
	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/rs/zerolog"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithPixelRatioCap lowers the device pixel ratio ceiling below the default of 2.
//
// Parameters:
//   - ratioCap: the ceiling; values outside (0, 2] are ignored
//
// Returns:
//   - PipelineBuilderOption: a function that sets the pixel ratio ceiling
func WithPixelRatioCap(ratioCap float32) PipelineBuilderOption {
	return func(p *pipeline) {
		if ratioCap > 0 && ratioCap <= p.pixelRatioCap {
			p.pixelRatioCap = ratioCap
		}
	}
}

// WithLogger sets the logger used for parameter and resize events.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - PipelineBuilderOption: a function that sets the logger
func WithLogger(logger zerolog.Logger) PipelineBuilderOption {
	return func(p *pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the recorder that counts parameter changes.
//
// Parameters:
//   - m: the recorder
//
// Returns:
//   - PipelineBuilderOption: a function that sets the recorder
func WithMetrics(m *metrics.Recorder) PipelineBuilderOption {
	return func(p *pipeline) {
		p.metrics = m
	}
}
