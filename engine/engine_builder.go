package engine

import (
	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/manifest"
	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-station/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithTarget sets the target frames are executed on instead of a WebGPU renderer on the window.
//
// Parameters:
//   - t: the frame target
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTarget(t pipeline.Target) EngineBuilderOption {
	return func(e *engine) {
		e.target = t
	}
}

// WithManifest sets the scene manifest, bypassing the configured manifest path.
//
// Parameters:
//   - m: the manifest
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithManifest(m *manifest.Manifest) EngineBuilderOption {
	return func(e *engine) {
		e.manifest = m
	}
}

// WithLogger replaces the logger built from the log configuration.
//
// Parameters:
//   - l: the root logger; subsystems derive tagged children from it
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(l zerolog.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = l
		e.loggerSet = true
	}
}

// WithMetrics replaces the recorder built from the metrics configuration.
//
// Parameters:
//   - m: the recorder shared by every subsystem
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMetrics(m *metrics.Recorder) EngineBuilderOption {
	return func(e *engine) {
		e.metrics = m
	}
}
