package renderer

import (
	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/rs/zerolog"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the initial present mode.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithForceSoftwareRenderer requests the fallback (software) adapter. Useful on machines
// without a supported GPU.
//
// Parameters:
//   - force: true to request the fallback adapter
//
// Returns:
//   - RendererBuilderOption: a function that applies the adapter option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithClearColor sets the color the base pass clears to. The default is fully transparent so
// the window background shows through.
//
// Parameters:
//   - c: the clear color
//   - alpha: the clear alpha in [0, 1]
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color to a renderer
func WithClearColor(c common.Color, alpha float32) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
		r.clearAlpha = common.Clamp(alpha, 0, 1)
	}
}

// WithLogger sets the logger used for surface and device events.
func WithLogger(logger zerolog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = logger
	}
}
