package light

import "github.com/Carmen-Shannon/oxy-station/common"

// LightBuilderOption configures a Light during NewLight.
type LightBuilderOption func(*pointLight)

// WithPosition places the light in world space.
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *pointLight) {
		l.position = [3]float32{x, y, z}
	}
}

// WithColor sets the initial sRGB color.
//
// Parameters:
//   - c: the color
//
// Returns:
//   - LightBuilderOption: a function that sets the color
func WithColor(c common.Color) LightBuilderOption {
	return func(l *pointLight) {
		l.color = c
	}
}

// WithIntensity sets the initial intensity. Negative values are stored as 0.
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *pointLight) {
		l.intensity = max(intensity, 0)
	}
}

// WithEnabled sets whether the light starts switched on.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *pointLight) {
		l.enabled = enabled
	}
}
