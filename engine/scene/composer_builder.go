package scene

import (
	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/renderer/material"
)

// ComposerBuilderOption is a function that configures a composer during construction.
type ComposerBuilderOption func(*composer)

// WithSunMaterial builds the sun proxy from the given material instead of the built-in one.
//
// Parameters:
//   - m: the proxy material
//
// Returns:
//   - ComposerBuilderOption: a function that applies the sun option to a composer
func WithSunMaterial(m material.Material) ComposerBuilderOption {
	return func(c *composer) {
		c.sun = NewSun(m)
		c.sun.lock = &c.mu
	}
}

// WithLogger sets the composer logger.
func WithLogger(l zerolog.Logger) ComposerBuilderOption {
	return func(c *composer) {
		c.logger = l
	}
}
