package material

import (
	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithTexture is an option builder that makes the material textured with the given baked texture.
//
// Parameters:
//   - tex: the baked texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(tex texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.kind = KindTextured
		m.texture = tex
	}
}

// WithColor is an option builder that sets the kind and color of an untextured material.
//
// Parameters:
//   - kind: KindFlat, KindEmissive or KindTransparentMask
//   - color: the sRGB color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color option to a material
func WithColor(kind Kind, color common.Color) MaterialBuilderOption {
	return func(m *material) {
		m.kind = kind
		m.color = color
	}
}

// WithSide is an option builder that sets which faces are rendered.
func WithSide(side Side) MaterialBuilderOption {
	return func(m *material) {
		m.side = side
	}
}

// WithOpacity is an option builder that sets the opacity, clamped to [0, 1] at construction.
func WithOpacity(opacity float32) MaterialBuilderOption {
	return func(m *material) {
		m.opacity = opacity
	}
}
