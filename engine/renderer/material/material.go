package material

import (
	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
)

// Kind classifies how a material shades.
type Kind int

const (
	// KindTextured samples a baked texture and ignores lighting.
	KindTextured Kind = iota
	// KindFlat renders a single color shaded by the point light.
	KindFlat
	// KindEmissive renders a single color that feeds the bloom pass.
	KindEmissive
	// KindTransparentMask renders a faint translucent color; used for the light occluder proxy.
	KindTransparentMask
)

// String returns the manifest spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindTextured:
		return "textured"
	case KindFlat:
		return "flat"
	case KindEmissive:
		return "emissive"
	case KindTransparentMask:
		return "transparent-mask"
	default:
		return "unknown"
	}
}

// Side selects which triangle faces are rendered.
type Side int

const (
	SideFront Side = iota
	SideDouble
)

// material is the implementation of the Material interface.
type material struct {
	name    string
	kind    Kind
	texture texture.Texture
	color   common.Color
	side    Side
	opacity float32
}

// Material is an immutable catalog entry describing a surface. Materials are shared by
// reference between every node they are assigned to.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Kind retrieves the shading kind.
	//
	// Returns:
	//   - Kind: the material kind
	Kind() Kind

	// Texture retrieves the baked texture for textured materials.
	//
	// Returns:
	//   - texture.Texture: the texture, or nil for untextured kinds
	Texture() texture.Texture

	// Color retrieves the sRGB color for flat, emissive and transparent-mask materials.
	// Textured materials report white.
	//
	// Returns:
	//   - common.Color: the material color
	Color() common.Color

	// Side retrieves which faces are rendered.
	//
	// Returns:
	//   - Side: front only or double sided
	Side() Side

	// Opacity retrieves the opacity in [0, 1].
	//
	// Returns:
	//   - float32: the opacity
	Opacity() float32

	// Transparent reports whether the material blends with what is behind it.
	//
	// Returns:
	//   - bool: true for transparent-mask materials and any opacity below 1
	Transparent() bool
}

var _ Material = &material{}

// NewMaterial creates a new Material configured with the provided options. The defaults are an
// opaque, front-sided, white flat material.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		kind:    KindFlat,
		color:   common.Color{R: 1, G: 1, B: 1},
		side:    SideFront,
		opacity: 1,
	}
	for _, opt := range options {
		opt(m)
	}
	m.opacity = common.Clamp(m.opacity, 0, 1)
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Kind() Kind {
	return m.kind
}

func (m *material) Texture() texture.Texture {
	return m.texture
}

func (m *material) Color() common.Color {
	return m.color
}

func (m *material) Side() Side {
	return m.side
}

func (m *material) Opacity() float32 {
	return m.opacity
}

func (m *material) Transparent() bool {
	return m.kind == KindTransparentMask || m.opacity < 1
}
