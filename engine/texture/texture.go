// Package texture owns the baked textures of the scene. Textures are decoded once, normalised to
// RGBA with the orientation and color space baked lighting expects, and handed out by name.
package texture

import (
	"github.com/Carmen-Shannon/oxy-station/common"
)

// texture is the implementation of the Texture interface.
type texture struct {
	name    string
	source  string
	flipY   bool
	staging common.TextureStagingData
}

// Texture is a decoded, immutable baked texture.
type Texture interface {
	// Name retrieves the registry key of the texture.
	//
	// Returns:
	//   - string: the texture name
	Name() string

	// Source retrieves the manifest source the texture was read from.
	//
	// Returns:
	//   - string: the source path or URL
	Source() string

	// Width retrieves the pixel width.
	//
	// Returns:
	//   - uint32: the width in pixels
	Width() uint32

	// Height retrieves the pixel height.
	//
	// Returns:
	//   - uint32: the height in pixels
	Height() uint32

	// SRGB reports whether the pixels are sRGB encoded.
	//
	// Returns:
	//   - bool: true for sRGB color data
	SRGB() bool

	// FlipY reports whether rows were flipped vertically on decode.
	//
	// Returns:
	//   - bool: true if the rows were flipped
	FlipY() bool

	// Staging retrieves the RGBA pixel data ready for GPU upload.
	//
	// Returns:
	//   - common.TextureStagingData: the staging data
	Staging() common.TextureStagingData
}

var _ Texture = &texture{}

func (t *texture) Name() string {
	return t.name
}

func (t *texture) Source() string {
	return t.source
}

func (t *texture) Width() uint32 {
	return t.staging.Width
}

func (t *texture) Height() uint32 {
	return t.staging.Height
}

func (t *texture) SRGB() bool {
	return t.staging.SRGB
}

func (t *texture) FlipY() bool {
	return t.flipY
}

func (t *texture) Staging() common.TextureStagingData {
	return t.staging
}
