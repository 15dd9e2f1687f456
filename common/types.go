// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// MaxPixelRatio bounds the device pixel ratio used for drawing-buffer sizing. High-DPI displays
// report ratios of 3 or more; rendering above 2 multiplies fill cost for little visible gain.
const MaxPixelRatio float32 = 2.0

// Viewport is the process-wide view of the presentation surface.
// Width and Height are logical (CSS-style) pixels; DevicePixelRatio converts them to physical pixels.
type Viewport struct {
	// Width is the logical viewport width.
	Width int
	// Height is the logical viewport height.
	Height int
	// DevicePixelRatio is the ratio of physical to logical pixels reported by the display.
	DevicePixelRatio float32
}

// Valid reports whether the viewport has a drawable area. Hidden or minimized windows report
// zero sizes, which must not reach projection or buffer sizing code.
//
// Returns:
//   - bool: true if both dimensions are positive
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// Aspect returns Width / Height, or 1 for an invalid viewport.
func (v Viewport) Aspect() float32 {
	if !v.Valid() {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

// PixelRatio returns the device pixel ratio clamped to (0, MaxPixelRatio]. Non-positive ratios are treated as 1.
func (v Viewport) PixelRatio() float32 {
	if v.DevicePixelRatio <= 0 {
		return 1
	}
	return min(v.DevicePixelRatio, MaxPixelRatio)
}

// DrawingBufferSize returns the physical pixel size of the render target: the logical size scaled by the
// pixel ratio, further capped by ratioCap, and truncated, never below 1 for a valid viewport.
//
// Parameters:
//   - ratioCap: an extra ceiling on the pixel ratio; values <= 0 leave only MaxPixelRatio
//
// Returns:
//   - width, height: physical pixel dimensions (0, 0 for an invalid viewport)
//   - ratio: the pixel ratio applied
func (v Viewport) DrawingBufferSize(ratioCap float32) (width, height int, ratio float32) {
	ratio = v.PixelRatio()
	if ratioCap > 0 {
		ratio = min(ratio, ratioCap)
	}
	if !v.Valid() {
		return 0, 0, ratio
	}
	width = max(int(float32(v.Width)*ratio), 1)
	height = max(int(float32(v.Height)*ratio), 1)
	return width, height, ratio
}

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// SRGB marks the pixel data as sRGB encoded so the GPU texture is created with an sRGB format.
	SRGB bool
}
