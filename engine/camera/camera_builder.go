package camera

import "github.com/Carmen-Shannon/oxy-station/common"

// CameraBuilderOption is a function that configures a Camera instance during construction.
type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the camera's eye position.
//
// Parameters:
//   - x, y, z: the position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = [3]float32{x, y, z}
	}
}

// WithViewport sets the aspect ratio from a viewport.
//
// Parameters:
//   - vp: the initial viewport
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithViewport(vp common.Viewport) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = vp.Aspect()
	}
}

// WithViewOffset renders the full view shifted by ViewOffsetY pixels. The offset follows the
// viewport on every Resize.
//
// Parameters:
//   - vp: the initial viewport
//
// Returns:
//   - CameraBuilderOption: a function that enables the view offset
func WithViewOffset(vp common.Viewport) CameraBuilderOption {
	return func(c *cameraImpl) {
		if vp.Valid() {
			c.offset = fullViewOffset(vp)
		}
	}
}
