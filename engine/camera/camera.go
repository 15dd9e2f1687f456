package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-station/common"
)

// ViewOffsetY is the vertical shift, in pixels, applied to the full view so the scene sits
// slightly below the center of the window.
const ViewOffsetY float32 = -100

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32
	up       [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32
	offset common.ViewOffset

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32
}

// Camera is a perspective camera looking from a position at a target. Matrices are recomputed
// eagerly by every setter so readers never observe a projection built from mixed state.
type Camera interface {
	// Position returns the world-space eye position.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// SetPosition moves the eye.
	//
	// Parameters:
	//   - x, y, z: the new position
	SetPosition(x, y, z float32)

	// Target returns the point the camera looks at.
	//
	// Returns:
	//   - [3]float32: target as (x, y, z)
	Target() [3]float32

	// SetTarget sets the point the camera looks at.
	//
	// Parameters:
	//   - x, y, z: the new target
	SetTarget(x, y, z float32)

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewOffset returns the active view offset.
	ViewOffset() common.ViewOffset

	// Resize updates the aspect ratio and the view offset for a new viewport. Invalid viewports
	// are ignored.
	//
	// Parameters:
	//   - vp: the viewport in logical pixels
	Resize(vp common.Viewport)

	// ProjectionMatrix returns the projection matrix.
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() [16]float32

	// Uniform returns the camera state in its GPU layout.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform block contents
	Uniform() GPUCameraUniform
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera configured with the provided options.
// Defaults: fov 45 degrees, aspect 1, near 0.1, far 100, looking from (0, 0, 10) at the origin.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions
//
// Returns:
//   - Camera: the camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: [3]float32{0, 0, 10},
		up:       [3]float32{0, 1, 0},
		fov:      45.0 * (math.Pi / 180.0),
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewOffset() common.ViewOffset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

func (c *cameraImpl) Resize(vp common.Viewport) {
	if !vp.Valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = vp.Aspect()
	if c.offset.Enabled() {
		c.offset = fullViewOffset(vp)
	}
	c.updateMatrices()
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{
		ViewProj:       c.viewProjectionMatrix,
		CameraPosition: c.position,
	}
}

// updateMatrices recomputes view, projection and view-projection. Caller holds mu.
func (c *cameraImpl) updateMatrices() {
	common.LookAt(c.viewMatrix[:], c.position, c.target, c.up)
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far, c.offset)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}

// fullViewOffset returns an offset covering the whole viewport, shifted by ViewOffsetY.
func fullViewOffset(vp common.Viewport) common.ViewOffset {
	w, h := float32(vp.Width), float32(vp.Height)
	return common.ViewOffset{
		FullWidth:  w,
		FullHeight: h,
		Y:          ViewOffsetY,
		Width:      w,
		Height:     h,
	}
}
