// Package renderer executes the render chain on the GPU. The renderer implements the pipeline's
// Target: the pipeline decides what each frame contains, the renderer decides how the GPU draws it.
package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-station/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rs/zerolog"
)

// SunMeshKey is the mesh key of the generated sun proxy sphere.
const SunMeshKey = "sun"

// SurfaceSource provides the platform surface the renderer presents to.
type SurfaceSource interface {
	// SurfaceDescriptor returns the platform-specific WebGPU surface descriptor.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}

type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	forceFallbackAdapter bool
	presentMode          PresentMode
	clearColor           common.Color
	clearAlpha           float32

	width, height int
	pixelRatio    float32
	frames        uint64

	logger zerolog.Logger
}

// Renderer draws pipeline frames to a window surface.
type Renderer interface {
	pipeline.Target

	// RegisterMesh uploads geometry for draws whose node name equals key.
	//
	// Parameters:
	//   - key: the node name, or SunMeshKey
	//   - geometry: the packed geometry
	//
	// Returns:
	//   - error: error if the upload failed
	RegisterMesh(key string, geometry Geometry) error

	// Size returns the configured drawing-buffer size.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)

	// PixelRatio returns the last pixel ratio set by the pipeline.
	//
	// Returns:
	//   - float32: the capped device pixel ratio
	PixelRatio() float32

	// Frames returns the number of frames executed.
	//
	// Returns:
	//   - uint64: the frame count
	Frames() uint64

	// SetPresentMode changes how frames are presented. Takes effect on the next resize.
	//
	// Parameters:
	//   - mode: the present mode
	SetPresentMode(mode PresentMode)

	// Release frees all GPU resources.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates the GPU device for the surface and uploads the sun proxy geometry. The
// surface is configured on the first SetSize.
//
// Parameters:
//   - backendType: the GPU backend to use
//   - surface: the window providing the surface descriptor
//   - options: builder options
//
// Returns:
//   - Renderer: the renderer
//   - error: error if the sun proxy geometry could not be uploaded
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(backendType, options...)

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.clearValue(), r.logger)
	}
	r.backend.SetPresentMode(r.presentMode)

	if err := r.registerSun(); err != nil {
		r.backend.Release()
		return nil, err
	}
	return r, nil
}

// newRenderer applies options without creating a backend.
func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		presentMode: PresentModeVSync,
		pixelRatio:  1,
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) registerSun() error {
	g := SphereGeometry(scene.SunRadius, scene.SunWidthSegments, scene.SunHeightSegments)
	if err := r.backend.RegisterMesh(SunMeshKey, g); err != nil {
		return fmt.Errorf("uploading sun proxy: %w", err)
	}
	return nil
}

func (r *renderer) clearValue() wgpu.Color {
	c := r.clearColor.SRGBToLinear()
	return wgpu.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(r.clearAlpha)}
}

func (r *renderer) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width && height == r.height {
		return
	}
	r.backend.ConfigureSurface(width, height)
	r.width, r.height = width, height
	r.logger.Debug().Int("width", width).Int("height", height).Msg("surface configured")
}

func (r *renderer) SetPixelRatio(ratio float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pixelRatio = common.Clamp(ratio, 0.1, common.MaxPixelRatio)
}

func (r *renderer) Execute(frame *pipeline.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if frame == nil || r.width == 0 || r.height == 0 {
		return nil
	}
	if frame.Width != r.width || frame.Height != r.height {
		r.backend.ConfigureSurface(frame.Width, frame.Height)
		r.width, r.height = frame.Width, frame.Height
	}
	if err := r.backend.Execute(frame); err != nil {
		return err
	}
	r.frames++
	return nil
}

func (r *renderer) RegisterMesh(key string, geometry Geometry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.RegisterMesh(key, geometry)
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) PixelRatio() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pixelRatio
}

func (r *renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presentMode = mode
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
}
