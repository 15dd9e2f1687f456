package renderer

import (
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/pipeline"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped

	// PresentModeMailbox replaces the queued frame with the newest one. No tearing, low latency,
	// not supported by every surface.
	PresentModeMailbox
)

// ParsePresentMode maps a configuration value ("fifo", "immediate" or "mailbox") to a
// PresentMode. Unknown values select VSync.
func ParsePresentMode(s string) PresentMode {
	switch s {
	case "immediate":
		return PresentModeUncapped
	case "mailbox":
		return PresentModeMailbox
	default:
		return PresentModeVSync
	}
}

// RendererBackend is the GPU side of the Renderer. The renderer serializes calls; a backend only
// guards its own resources.
type RendererBackend interface {
	// ConfigureSurface sizes the swapchain and every size-dependent render target.
	//
	// Parameters:
	//   - width: the drawing-buffer width in pixels
	//   - height: the drawing-buffer height in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// RegisterMesh uploads vertex and index data under a key the base pass looks draws up by.
	//
	// Parameters:
	//   - key: the mesh key, a node name or SunMeshKey
	//   - geometry: the packed geometry
	//
	// Returns:
	//   - error: error if a buffer could not be created
	RegisterMesh(key string, geometry Geometry) error

	// Execute encodes every stage of the frame, submits it and presents the surface.
	//
	// Parameters:
	//   - frame: the frame description
	//
	// Returns:
	//   - error: error if the surface texture could not be acquired or a stage failed to build
	Execute(frame *pipeline.Frame) error

	// Release frees every GPU resource held by the backend.
	Release()
}
