package window

import (
	"math"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-station/common"
)

// Window provides the presentation surface and pointer input for the scene.
// Sizes are logical pixels; DevicePixelRatio converts them to physical pixels.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the logical size or the content scale changes.
	//
	// Parameters:
	//   - callback: function receiving the new viewport
	SetResizeCallback(callback func(vp common.Viewport))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetDragCallback sets the callback for primary-button drags.
	//
	// Parameters:
	//   - callback: function receiving the pointer movement since the last event and the viewport height
	SetDragCallback(callback func(dx, dy, height float32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop on the calling (main) thread.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Viewport returns the current logical size and device pixel ratio.
	Viewport() common.Viewport

	// LogicalWidth returns the logical width, the device-class signal.
	LogicalWidth() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	mu sync.Mutex

	title string

	// minimum size in logical pixels, 0 for none
	minWidth, minHeight int

	viewport common.Viewport

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	drag dragTracker

	onUpdate func()
	onResize func(vp common.Viewport)
	onScroll func(delta float32)
	onDrag   func(dx, dy, height float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and spawns a window. It must be called from the main goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:    "oxy-station",
		viewport: common.Viewport{Width: 1280, Height: 720, DevicePixelRatio: 1},
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(vp common.Viewport)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy, height float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Viewport() common.Viewport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewport
}

func (w *engineWindow) LogicalWidth() int {
	return w.Viewport().Width
}

// setViewport stores a new viewport and notifies the resize callback when it changed.
func (w *engineWindow) setViewport(vp common.Viewport) {
	w.mu.Lock()
	changed := vp != w.viewport
	w.viewport = vp
	w.mu.Unlock()

	if changed && w.onResize != nil {
		w.onResize(vp)
	}
}

// handleButton starts or ends a drag.
func (w *engineWindow) handleButton(pressed bool, x, y float32) {
	if pressed {
		w.drag.press(x, y)
	} else {
		w.drag.release()
	}
}

// handleCursor forwards drag movement.
func (w *engineWindow) handleCursor(x, y float32) {
	dx, dy, ok := w.drag.move(x, y)
	if !ok || w.onDrag == nil {
		return
	}
	w.onDrag(dx, dy, float32(w.Viewport().Height))
}

func (w *engineWindow) handleScroll(delta float32) {
	if w.onScroll != nil {
		w.onScroll(delta)
	}
}

// dragTracker turns absolute cursor positions into deltas while the primary button is held.
type dragTracker struct {
	active bool
	x, y   float32
}

func (d *dragTracker) press(x, y float32) {
	d.active = true
	d.x, d.y = x, y
}

func (d *dragTracker) release() {
	d.active = false
}

func (d *dragTracker) move(x, y float32) (dx, dy float32, ok bool) {
	if !d.active {
		return 0, 0, false
	}
	dx, dy = x-d.x, y-d.y
	d.x, d.y = x, y
	return dx, dy, dx != 0 || dy != 0
}

// physicalToViewport converts a framebuffer size and content scale to a logical viewport.
func physicalToViewport(fbWidth, fbHeight int, scale float32) common.Viewport {
	if scale <= 0 {
		scale = 1
	}
	return common.Viewport{
		Width:            int(math.Round(float64(fbWidth) / float64(scale))),
		Height:           int(math.Round(float64(fbHeight) / float64(scale))),
		DevicePixelRatio: scale,
	}
}
