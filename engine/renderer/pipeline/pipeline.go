// Package pipeline assembles the fixed render chain: base pass, bloom, volumetric light and SMAA.
// The pipeline owns pass parameters and buffer sizing and describes every frame to a Target,
// which performs the GPU work.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/camera"
	"github.com/Carmen-Shannon/oxy-station/engine/light"
	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/Carmen-Shannon/oxy-station/engine/model"
	"github.com/Carmen-Shannon/oxy-station/engine/params"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-station/engine/scene"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
	"github.com/rs/zerolog"
)

// ErrUnknownPass is returned for a pass name the chain does not contain.
var ErrUnknownPass = errors.New("unknown pass")

// Scene is the part of the scene composer the pipeline reads each frame.
type Scene interface {
	// Light returns the point light.
	Light() light.Light

	// Sun returns the light-occluder proxy of the volumetric light pass.
	Sun() *scene.Sun

	// Visit walks every visible node with its world matrix.
	Visit(fn func(n *model.Node, world [16]float32))
}

// Draw is one node of the base pass.
type Draw struct {
	// Node is the node name, for labels.
	Node string

	// Mesh is the node's mesh index in its model, -1 for the sun proxy.
	Mesh int

	// Sun marks the generated sun proxy sphere.
	Sun bool

	// Geometry is the decoded mesh data, nil when the model carried none. Nodes sharing a mesh
	// share the pointer.
	Geometry *model.MeshData

	World    model.GPUNodeData
	Material material.GPUMaterialParams

	// Texture is the baked texture, nil for untextured materials.
	Texture texture.Texture

	Transparent bool
}

// Stage is one enabled pass of a frame.
type Stage struct {
	Pass    string
	Shader  string
	Uniform []byte
	Buffers []Extent
}

// Frame is the complete description of one rendered frame.
type Frame struct {
	Camera camera.GPUCameraUniform
	Light  light.GPULight

	// Draws lists opaque nodes first, then transparent ones, each in scene order.
	Draws []Draw

	// Stages lists the enabled passes in chain order.
	Stages []Stage

	// Width and Height are the drawing-buffer size.
	Width, Height int
}

// Target performs the GPU work the pipeline describes.
type Target interface {
	// SetSize resizes the presentation surface to the drawing-buffer size.
	//
	// Parameters:
	//   - width: drawing-buffer width in physical pixels
	//   - height: drawing-buffer height in physical pixels
	SetSize(width, height int)

	// SetPixelRatio records the capped device pixel ratio.
	//
	// Parameters:
	//   - ratio: the pixel ratio in (0, 2]
	SetPixelRatio(ratio float32)

	// Execute renders a frame.
	//
	// Parameters:
	//   - frame: the frame description
	//
	// Returns:
	//   - error: error if the frame could not be rendered
	Execute(frame *Frame) error
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	mu sync.Mutex

	target Target
	cam    camera.Camera
	scene  Scene

	passes []Pass
	byName map[string]Pass

	viewport      common.Viewport
	pixelRatioCap float32

	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// Pipeline is the ordered render chain.
type Pipeline interface {
	// Passes returns the passes in chain order.
	//
	// Returns:
	//   - []Pass: base, bloom, godrays, smaa
	Passes() []Pass

	// Pass looks a pass up by name.
	//
	// Parameters:
	//   - name: the pass name
	//
	// Returns:
	//   - Pass: the pass
	//   - error: ErrUnknownPass if no pass has that name
	Pass(name string) (Pass, error)

	// SetParam applies a value to one pass parameter. Numbers are clamped to the parameter's
	// bounds and snapped to its step, never rejected.
	//
	// Parameters:
	//   - pass: the pass name
	//   - name: the parameter name
	//   - v: the value
	//
	// Returns:
	//   - params.Param: the stored parameter
	//   - error: ErrUnknownPass, params.ErrUnknownParam or params.ErrInvalidValue
	SetParam(pass, name string, v any) (params.Param, error)

	// Resize updates the camera projection, then the target's size and pixel ratio, then every
	// pass's buffers. A non-positive width or height is ignored.
	//
	// Parameters:
	//   - width: logical viewport width
	//   - height: logical viewport height
	//   - dpr: device pixel ratio
	Resize(width, height int, dpr float32)

	// Viewport returns the last applied viewport.
	Viewport() common.Viewport

	// DrawingBufferSize returns the physical size of the render target.
	DrawingBufferSize() (int, int)

	// Render builds the frame description and hands it to the target.
	//
	// Returns:
	//   - error: error from the target
	Render() error
}

var _ Pipeline = &pipeline{}

// Build constructs the chain in its fixed order: base, bloom, godrays, smaa.
//
// Parameters:
//   - target: the GPU target frames are executed on
//   - cam: the scene camera
//   - sc: the scene to draw
//   - options: builder options
//
// Returns:
//   - Pipeline: the pipeline
//   - error: error if a required collaborator is missing
func Build(target Target, cam camera.Camera, sc Scene, options ...PipelineBuilderOption) (Pipeline, error) {
	switch {
	case target == nil:
		return nil, errors.New("pipeline: target is required")
	case cam == nil:
		return nil, errors.New("pipeline: camera is required")
	case sc == nil || sc.Sun() == nil:
		return nil, errors.New("pipeline: scene with a sun proxy is required")
	}

	p := &pipeline{
		target:        target,
		cam:           cam,
		scene:         sc,
		pixelRatioCap: common.MaxPixelRatio,
		logger:        zerolog.Nop(),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.Noop()
	}

	p.passes = []Pass{
		newBasePass(),
		newBloomPass(),
		newGodRaysPass(sc.Sun(), sc.Light()),
		newSMAAPass(),
	}
	p.byName = make(map[string]Pass, len(p.passes))
	for _, pass := range p.passes {
		p.byName[pass.Name()] = pass
	}
	return p, nil
}

func (p *pipeline) Passes() []Pass {
	out := make([]Pass, len(p.passes))
	copy(out, p.passes)
	return out
}

func (p *pipeline) Pass(name string) (Pass, error) {
	pass, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPass, name)
	}
	return pass, nil
}

func (p *pipeline) SetParam(passName, name string, v any) (params.Param, error) {
	pass, err := p.Pass(passName)
	if err != nil {
		return params.Param{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	stored, err := pass.SetParam(name, v)
	if err != nil {
		return stored, fmt.Errorf("%s: %w", passName, err)
	}
	p.metrics.ParamChanged(context.Background(), passName, name)
	p.logger.Debug().Str("pass", passName).Str("param", name).Interface("value", stored.Value()).Msg("pass param changed")
	return stored, nil
}

func (p *pipeline) Resize(width, height int, dpr float32) {
	vp := common.Viewport{Width: width, Height: height, DevicePixelRatio: dpr}
	if !vp.Valid() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.cam.Resize(vp)

	w, h, ratio := vp.DrawingBufferSize(p.pixelRatioCap)
	p.target.SetSize(w, h)
	p.target.SetPixelRatio(ratio)

	for _, pass := range p.passes {
		pass.Resize(w, h)
	}
	p.viewport = vp
	p.logger.Debug().Int("width", w).Int("height", h).Float32("pixelRatio", ratio).Msg("pipeline resized")
}

func (p *pipeline) Viewport() common.Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewport
}

func (p *pipeline) DrawingBufferSize() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, h, _ := p.viewport.DrawingBufferSize(p.pixelRatioCap)
	return w, h
}

func (p *pipeline) Render() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, h, _ := p.viewport.DrawingBufferSize(p.pixelRatioCap)
	if w == 0 || h == 0 {
		return nil
	}

	viewProj := p.cam.ViewProjectionMatrix()
	ctx := FrameContext{SunScreen: screenPosition(viewProj, p.scene.Sun().Position())}

	frame := &Frame{
		Camera: p.cam.Uniform(),
		Light:  p.scene.Light().GPU(),
		Draws:  p.collectDraws(),
		Width:  w,
		Height: h,
	}
	for _, pass := range p.passes {
		if !pass.Enabled() {
			continue
		}
		frame.Stages = append(frame.Stages, Stage{
			Pass:    pass.Name(),
			Shader:  pass.ShaderSource(),
			Uniform: pass.Uniform(ctx),
			Buffers: pass.Buffers(),
		})
	}

	if err := p.target.Execute(frame); err != nil {
		return fmt.Errorf("executing frame: %w", err)
	}
	return nil
}

// collectDraws turns every visible mesh node and the sun proxy into a draw, opaque first.
func (p *pipeline) collectDraws() []Draw {
	sunNode := p.scene.Sun().Node()
	var draws []Draw
	p.scene.Visit(func(n *model.Node, world [16]float32) {
		isSun := n == sunNode
		if n.Mesh < 0 && !isSun {
			return
		}
		d := Draw{Node: n.Name, Mesh: n.Mesh, Sun: isSun, Geometry: n.Geometry, World: model.GPUNodeData{Model: world}}
		if n.Material != nil {
			d.Material = material.GPUParams(n.Material)
			d.Texture = n.Material.Texture()
			d.Transparent = n.Material.Transparent()
		} else {
			d.Material.Color = [4]float32{1, 1, 1, 1}
		}
		if isSun {
			d.Mesh = -1
		}
		draws = append(draws, d)
	})
	sort.SliceStable(draws, func(i, j int) bool {
		return !draws[i].Transparent && draws[j].Transparent
	})
	return draws
}

// screenPosition projects a world point to screen UV space with (0,0) at the top left.
func screenPosition(viewProj [16]float32, pos [3]float32) [2]float32 {
	var clip [4]float32
	for i := range 4 {
		clip[i] = viewProj[i]*pos[0] + viewProj[4+i]*pos[1] + viewProj[8+i]*pos[2] + viewProj[12+i]
	}
	if clip[3] == 0 {
		return [2]float32{0.5, 0.5}
	}
	x, y := clip[0]/clip[3], clip[1]/clip[3]
	return [2]float32{x*0.5 + 0.5, 0.5 - y*0.5}
}
