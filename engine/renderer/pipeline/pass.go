package pipeline

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/params"
	"github.com/Carmen-Shannon/oxy-station/engine/scene"
)

// Pass names, in chain order.
const (
	PassBase    = "base"
	PassBloom   = "bloom"
	PassGodRays = "godrays"
	PassSMAA    = "smaa"
)

// ParamEnabled toggles a pass on or off. Every pass declares it first.
const ParamEnabled = "Enabled"

// Bloom parameters.
const (
	ParamBlurScale = "BlurScale"
	ParamIntensity = "Intensity"
	ParamFilter    = "Filter"
	ParamThreshold = "Threshold"
	ParamSmoothing = "Smoothing"
	ParamOpacity   = "Opacity"
)

// God rays parameters.
const (
	ParamResolution   = "Resolution"
	ParamBlurriness   = "Blurriness"
	ParamDensity      = "Density"
	ParamDecay        = "Decay"
	ParamWeight       = "Weight"
	ParamExposure     = "Exposure"
	ParamClampMax     = "ClampMax"
	ParamSamples      = "Samples"
	ParamLightOpacity = "LightOpacity"
	ParamSunOpacity   = "SunOpacity"
	ParamColor        = "Color"
)

// SMAA parameters.
const (
	ParamPreset        = "Preset"
	ParamEdgeThreshold = "EdgeThreshold"
)

// SMAAPreset selects the edge detection quality.
type SMAAPreset int

const (
	SMAAPresetLow SMAAPreset = iota
	SMAAPresetMedium
	SMAAPresetHigh
	SMAAPresetUltra
)

// smaaPresets holds the edge threshold and search distance of each preset.
var smaaPresets = [...]struct {
	threshold float64
	steps     float32
}{
	SMAAPresetLow:    {0.15, 4},
	SMAAPresetMedium: {0.1, 8},
	SMAAPresetHigh:   {0.1, 16},
	SMAAPresetUltra:  {0.05, 32},
}

// Extent is the pixel size of one internal pass buffer.
type Extent struct {
	Label         string
	Width, Height int
}

// FrameContext carries per-frame scene values a pass may need for its uniform block.
type FrameContext struct {
	// SunScreen is the sun proxy position in screen UV space, (0,0) top left.
	SunScreen [2]float32
}

// Pass is one stage of the render chain. Each pass owns a parameter table exposed to the
// control surface and a set of internal buffers sized from the drawing buffer.
type Pass interface {
	params.Target

	// Enabled reports whether the pass runs this frame.
	Enabled() bool

	// Resize sizes the pass's internal buffers from the drawing-buffer size.
	//
	// Parameters:
	//   - width: drawing-buffer width in physical pixels
	//   - height: drawing-buffer height in physical pixels
	Resize(width, height int)

	// Buffers returns the current internal buffer sizes, the primary buffer first.
	Buffers() []Extent

	// ShaderSource returns the WGSL source of the pass.
	ShaderSource() string

	// Uniform returns the marshalled uniform block for this frame, nil if the pass has none.
	//
	// Parameters:
	//   - ctx: the per-frame scene values
	//
	// Returns:
	//   - []byte: the uniform bytes
	Uniform(ctx FrameContext) []byte
}

// passCore holds the parts every pass shares: its name, its table and the drawing-buffer size.
type passCore struct {
	mu     sync.RWMutex
	name   string
	table  *params.Table
	width  int
	height int
}

func newPassCore(name string, ps ...params.Param) passCore {
	return passCore{
		name:  name,
		table: params.NewTable(append([]params.Param{params.Bool(ParamEnabled, true)}, ps...)...),
	}
}

func (p *passCore) Name() string {
	return p.name
}

func (p *passCore) Params() []params.Param {
	return p.table.List()
}

func (p *passCore) Enabled() bool {
	return p.table.Bool(ParamEnabled)
}

func (p *passCore) size() (int, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.width, p.height
}

func (p *passCore) setSize(width, height int) {
	p.mu.Lock()
	p.width, p.height = width, height
	p.mu.Unlock()
}

// basePass renders the scene graph into the first color buffer.
type basePass struct {
	passCore
}

var _ Pass = &basePass{}

func newBasePass() *basePass {
	return &basePass{passCore: newPassCore(PassBase)}
}

func (p *basePass) SetParam(name string, v any) (params.Param, error) {
	return p.table.Set(name, v)
}

func (p *basePass) Resize(width, height int) {
	p.setSize(width, height)
}

func (p *basePass) Buffers() []Extent {
	w, h := p.size()
	return []Extent{{Label: "color", Width: w, Height: h}}
}

func (p *basePass) ShaderSource() string {
	return BaseProgram
}

func (p *basePass) Uniform(FrameContext) []byte {
	return nil
}

// bloomPass adds a blurred, luminance-filtered copy of its input.
type bloomPass struct {
	passCore
}

var _ Pass = &bloomPass{}

func newBloomPass() *bloomPass {
	return &bloomPass{passCore: newPassCore(PassBloom,
		params.Number(ParamBlurScale, 0, 1, 0.001, 0.5),
		params.Number(ParamIntensity, 0, 3, 0.001, 1),
		params.Bool(ParamFilter, true),
		params.Number(ParamThreshold, 0, 1, 0.001, 0.9),
		params.Number(ParamSmoothing, 0, 1, 0.001, 0.2),
		params.Number(ParamOpacity, 0, 1, 0.001, 1),
	)}
}

func (p *bloomPass) SetParam(name string, v any) (params.Param, error) {
	return p.table.Set(name, v)
}

func (p *bloomPass) Resize(width, height int) {
	p.setSize(width, height)
}

// blurSize scales the drawing buffer by BlurScale, never below one pixel.
func (p *bloomPass) blurSize() (int, int) {
	w, h := p.size()
	scale := p.table.Number(ParamBlurScale)
	return max(int(math.Round(float64(w)*scale)), 1), max(int(math.Round(float64(h)*scale)), 1)
}

func (p *bloomPass) Buffers() []Extent {
	w, h := p.size()
	bw, bh := p.blurSize()
	return []Extent{
		{Label: "color", Width: w, Height: h},
		{Label: "blur", Width: bw, Height: bh},
	}
}

func (p *bloomPass) ShaderSource() string {
	return BloomShaderSource
}

func (p *bloomPass) Uniform(FrameContext) []byte {
	bw, bh := p.blurSize()
	var filter float32
	if p.table.Bool(ParamFilter) {
		filter = 1
	}
	u := GPUBloomUniform{
		Threshold: float32(p.table.Number(ParamThreshold)),
		Smoothing: float32(p.table.Number(ParamSmoothing)),
		Intensity: float32(p.table.Number(ParamIntensity)),
		Opacity:   float32(p.table.Number(ParamOpacity)),
		Filter:    filter,
		BlurScale: float32(p.table.Number(ParamBlurScale)),
		TexelSize: [2]float32{1 / float32(bw), 1 / float32(bh)},
	}
	return u.Marshal()
}

// godRaysPass radiates light shafts from the sun proxy. SunOpacity and Color write through to
// the proxy, and Color also recolors the point light.
type godRaysPass struct {
	passCore
	sun   *scene.Sun
	light interface{ SetColor(common.Color) }
}

var _ Pass = &godRaysPass{}

func newGodRaysPass(sun *scene.Sun, light interface{ SetColor(common.Color) }) *godRaysPass {
	return &godRaysPass{
		passCore: newPassCore(PassGodRays,
			params.Number(ParamResolution, 240, 1080, 120, 840),
			params.Number(ParamBlurriness, 0, 5, 1, 3),
			params.Number(ParamDensity, 0, 1, 0.001, 0.9),
			params.Number(ParamDecay, 0, 1, 0.001, 1),
			params.Number(ParamWeight, 0, 1, 0.001, 0.6),
			params.Number(ParamExposure, 0, 1, 0.001, 0.3),
			params.Number(ParamClampMax, 0, 1, 0.001, 1),
			params.Number(ParamSamples, 15, 200, 1, 200),
			params.Number(ParamLightOpacity, 0, 1, 0.001, 0.5),
			params.Number(ParamSunOpacity, 0, 1, 0.001, float64(sun.Opacity())),
			params.Color(ParamColor, sun.Color()),
		),
		sun:   sun,
		light: light,
	}
}

func (p *godRaysPass) SetParam(name string, v any) (params.Param, error) {
	stored, err := p.table.Set(name, v)
	if err != nil {
		return stored, err
	}
	switch name {
	case ParamSunOpacity:
		p.sun.SetOpacity(float32(stored.Number))
	case ParamColor:
		p.sun.SetColor(stored.Color)
		if p.light != nil {
			p.light.SetColor(stored.Color)
		}
	}
	return stored, nil
}

func (p *godRaysPass) Resize(width, height int) {
	p.setSize(width, height)
}

// raysSize keeps the drawing buffer's aspect at Resolution pixels high.
func (p *godRaysPass) raysSize() (int, int) {
	w, h := p.size()
	res := p.table.Number(ParamResolution)
	if h <= 0 {
		return 0, 0
	}
	return max(int(math.Round(res*float64(w)/float64(h))), 1), int(res)
}

func (p *godRaysPass) Buffers() []Extent {
	w, h := p.size()
	rw, rh := p.raysSize()
	return []Extent{
		{Label: "color", Width: w, Height: h},
		{Label: "rays", Width: rw, Height: rh},
	}
}

func (p *godRaysPass) ShaderSource() string {
	return GodRaysShaderSource
}

func (p *godRaysPass) Uniform(ctx FrameContext) []byte {
	u := GPUGodRaysUniform{
		LightPosition: ctx.SunScreen,
		Density:       float32(p.table.Number(ParamDensity)),
		Decay:         float32(p.table.Number(ParamDecay)),
		Weight:        float32(p.table.Number(ParamWeight)),
		Exposure:      float32(p.table.Number(ParamExposure)),
		ClampMax:      float32(p.table.Number(ParamClampMax)),
		Samples:       float32(p.table.Number(ParamSamples)),
		Kernel:        float32(p.table.Number(ParamBlurriness)),
		LightOpacity:  float32(p.table.Number(ParamLightOpacity)),
	}
	return u.Marshal()
}

// smaaPass anti-aliases the final image. Choosing a preset overwrites EdgeThreshold with the
// preset's value; EdgeThreshold can then be tuned on its own.
type smaaPass struct {
	passCore
	searchSteps float32
}

var _ Pass = &smaaPass{}

func newSMAAPass() *smaaPass {
	return &smaaPass{
		passCore: newPassCore(PassSMAA,
			params.Number(ParamPreset, 0, 3, 1, float64(SMAAPresetMedium)),
			params.Number(ParamEdgeThreshold, 0.05, 0.5, 0.01, smaaPresets[SMAAPresetMedium].threshold),
		),
		searchSteps: smaaPresets[SMAAPresetMedium].steps,
	}
}

func (p *smaaPass) SetParam(name string, v any) (params.Param, error) {
	stored, err := p.table.Set(name, v)
	if err != nil {
		return stored, err
	}
	if name == ParamPreset {
		preset := smaaPresets[int(stored.Number)]
		p.mu.Lock()
		p.searchSteps = preset.steps
		p.mu.Unlock()
		if _, err := p.table.Set(ParamEdgeThreshold, preset.threshold); err != nil {
			return stored, err
		}
	}
	return stored, nil
}

func (p *smaaPass) Resize(width, height int) {
	p.setSize(width, height)
}

func (p *smaaPass) Buffers() []Extent {
	w, h := p.size()
	return []Extent{
		{Label: "color", Width: w, Height: h},
		{Label: "edges", Width: w, Height: h},
		{Label: "weights", Width: w, Height: h},
	}
}

func (p *smaaPass) ShaderSource() string {
	return SMAAShaderSource
}

func (p *smaaPass) Uniform(FrameContext) []byte {
	w, h := p.size()
	p.mu.RLock()
	steps := p.searchSteps
	p.mu.RUnlock()
	u := GPUSMAAUniform{
		RTMetrics:      [4]float32{1 / float32(max(w, 1)), 1 / float32(max(h, 1)), float32(w), float32(h)},
		EdgeThreshold:  float32(p.table.Number(ParamEdgeThreshold)),
		MaxSearchSteps: steps,
	}
	return u.Marshal()
}
