// Package presentation adapts the scene to the device class and runs the loading overlay and
// the camera fly-in that follows it.
package presentation

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-station/engine/camera"
	"github.com/rs/zerolog"
)

// Timeline of the reveal, measured from the first update after the ready signal.
const (
	FlyInDelay    = 200 * time.Millisecond
	FlyInDuration = 2 * time.Second
	FadeDelay     = 700 * time.Millisecond
	FadeDuration  = 1500 * time.Millisecond
	ControlsAt    = 2250 * time.Millisecond
)

// BarLength is the dash length of the circular progress bar; the offset runs from BarLength at
// 0% to 0 at 100%.
const BarLength = 472

// Phase is the stage of the loading presentation.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseRevealing
	PhaseShown
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseRevealing:
		return "revealing"
	case PhaseShown:
		return "shown"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Overlay is the state of the loading overlay.
type Overlay struct {
	Visible    bool
	Opacity    float32
	Percentage int
	Text       string
	BarOffset  float32
	Error      string
}

type controller struct {
	mu sync.Mutex

	preset   Preset
	cam      camera.Camera
	controls camera.OrbitControls
	flyIn    Tween

	phase        Phase
	overlay      Overlay
	readyPending bool
	readyAt      time.Duration
	flyInDone    bool
	controlsOn   bool

	onOverlay  func(Overlay)
	onControls func()
	logger     zerolog.Logger
}

// Controller drives the device-class framing and the post-load reveal.
type Controller interface {
	// Preset returns the framing chosen at construction.
	Preset() Preset

	// Progress records an aggregate load percentage. It is safe to call from any goroutine.
	//
	// Parameters:
	//   - pct: the percentage in [0, 100]
	Progress(pct int)

	// Ready records that every asset has loaded. The reveal starts on the next Update.
	Ready()

	// Fail records a load failure. The overlay stays up with the error and Ready is ignored.
	//
	// Parameters:
	//   - err: the failure
	Fail(err error)

	// Update advances the reveal timeline. It runs on the frame tick.
	//
	// Parameters:
	//   - elapsed: the scheduler clock
	Update(elapsed time.Duration)

	// Phase returns the current stage.
	Phase() Phase

	// Overlay returns the overlay state.
	Overlay() Overlay

	// ControlsVisible reports whether the parameter controls have been revealed.
	ControlsVisible() bool
}

var _ Controller = &controller{}

// NewController reads the device class once, places the camera at the preset's initial position
// and applies the preset's orbit distance limits.
//
// Parameters:
//   - cam: the scene camera
//   - controls: the orbit controls, may be nil
//   - logicalWidth: the logical viewport width at startup
//   - options: builder options
//
// Returns:
//   - Controller: the controller
func NewController(cam camera.Camera, controls camera.OrbitControls, logicalWidth int, options ...ControllerBuilderOption) Controller {
	if cam == nil {
		panic("presentation: camera is required")
	}
	preset := PresetFor(logicalWidth)
	c := &controller{
		preset:   preset,
		cam:      cam,
		controls: controls,
		flyIn: Tween{
			From:     preset.Initial,
			To:       preset.Resting,
			Delay:    FlyInDelay,
			Duration: FlyInDuration,
			Ease:     Power1Out,
		},
		overlay: Overlay{Visible: true, Opacity: 1, Text: "0%", BarOffset: BarLength},
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}

	cam.SetPosition(preset.Initial[0], preset.Initial[1], preset.Initial[2])
	if controls != nil {
		controls.SetDistanceLimits(preset.MinDistance, preset.MaxDistance)
	}
	c.logger.Debug().Bool("wide", preset.Wide).Int("logicalWidth", logicalWidth).Msg("presentation preset selected")
	return c
}

func (c *controller) Preset() Preset {
	return c.preset
}

func (c *controller) Progress(pct int) {
	pct = max(0, min(100, pct))

	c.mu.Lock()
	if c.phase != PhaseLoading || pct < c.overlay.Percentage {
		c.mu.Unlock()
		return
	}
	c.overlay.Percentage = pct
	c.overlay.Text = fmt.Sprintf("%d%%", pct)
	c.overlay.BarOffset = BarOffset(pct)
	snapshot := c.overlay
	c.mu.Unlock()

	c.emitOverlay(snapshot)
}

func (c *controller) Ready() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseLoading {
		return
	}
	c.readyPending = true
}

func (c *controller) Fail(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.phase == PhaseShown {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseFailed
	c.readyPending = false
	c.overlay.Visible = true
	c.overlay.Opacity = 1
	c.overlay.Error = err.Error()
	snapshot := c.overlay
	c.mu.Unlock()

	c.logger.Error().Err(err).Msg("loading failed")
	c.emitOverlay(snapshot)
}

func (c *controller) Update(elapsed time.Duration) {
	c.mu.Lock()
	if c.readyPending {
		c.readyPending = false
		c.readyAt = elapsed
		c.phase = PhaseRevealing
		c.logger.Info().Dur("at", elapsed).Msg("reveal started")
	}
	if c.phase != PhaseRevealing {
		c.mu.Unlock()
		return
	}
	since := elapsed - c.readyAt

	if !c.flyInDone && since >= c.flyIn.Delay {
		pos, done := c.flyIn.At(since)
		c.cam.SetPosition(pos[0], pos[1], pos[2])
		c.flyInDone = done
	}

	var overlayChanged, revealControls bool
	if opacity := fadeOpacity(since); opacity != c.overlay.Opacity {
		c.overlay.Opacity = opacity
		overlayChanged = true
	}
	if since >= ControlsAt && !c.controlsOn {
		c.controlsOn = true
		c.overlay.Visible = false
		c.overlay.Opacity = 0
		overlayChanged = true
		revealControls = true
	}
	if c.controlsOn && c.flyInDone {
		c.phase = PhaseShown
	}
	snapshot := c.overlay
	c.mu.Unlock()

	if overlayChanged {
		c.emitOverlay(snapshot)
	}
	if revealControls {
		c.logger.Info().Msg("controls revealed")
		if c.onControls != nil {
			c.onControls()
		}
	}
}

func (c *controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *controller) Overlay() Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay
}

func (c *controller) ControlsVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controlsOn
}

func (c *controller) emitOverlay(o Overlay) {
	if c.onOverlay != nil {
		c.onOverlay(o)
	}
}

// BarOffset returns the circular bar's dash offset for a percentage.
func BarOffset(pct int) float32 {
	return BarLength * (1 - float32(pct)/100)
}

// fadeOpacity is the overlay opacity at a time since ready.
func fadeOpacity(since time.Duration) float32 {
	switch {
	case since <= FadeDelay:
		return 1
	case since >= FadeDelay+FadeDuration:
		return 0
	default:
		return 1 - float32(since-FadeDelay)/float32(FadeDuration)
	}
}
