package presentation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/engine/camera"
)

func assertVec(t *testing.T, want, got [3]float32) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d", i)
	}
}

func TestPresetFor(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		initial  [3]float32
		resting  [3]float32
		maxDist  float32
		wantWide bool
	}{
		{"desktop", 1280, [3]float32{12, 10, 12}, [3]float32{9, 6, 9}, 20, true},
		{"breakpoint", 600, [3]float32{12, 10, 12}, [3]float32{9, 6, 9}, 20, true},
		{"phone", 599, [3]float32{20, 18, 20}, [3]float32{14, 12, 14}, 35, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PresetFor(tt.width)
			assert.Equal(t, tt.wantWide, p.Wide)
			assert.Equal(t, tt.initial, p.Initial)
			assert.Equal(t, tt.resting, p.Resting)
			assert.Equal(t, tt.maxDist, p.MaxDistance)
			assert.Equal(t, float32(4), p.MinDistance)
		})
	}
}

func TestNewControllerAppliesPreset(t *testing.T) {
	cam := camera.NewCamera()
	controls := camera.NewOrbitControls()

	c := NewController(cam, controls, 400)

	assert.False(t, c.Preset().Wide)
	assert.Equal(t, [3]float32{20, 18, 20}, cam.Position())
	assert.Equal(t, float32(4), controls.MinDistance())
	assert.Equal(t, float32(35), controls.MaxDistance())
	assert.Equal(t, PhaseLoading, c.Phase())
	assert.Panics(t, func() { NewController(nil, controls, 800) })
}

func TestProgress(t *testing.T) {
	var seen []Overlay
	c := NewController(camera.NewCamera(), nil, 800, WithOverlayListener(func(o Overlay) { seen = append(seen, o) }))

	assert.Equal(t, float32(BarLength), c.Overlay().BarOffset)

	c.Progress(25)
	c.Progress(10)
	c.Progress(100)

	require.Len(t, seen, 2, "a lower percentage is ignored")
	assert.Equal(t, "25%", seen[0].Text)
	assert.InDelta(t, 354, seen[0].BarOffset, 1e-4)
	assert.Equal(t, "100%", seen[1].Text)
	assert.InDelta(t, 0, seen[1].BarOffset, 1e-4)
}

func TestRevealTimeline(t *testing.T) {
	cam := camera.NewCamera()
	controlsShown := 0
	c := NewController(cam, nil, 1024, WithControlsListener(func() { controlsShown++ }))

	c.Update(time.Second)
	assert.Equal(t, PhaseLoading, c.Phase(), "nothing happens before ready")

	c.Ready()
	start := 3 * time.Second
	c.Update(start)
	assert.Equal(t, PhaseRevealing, c.Phase())

	c.Update(start + 100*time.Millisecond)
	assertVec(t, [3]float32{12, 10, 12}, cam.Position())
	assert.Equal(t, float32(1), c.Overlay().Opacity)

	// halfway through the fly-in power1.out has covered three quarters of the path
	c.Update(start + FlyInDelay + time.Second)
	assertVec(t, [3]float32{9.75, 7, 9.75}, cam.Position())

	c.Update(start + FadeDelay + FadeDuration/2)
	assert.InDelta(t, 0.5, c.Overlay().Opacity, 1e-4)
	assert.True(t, c.Overlay().Visible)
	assert.False(t, c.ControlsVisible())

	c.Update(start + ControlsAt)
	assert.True(t, c.ControlsVisible())
	assert.False(t, c.Overlay().Visible)
	assert.Equal(t, 1, controlsShown)
	assertVec(t, [3]float32{9, 6, 9}, cam.Position())
	assert.Equal(t, PhaseShown, c.Phase())

	cam.SetPosition(5, 5, 5)
	c.Update(start + 10*time.Second)
	assert.Equal(t, [3]float32{5, 5, 5}, cam.Position(), "the camera is free after the fly-in")
	assert.Equal(t, 1, controlsShown)
}

func TestFailWithholdsReveal(t *testing.T) {
	var last Overlay
	c := NewController(camera.NewCamera(), nil, 1024, WithOverlayListener(func(o Overlay) { last = o }))

	c.Progress(50)
	c.Fail(errors.New("asset buildingBaked: fetch failed"))
	c.Ready()
	c.Update(10 * time.Second)

	assert.Equal(t, PhaseFailed, c.Phase())
	assert.True(t, last.Visible)
	assert.Equal(t, "asset buildingBaked: fetch failed", last.Error)
	assert.Equal(t, 50, last.Percentage)
	assert.False(t, c.ControlsVisible())
}

func TestTween(t *testing.T) {
	tw := Tween{From: [3]float32{0, 0, 0}, To: [3]float32{10, 20, 30}, Delay: time.Second, Duration: 2 * time.Second}

	pos, done := tw.At(0)
	assert.Equal(t, [3]float32{0, 0, 0}, pos)
	assert.False(t, done)

	pos, _ = tw.At(2 * time.Second)
	assertVec(t, [3]float32{5, 10, 15}, pos)

	pos, done = tw.At(time.Minute)
	assert.Equal(t, [3]float32{10, 20, 30}, pos)
	assert.True(t, done)

	assert.InDelta(t, 0.75, Power1Out(0.5), 1e-6)
}
