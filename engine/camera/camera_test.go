package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/common"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	assert.InDelta(t, 0.7853981, c.Fov(), 1e-6)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
	assert.Equal(t, float32(1), c.Aspect())
	assert.False(t, c.ViewOffset().Enabled())
}

func TestCameraResize(t *testing.T) {
	vp := common.Viewport{Width: 1280, Height: 720, DevicePixelRatio: 1}
	c := NewCamera(WithViewport(vp), WithViewOffset(vp), WithPosition(9, 6, 9))

	c.Resize(common.Viewport{Width: 800, Height: 400})
	assert.Equal(t, float32(2), c.Aspect())
	off := c.ViewOffset()
	assert.Equal(t, float32(800), off.FullWidth)
	assert.Equal(t, float32(400), off.Height)
	assert.Equal(t, ViewOffsetY, off.Y)

	proj := c.ProjectionMatrix()
	c.Resize(common.Viewport{Width: 800, Height: 400})
	assert.Equal(t, proj, c.ProjectionMatrix())

	c.Resize(common.Viewport{Width: 0, Height: 400})
	assert.Equal(t, float32(2), c.Aspect())
}

func TestCameraUniformMarshal(t *testing.T) {
	c := NewCamera(WithPosition(1, 2, 3))
	u := c.Uniform()

	assert.Equal(t, [3]float32{1, 2, 3}, u.CameraPosition)
	assert.Len(t, u.Marshal(), 80)
	assert.Equal(t, c.ViewProjectionMatrix(), u.ViewProj)
}

func TestOrbitControlsClampsDistance(t *testing.T) {
	c := NewCamera(WithPosition(20, 18, 20))
	oc := NewOrbitControls(WithDistanceLimits(4, 20))

	require.True(t, oc.Update(c))
	assert.InDelta(t, 20, common.Distance3(c.Position(), c.Target()), 1e-3)

	oc.Zoom(200)
	oc.Update(c)
	assert.InDelta(t, 4, common.Distance3(c.Position(), c.Target()), 1e-3)
}

func TestOrbitControlsDampingDecays(t *testing.T) {
	c := NewCamera(WithPosition(9, 6, 9))
	oc := NewOrbitControls(WithDistanceLimits(4, 20), WithDamping(true, 0.5))

	oc.Rotate(100, 0, 720)
	start := c.Position()
	require.True(t, oc.Update(c))
	first := common.Distance3(start, c.Position())

	mid := c.Position()
	require.True(t, oc.Update(c))
	second := common.Distance3(mid, c.Position())

	assert.Less(t, second, first)
	assert.InDelta(t, common.Distance3(start, [3]float32{}), common.Distance3(c.Position(), [3]float32{}), 1e-3)
}

func TestOrbitControlsDisabledIgnoresInput(t *testing.T) {
	c := NewCamera(WithPosition(9, 6, 9))
	oc := NewOrbitControls()
	oc.SetEnabled(false)

	oc.Rotate(100, 100, 720)
	oc.Zoom(5)
	assert.False(t, oc.Update(c))
	assert.Equal(t, [3]float32{9, 6, 9}, c.Position())
}
