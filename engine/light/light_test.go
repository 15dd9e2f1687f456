package light

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/oxy-station/common"
)

func TestNewLightDefaults(t *testing.T) {
	l := NewLight()

	assert.Equal(t, common.Color{R: 1, G: 1, B: 1}, l.Color())
	assert.Equal(t, float32(1), l.Intensity())
	assert.True(t, l.Enabled())
	assert.Equal(t, [3]float32{}, l.Position())
}

func TestStationPointLight(t *testing.T) {
	l := NewLight(
		WithPosition(-7, 5, -7),
		WithColor(common.ColorFromHex(0xbdadff)),
		WithIntensity(10),
	)

	assert.Equal(t, [3]float32{-7, 5, -7}, l.Position())
	assert.Equal(t, uint32(0xbdadff), l.Color().Hex())

	g := l.GPU()
	assert.Equal(t, float32(10), g.Intensity)
	assert.Equal(t, uint32(1), g.Enabled)
	assert.Less(t, g.Color[0], l.Color().R, "uploaded color is linear")
}

func TestDisabledLightHasNoIntensity(t *testing.T) {
	l := NewLight(WithIntensity(10))
	l.SetEnabled(false)

	g := l.GPU()
	assert.Zero(t, g.Intensity)
	assert.Zero(t, g.Enabled)
	assert.Equal(t, float32(10), l.Intensity(), "switching off keeps the stored intensity")

	l.SetIntensity(-3)
	assert.Zero(t, l.Intensity())
}

func TestGPULightMarshal(t *testing.T) {
	g := GPULight{Position: [3]float32{1, 2, 3}, Enabled: 1, Intensity: 10}
	buf := g.Marshal()

	assert.Len(t, buf, g.Size())
	assert.Equal(t, 32, g.Size())
	assert.Equal(t, byte(1), buf[12])
}
