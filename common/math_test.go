package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerspective_MatchesSymmetricFrustum(t *testing.T) {
	var m [16]float32
	fov := float32(45 * math.Pi / 180)
	Perspective(m[:], fov, 2, 0.1, 100, ViewOffset{})

	f := 1 / float32(math.Tan(float64(fov)/2))
	assert.InDelta(t, f/2, m[0], 1e-5)
	assert.InDelta(t, f, m[5], 1e-5)
	assert.InDelta(t, 0, m[8], 1e-6)
	assert.InDelta(t, 0, m[9], 1e-6)
	assert.Equal(t, float32(-1), m[11])
	assert.Equal(t, float32(0), m[15])
}

func TestPerspective_ViewOffsetShiftsFrustumVertically(t *testing.T) {
	var m [16]float32
	Perspective(m[:], 1, 800.0/600.0, 0.1, 100, ViewOffset{
		FullWidth: 800, FullHeight: 600,
		X: 0, Y: -100,
		Width: 800, Height: 600,
	})

	// Shifting up by a sixth of the full height moves the frustum center by a third of its half-height.
	assert.InDelta(t, 1.0/3.0, m[9], 1e-5)
	assert.InDelta(t, 0, m[8], 1e-6)
}

func TestInvert4_RoundTrip(t *testing.T) {
	var model, inv, product [16]float32
	BuildModelMatrix(model[:], [3]float32{1, 2, 3}, [3]float32{0.3, 0.7, -0.2}, [3]float32{2, 2, 2})

	require.True(t, Invert4(inv[:], model[:]))
	Mul4(product[:], model[:], inv[:])

	var identity [16]float32
	Identity(identity[:])
	for i := range product {
		assert.InDelta(t, identity[i], product[i], 1e-4, "element %d", i)
	}
}

func TestInvert4_SingularLeavesOutput(t *testing.T) {
	out := [16]float32{7}
	assert.False(t, Invert4(out[:], make([]float32, 16)))
	assert.Equal(t, float32(7), out[0])
}

func TestLookAt_PlacesTargetOnNegativeZ(t *testing.T) {
	var view [16]float32
	LookAt(view[:], [3]float32{0, 0, 10}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})

	// The target transformed into view space sits 10 units down -Z.
	z := view[2]*0 + view[6]*0 + view[10]*0 + view[14]
	assert.InDelta(t, -10, z, 1e-5)
}

func TestLerp3AndDistance3(t *testing.T) {
	a := [3]float32{12, 10, 12}
	b := [3]float32{9, 6, 9}

	assert.Equal(t, a, Lerp3(a, b, 0))
	assert.Equal(t, b, Lerp3(a, b, 1))
	assert.InDelta(t, math.Sqrt(9+16+9), Distance3(a, b), 1e-5)
}
