package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/engine/model"
)

func vertexPosition(g Geometry, i int) [3]float32 {
	off := i * VertexStride
	var p [3]float32
	for k := range 3 {
		p[k] = math.Float32frombits(binary.LittleEndian.Uint32(g.Vertices[off+k*4:]))
	}
	return p
}

func TestSphereGeometryCounts(t *testing.T) {
	g := SphereGeometry(5, 32, 32)

	assert.Len(t, g.Vertices, 33*33*VertexStride)
	assert.Equal(t, 32*31*2*3, g.IndexCount)
	assert.Len(t, g.Indices, g.IndexCount*4)

	last := uint32(33*33 - 1)
	for i := 0; i < len(g.Indices); i += 4 {
		require.LessOrEqual(t, binary.LittleEndian.Uint32(g.Indices[i:]), last)
	}
}

func TestSphereGeometryRadius(t *testing.T) {
	g := SphereGeometry(5, 8, 6)

	for i := range len(g.Vertices) / VertexStride {
		p := vertexPosition(g, i)
		r := math.Sqrt(float64(p[0]*p[0] + p[1]*p[1] + p[2]*p[2]))
		assert.InDelta(t, 5, r, 1e-4)
	}
	assert.InDelta(t, 5, vertexPosition(g, 0)[1], 1e-6, "first ring is the north pole")
}

func TestSphereGeometryMinimumSegments(t *testing.T) {
	g := SphereGeometry(1, 0, 0)
	assert.Len(t, g.Vertices, 4*3*VertexStride)
	assert.Equal(t, 3*1*2*3, g.IndexCount)
}

func TestPackMeshData(t *testing.T) {
	assert.Zero(t, PackMeshData(nil).IndexCount)

	d := &model.MeshData{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 2, 0},
		UVs:       []float32{0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
	}
	g := PackMeshData(d)
	require.Len(t, g.Vertices, 3*VertexStride)
	assert.Equal(t, 3, g.IndexCount)
	assert.Equal(t, [3]float32{0, 2, 0}, vertexPosition(g, 2))

	second := g.Vertices[VertexStride:]
	float := func(b []byte, i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])) }
	assert.Equal(t, float32(1), float(second, 4), "missing normals point up")
	assert.Equal(t, float32(1), float(second, 6), "uv u")
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(g.Indices[8:]))
}
