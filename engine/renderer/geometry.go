package renderer

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-station/engine/model"
)

// VertexStride is the byte size of one base pass vertex: position, normal and uv.
const VertexStride = 32

// Geometry is packed vertex and index data ready for GPU upload.
type Geometry struct {
	Vertices   []byte
	Indices    []byte
	IndexCount int
}

// SphereGeometry builds a UV sphere centred on the origin. Vertices use the base pass layout and
// indices are uint32 triangles with the poles collapsed to single triangle rings.
//
// Parameters:
//   - radius: the sphere radius
//   - widthSegments: segments around the equator, at least 3
//   - heightSegments: segments from pole to pole, at least 2
//
// Returns:
//   - Geometry: the packed sphere
func SphereGeometry(radius float32, widthSegments, heightSegments int) Geometry {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)

	cols := widthSegments + 1
	vertices := make([]byte, 0, cols*(heightSegments+1)*VertexStride)
	for iy := 0; iy <= heightSegments; iy++ {
		v := float32(iy) / float32(heightSegments)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float32(ix) / float32(widthSegments)
			sinV, cosV := math32.Sincos(v * math32.Pi)
			sinU, cosU := math32.Sincos(u * 2 * math32.Pi)
			nx, ny, nz := -cosU*sinV, cosV, sinU*sinV
			vertices = appendFloats(vertices,
				nx*radius, ny*radius, nz*radius,
				nx, ny, nz,
				u, 1-v)
		}
	}

	var indices []byte
	count := 0
	for iy := range heightSegments {
		for ix := range widthSegments {
			a := uint32(iy*cols + ix + 1)
			b := uint32(iy*cols + ix)
			c := uint32((iy+1)*cols + ix)
			d := uint32((iy+1)*cols + ix + 1)
			if iy != 0 {
				indices = appendIndices(indices, a, b, d)
				count += 3
			}
			if iy != heightSegments-1 {
				indices = appendIndices(indices, b, c, d)
				count += 3
			}
		}
	}

	return Geometry{Vertices: vertices, Indices: indices, IndexCount: count}
}

// PackMeshData interleaves decoded mesh data into the base pass layout. Missing normals point
// up and missing texture coordinates are zero.
//
// Parameters:
//   - d: the decoded mesh
//
// Returns:
//   - Geometry: the packed geometry, empty for nil or vertex-less data
func PackMeshData(d *model.MeshData) Geometry {
	n := d.VertexCount()
	if n == 0 || len(d.Indices) == 0 {
		return Geometry{}
	}
	hasNormals := len(d.Normals) == n*3
	hasUVs := len(d.UVs) == n*2

	vertices := make([]byte, 0, n*VertexStride)
	for i := range n {
		p := d.Positions[i*3 : i*3+3]
		nx, ny, nz := float32(0), float32(1), float32(0)
		if hasNormals {
			nx, ny, nz = d.Normals[i*3], d.Normals[i*3+1], d.Normals[i*3+2]
		}
		var u, v float32
		if hasUVs {
			u, v = d.UVs[i*2], d.UVs[i*2+1]
		}
		vertices = appendFloats(vertices, p[0], p[1], p[2], nx, ny, nz, u, v)
	}
	return Geometry{
		Vertices:   vertices,
		Indices:    appendIndices(make([]byte, 0, len(d.Indices)*4), d.Indices...),
		IndexCount: len(d.Indices),
	}
}

func appendFloats(buf []byte, vs ...float32) []byte {
	for _, v := range vs {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

func appendIndices(buf []byte, is ...uint32) []byte {
	for _, i := range is {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	return buf
}
