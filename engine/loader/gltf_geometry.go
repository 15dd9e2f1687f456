package loader

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Carmen-Shannon/oxy-station/engine/model"
)

// errExternalBuffer marks geometry stored outside the payload; such meshes keep no data.
var errExternalBuffer = errors.New("buffer is stored outside the payload")

// gltfGeometry decodes triangle primitives from the document's buffers.
type gltfGeometry struct {
	doc     *gltfDocument
	buffers [][]byte
}

func newGLTFGeometry(doc *gltfDocument, bin []byte) *gltfGeometry {
	g := &gltfGeometry{doc: doc, buffers: make([][]byte, len(doc.Buffers))}
	for i, b := range doc.Buffers {
		switch {
		case b.URI == "" && i == 0:
			g.buffers[i] = bin
		case strings.HasPrefix(b.URI, "data:"):
			if comma := strings.IndexByte(b.URI, ','); comma > 0 && strings.HasSuffix(b.URI[:comma], ";base64") {
				if data, err := base64.StdEncoding.DecodeString(b.URI[comma+1:]); err == nil {
					g.buffers[i] = data
				}
			}
		}
	}
	return g
}

// mesh decodes every triangle primitive of mesh idx into one MeshData.
//
// Returns:
//   - *model.MeshData: the geometry, nil when nothing decodable was found
//   - error: error if an accessor is malformed
func (g *gltfGeometry) mesh(idx int) (*model.MeshData, error) {
	var out *model.MeshData
	for pi, prim := range g.doc.Meshes[idx].Primitives {
		if prim.Mode != nil && *prim.Mode != gltfModeTriangles {
			continue
		}
		data, err := g.primitive(prim)
		if errors.Is(err, errExternalBuffer) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", idx, pi, err)
		}
		if data == nil {
			continue
		}
		if out == nil {
			out = data
			continue
		}
		out.Append(data)
	}
	return out, nil
}

func (g *gltfGeometry) primitive(prim gltfPrimitive) (*model.MeshData, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, nil
	}
	positions, err := g.floats(posIdx, "VEC3")
	if err != nil {
		return nil, fmt.Errorf("POSITION: %w", err)
	}
	data := &model.MeshData{Positions: positions}
	count := data.VertexCount()

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if data.Normals, err = g.floats(idx, "VEC3"); err != nil {
			return nil, fmt.Errorf("NORMAL: %w", err)
		}
		if len(data.Normals) != count*3 {
			return nil, fmt.Errorf("NORMAL count %d does not match POSITION count %d", len(data.Normals)/3, count)
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if data.UVs, err = g.floats(idx, "VEC2"); err != nil {
			return nil, fmt.Errorf("TEXCOORD_0: %w", err)
		}
		if len(data.UVs) != count*2 {
			return nil, fmt.Errorf("TEXCOORD_0 count %d does not match POSITION count %d", len(data.UVs)/2, count)
		}
	}

	if prim.Indices != nil {
		if data.Indices, err = g.indices(*prim.Indices); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		for _, i := range data.Indices {
			if int(i) >= count {
				return nil, fmt.Errorf("index %d out of range for %d vertices", i, count)
			}
		}
	} else {
		data.Indices = make([]uint32, count)
		for i := range data.Indices {
			data.Indices[i] = uint32(i)
		}
	}
	return data, nil
}

// view returns the accessor, its backing bytes starting at the first element, and the stride.
func (g *gltfGeometry) view(accIdx int) (gltfAccessor, []byte, int, error) {
	if accIdx < 0 || accIdx >= len(g.doc.Accessors) {
		return gltfAccessor{}, nil, 0, fmt.Errorf("accessor %d out of range", accIdx)
	}
	acc := g.doc.Accessors[accIdx]
	if acc.BufferView == nil {
		return acc, nil, 0, fmt.Errorf("accessor %d has no buffer view", accIdx)
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(g.doc.BufferViews) {
		return acc, nil, 0, fmt.Errorf("accessor %d: buffer view %d out of range", accIdx, *acc.BufferView)
	}
	bv := g.doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(g.buffers) {
		return acc, nil, 0, fmt.Errorf("buffer view %d: buffer %d out of range", *acc.BufferView, bv.Buffer)
	}
	buf := g.buffers[bv.Buffer]
	if buf == nil {
		return acc, nil, 0, errExternalBuffer
	}

	elem := componentSize(acc.ComponentType) * componentCount(acc.Type)
	if elem == 0 {
		return acc, nil, 0, fmt.Errorf("accessor %d: unsupported layout %s/%d", accIdx, acc.Type, acc.ComponentType)
	}
	stride := bv.ByteStride
	if stride == 0 {
		stride = elem
	}
	start := bv.ByteOffset + acc.ByteOffset
	end := start
	if acc.Count > 0 {
		end = start + (acc.Count-1)*stride + elem
	}
	if start < 0 || end > bv.ByteOffset+bv.ByteLength || end > len(buf) {
		return acc, nil, 0, fmt.Errorf("accessor %d exceeds its buffer view", accIdx)
	}
	return acc, buf[start:end], stride, nil
}

// floats reads a float accessor, accepting normalized unsigned integers for texture coordinates.
func (g *gltfGeometry) floats(accIdx int, wantType string) ([]float32, error) {
	acc, data, stride, err := g.view(accIdx)
	if err != nil {
		return nil, err
	}
	if acc.Type != wantType {
		return nil, fmt.Errorf("accessor %d: want %s, got %s", accIdx, wantType, acc.Type)
	}
	if acc.ComponentType != gltfFloat && !acc.Normalized {
		return nil, fmt.Errorf("accessor %d: component type %d is not float", accIdx, acc.ComponentType)
	}

	n := componentCount(acc.Type)
	size := componentSize(acc.ComponentType)
	out := make([]float32, 0, acc.Count*n)
	for e := range acc.Count {
		for c := range n {
			off := e*stride + c*size
			switch acc.ComponentType {
			case gltfFloat:
				out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(data[off:])))
			case gltfUnsignedByte:
				out = append(out, float32(data[off])/255)
			case gltfUnsignedShort:
				out = append(out, float32(binary.LittleEndian.Uint16(data[off:]))/65535)
			default:
				return nil, fmt.Errorf("accessor %d: unsupported normalized component type %d", accIdx, acc.ComponentType)
			}
		}
	}
	return out, nil
}

func (g *gltfGeometry) indices(accIdx int) ([]uint32, error) {
	acc, data, stride, err := g.view(accIdx)
	if err != nil {
		return nil, err
	}
	if acc.Type != "SCALAR" {
		return nil, fmt.Errorf("accessor %d: want SCALAR, got %s", accIdx, acc.Type)
	}
	out := make([]uint32, acc.Count)
	for e := range acc.Count {
		off := e * stride
		switch acc.ComponentType {
		case gltfUnsignedByte:
			out[e] = uint32(data[off])
		case gltfUnsignedShort:
			out[e] = uint32(binary.LittleEndian.Uint16(data[off:]))
		case gltfUnsignedInt:
			out[e] = binary.LittleEndian.Uint32(data[off:])
		default:
			return nil, fmt.Errorf("accessor %d: unsupported index component type %d", accIdx, acc.ComponentType)
		}
	}
	return out, nil
}

func componentSize(componentType int) int {
	switch componentType {
	case gltfUnsignedByte:
		return 1
	case gltfUnsignedShort:
		return 2
	case gltfUnsignedInt, gltfFloat:
		return 4
	default:
		return 0
	}
}

func componentCount(accessorType string) int {
	switch accessorType {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4":
		return 4
	default:
		return 0
	}
}
