// Package loadertest builds small glTF payloads for tests of packages that consume loaded models.
package loadertest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
)

// Node describes one node of a synthetic scene.
type Node struct {
	Name        string
	Translation *[3]float32
	Children    []Node
}

type jsonNode struct {
	Name        string      `json:"name,omitempty"`
	Children    []int       `json:"children,omitempty"`
	Translation *[3]float32 `json:"translation,omitempty"`
}

// JSON returns a glTF 2.0 JSON document whose default scene contains roots.
//
// Parameters:
//   - scene: the scene name, may be empty
//   - roots: the root nodes
//
// Returns:
//   - []byte: the document
func JSON(scene string, roots ...Node) []byte {
	var nodes []jsonNode
	var add func(n Node) int
	add = func(n Node) int {
		idx := len(nodes)
		nodes = append(nodes, jsonNode{Name: n.Name, Translation: n.Translation})
		var children []int
		for _, c := range n.Children {
			children = append(children, add(c))
		}
		nodes[idx].Children = children
		return idx
	}
	var rootIdx []int
	for _, r := range roots {
		rootIdx = append(rootIdx, add(r))
	}

	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0", "generator": "loadertest"},
		"scene":  0,
		"scenes": []any{map[string]any{"name": scene, "nodes": rootIdx}},
		"nodes":  nodes,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

// GLB wraps the JSON document produced by JSON in a GLB container with an empty BIN chunk.
//
// Parameters:
//   - scene: the scene name, may be empty
//   - roots: the root nodes
//
// Returns:
//   - []byte: the GLB payload
func GLB(scene string, roots ...Node) []byte {
	return container(JSON(scene, roots...), make([]byte, 4))
}

// TriangleGLB returns a GLB whose single node, named node, references a one-triangle mesh with
// float positions, float texture coordinates and unsigned short indices.
//
// Parameters:
//   - node: the node name
//
// Returns:
//   - []byte: the GLB payload
func TriangleGLB(node string) []byte {
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	uvs := []float32{0, 0, 1, 0, 0, 1}
	indices := []uint16{0, 1, 2, 0}

	var bin bytes.Buffer
	_ = binary.Write(&bin, binary.LittleEndian, positions)
	_ = binary.Write(&bin, binary.LittleEndian, uvs)
	_ = binary.Write(&bin, binary.LittleEndian, indices)

	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"nodes":  []any{map[string]any{"name": node, "mesh": 0}},
		"meshes": []any{map[string]any{
			"name": node + "Mesh",
			"primitives": []any{map[string]any{
				"attributes": map[string]int{"POSITION": 0, "TEXCOORD_0": 1},
				"indices":    2,
			}},
		}},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
			map[string]any{"bufferView": 1, "componentType": 5126, "count": 3, "type": "VEC2"},
			map[string]any{"bufferView": 2, "componentType": 5123, "count": 3, "type": "SCALAR"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			map[string]any{"buffer": 0, "byteOffset": 36, "byteLength": 24},
			map[string]any{"buffer": 0, "byteOffset": 60, "byteLength": 6},
		},
		"buffers": []any{map[string]any{"byteLength": bin.Len()}},
	}
	js, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return container(js, bin.Bytes())
}

func container(js, bin []byte) []byte {
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}
	var buf bytes.Buffer
	total := 12 + 8 + len(js) + 8 + len(bin)
	_ = binary.Write(&buf, binary.LittleEndian, []uint32{0x46546C67, 2, uint32(total)})
	_ = binary.Write(&buf, binary.LittleEndian, []uint32{uint32(len(js)), 0x4E4F534A})
	buf.Write(js)
	_ = binary.Write(&buf, binary.LittleEndian, []uint32{uint32(len(bin)), 0x004E4942})
	buf.Write(bin)
	return buf.Bytes()
}
