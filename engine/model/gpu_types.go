package model

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-station/common"
)

// GPUNodeDataSource is the canonical WGSL definition of the NodeData struct for per-node world matrices.
// Matches GPUNodeData layout exactly (64 bytes, std430 aligned).
//
//go:embed assets/node_data.wgsl
var GPUNodeDataSource string

// GPUNodeData is the GPU-aligned representation of a single node's world matrix.
// Size: 64 bytes (mat4x4<f32> = 16 × float32, std430 aligned, no padding required).
type GPUNodeData struct {
	Model [16]float32 // offset 0: 4×4 node-to-world transform matrix (64 bytes)
}

// Size returns the size of the GPUNodeData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUNodeData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUNodeData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUNodeData) Marshal() []byte {
	return common.PutFloat32s(make([]byte, g.Size()), 0, g.Model[:]...)
}
