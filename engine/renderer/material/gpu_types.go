package material

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-station/common"
)

// GPUMaterialParamsSource is the canonical WGSL definition of the MaterialParams struct.
// Matches GPUMaterialParams layout exactly (32 bytes, std430 aligned).
//
//go:embed assets/material_params.wgsl
var GPUMaterialParamsSource string

// GPUMaterialParams is the GPU-aligned per-material uniform consumed by the base pass.
// Size: 32 bytes (two vec4<f32>, std430 aligned).
type GPUMaterialParams struct {
	Color [4]float32 // offset  0: linear RGB + opacity (16 bytes)
	Flags [4]float32 // offset 16: kind, double sided, textured, transparent (16 bytes)
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUMaterialParams) Marshal() []byte {
	buf := common.PutFloat32s(make([]byte, g.Size()), 0, g.Color[:]...)
	return common.PutFloat32s(buf, 16, g.Flags[:]...)
}

// GPUParams packs the material into its uniform representation. Colors are converted from sRGB
// to linear because the base pass shades in linear space.
//
// Parameters:
//   - m: the material to pack
//
// Returns:
//   - GPUMaterialParams: the packed uniform
func GPUParams(m Material) GPUMaterialParams {
	c := m.Color().SRGBToLinear()
	var double, textured, transparent float32
	if m.Side() == SideDouble {
		double = 1
	}
	if m.Texture() != nil {
		textured = 1
	}
	if m.Transparent() {
		transparent = 1
	}
	return GPUMaterialParams{
		Color: c.RGBA(m.Opacity()),
		Flags: [4]float32{float32(m.Kind()), double, textured, transparent},
	}
}
