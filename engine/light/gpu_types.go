package light

import (
	_ "embed"
	"encoding/binary"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-station/common"
)

// GPULightSource declares the Light struct bound next to the camera at group 0.
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight mirrors the WGSL Light struct. A disabled light is uploaded with Enabled and
// Intensity both zero so the binding never changes shape.
// Size: 32 bytes.
type GPULight struct {
	Position  [3]float32 // offset  0
	Enabled   uint32     // offset 12: 1 when the light is on
	Color     [3]float32 // offset 16: linear RGB
	Intensity float32    // offset 28
}

// Size returns the uniform size in bytes (32).
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal packs the light for a queue write.
//
// Returns:
//   - []byte: the packed light
func (g *GPULight) Marshal() []byte {
	buf := common.PutFloat32s(make([]byte, g.Size()), 0, g.Position[:]...)
	binary.LittleEndian.PutUint32(buf[12:], g.Enabled)
	return common.PutFloat32s(buf, 16, g.Color[0], g.Color[1], g.Color[2], g.Intensity)
}
