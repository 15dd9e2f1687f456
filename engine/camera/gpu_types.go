package camera

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-station/common"
)

// GPUCameraUniformSource declares the CameraUniform struct bound at group 0 of the base pass.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform mirrors CameraUniform: the orbit camera's view-projection (including the
// portrait view offset) followed by its world-space eye position.
// Size: 80 bytes.
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset  0
	CameraPosition [3]float32  // offset 64
	_pad           float32
}

// Size returns the uniform size in bytes (80).
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal packs the uniform for a queue write.
//
// Returns:
//   - []byte: the packed uniform
func (g *GPUCameraUniform) Marshal() []byte {
	buf := common.PutFloat32s(make([]byte, g.Size()), 0, g.ViewProj[:]...)
	return common.PutFloat32s(buf, 64, g.CameraPosition[:]...)
}
