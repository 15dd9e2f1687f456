package pipeline

import (
	_ "embed"
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/camera"
	"github.com/Carmen-Shannon/oxy-station/engine/light"
	"github.com/Carmen-Shannon/oxy-station/engine/model"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/material"
)

// Shader sources for each stage of the chain. Every post-processing shader draws a single
// fullscreen triangle and samples the previous stage's color buffer at group 0.
var (
	//go:embed assets/base.wgsl
	BaseShaderSource string

	//go:embed assets/bloom.wgsl
	BloomShaderSource string

	//go:embed assets/godrays.wgsl
	GodRaysShaderSource string

	//go:embed assets/smaa.wgsl
	SMAAShaderSource string
)

// BaseProgram is the base pass shader with the canonical uniform struct definitions prepended,
// so the Go-side layouts and the WGSL declarations come from one place.
var BaseProgram = strings.Join([]string{
	camera.GPUCameraUniformSource,
	light.GPULightSource,
	model.GPUNodeDataSource,
	material.GPUMaterialParamsSource,
	BaseShaderSource,
}, "\n")

// GPUBloomUniform is the GPU-aligned uniform block of the bloom pass.
// Size: 32 bytes (two vec4<f32>).
type GPUBloomUniform struct {
	Threshold float32    // offset  0: luminance threshold
	Smoothing float32    // offset  4: threshold smoothing width
	Intensity float32    // offset  8: bloom strength added to the input
	Opacity   float32    // offset 12: blend opacity of the bloom result
	Filter    float32    // offset 16: 1 when the luminance filter runs, else 0
	BlurScale float32    // offset 20: blur buffer scale relative to the drawing buffer
	TexelSize [2]float32 // offset 24: 1/width, 1/height of the blur buffer
}

// Size returns the size of the GPUBloomUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUBloomUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBloomUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUBloomUniform) Marshal() []byte {
	return common.PutFloat32s(make([]byte, g.Size()), 0,
		g.Threshold, g.Smoothing, g.Intensity, g.Opacity,
		g.Filter, g.BlurScale, g.TexelSize[0], g.TexelSize[1])
}

// GPUGodRaysUniform is the GPU-aligned uniform block of the volumetric light pass.
// Size: 48 bytes (three vec4<f32>).
type GPUGodRaysUniform struct {
	LightPosition [2]float32 // offset  0: sun position in screen UV space
	Density       float32    // offset  8
	Decay         float32    // offset 12
	Weight        float32    // offset 16
	Exposure      float32    // offset 20
	ClampMax      float32    // offset 24
	Samples       float32    // offset 28: ray march sample count
	Kernel        float32    // offset 32: blur kernel size, 0 disables the blur
	LightOpacity  float32    // offset 36: opacity of the composited rays
	_pad          [2]float32 // offset 40: padding to 48 bytes
}

// Size returns the size of the GPUGodRaysUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUGodRaysUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUGodRaysUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUGodRaysUniform) Marshal() []byte {
	return common.PutFloat32s(make([]byte, g.Size()), 0,
		g.LightPosition[0], g.LightPosition[1], g.Density, g.Decay,
		g.Weight, g.Exposure, g.ClampMax, g.Samples,
		g.Kernel, g.LightOpacity)
}

// GPUSMAAUniform is the GPU-aligned uniform block of the SMAA pass.
// Size: 32 bytes (two vec4<f32>).
type GPUSMAAUniform struct {
	RTMetrics      [4]float32 // offset  0: 1/width, 1/height, width, height
	EdgeThreshold  float32    // offset 16: luma edge detection threshold
	MaxSearchSteps float32    // offset 20: blending weight search distance
	_pad           [2]float32 // offset 24: padding to 32 bytes
}

// Size returns the size of the GPUSMAAUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUSMAAUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSMAAUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUSMAAUniform) Marshal() []byte {
	return common.PutFloat32s(make([]byte, g.Size()), 0,
		g.RTMetrics[0], g.RTMetrics[1], g.RTMetrics[2], g.RTMetrics[3],
		g.EdgeThreshold, g.MaxSearchSteps)
}
