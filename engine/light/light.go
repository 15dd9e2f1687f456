// Package light holds the station's single point light. Baked surfaces carry their own lighting,
// so the light only shades flat materials; the volumetric light pass recolors it together with
// the sun.
package light

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-station/common"
)

// Light is the scene's point light. The control surface recolors it while the frame loop
// reads it, so every method is safe for concurrent use.
type Light interface {
	// Position returns the world-space position.
	Position() [3]float32

	// Color returns the sRGB color.
	Color() common.Color

	// Intensity returns the stored intensity, regardless of whether the light is enabled.
	Intensity() float32

	// Enabled reports whether the light contributes to shading.
	Enabled() bool

	// SetColor recolors the light.
	//
	// Parameters:
	//   - c: the new sRGB color
	SetColor(c common.Color)

	// SetIntensity sets the intensity. Negative values are stored as 0.
	//
	// Parameters:
	//   - intensity: the new intensity
	SetIntensity(intensity float32)

	// SetEnabled switches the light on or off without losing its intensity.
	SetEnabled(enabled bool)

	// GPU snapshots the light for upload, with the color in linear space.
	//
	// Returns:
	//   - GPULight: the uniform record
	GPU() GPULight
}

type pointLight struct {
	mu        sync.RWMutex
	position  [3]float32
	color     common.Color
	intensity float32
	enabled   bool
}

var _ Light = &pointLight{}

// NewLight creates a point light: white, intensity 1, enabled and at the origin unless options
// say otherwise.
//
// Parameters:
//   - options: LightBuilderOption functions applied in order
//
// Returns:
//   - Light: the light
func NewLight(options ...LightBuilderOption) Light {
	l := &pointLight{
		color:     common.Color{R: 1, G: 1, B: 1},
		intensity: 1,
		enabled:   true,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *pointLight) Position() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

func (l *pointLight) Color() common.Color {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color
}

func (l *pointLight) Intensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.intensity
}

func (l *pointLight) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

func (l *pointLight) SetColor(c common.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = c
}

func (l *pointLight) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = max(intensity, 0)
}

func (l *pointLight) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *pointLight) GPU() GPULight {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lc := l.color.SRGBToLinear()
	g := GPULight{
		Position: l.position,
		Color:    [3]float32{lc.R, lc.G, lc.B},
	}
	if l.enabled {
		g.Enabled = 1
		g.Intensity = l.intensity
	}
	return g
}
