package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/model"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/material"
)

// Sun proxy geometry. The sphere is generated by the renderer; only its parameters live here.
const (
	SunRadius         float32 = 5
	SunWidthSegments          = 32
	SunHeightSegments         = 32
	// SunRotationY is the proxy's Y rotation in radians.
	SunRotationY float32 = 45
)

// SunMaterialName is the catalog entry that seeds the proxy's color and opacity.
const SunMaterialName = "sunMaterial"

// Sun is the light-occluder proxy the god rays pass radiates from. It is positioned
// independently of every loaded asset.
type Sun struct {
	lock    sync.Locker
	node    *model.Node
	color   common.Color
	opacity float32
}

// NewSun creates the proxy at (-7, 5, -7). The base material supplies the initial color and
// opacity; nil means 0x030303 at opacity 0.02.
//
// Parameters:
//   - base: the proxy material, usually the SunMaterialName entry of the manifest
//
// Returns:
//   - *Sun: the proxy
func NewSun(base material.Material) *Sun {
	s := &Sun{
		lock:    &sync.Mutex{},
		node:    model.NewNode("sun"),
		color:   common.ColorFromHex(0x030303),
		opacity: 0.02,
	}
	if base != nil {
		s.color = base.Color()
		s.opacity = base.Opacity()
	}
	s.node.Position = [3]float32{-7, 5, -7}
	s.node.Rotation[1] = SunRotationY
	s.node.Material = sunMaterial(s.color, s.opacity)
	return s
}

// Node returns the proxy's scene node.
func (s *Sun) Node() *model.Node {
	return s.node
}

// Position returns the proxy's world position.
func (s *Sun) Position() [3]float32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.node.Position
}

// Color returns the proxy color.
func (s *Sun) Color() common.Color {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.color
}

// Opacity returns the proxy opacity.
func (s *Sun) Opacity() float32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.opacity
}

// SetColor recolors the proxy. Materials are immutable, so the node gets a new one.
func (s *Sun) SetColor(c common.Color) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.color = c
	s.node.Material = sunMaterial(s.color, s.opacity)
}

// SetOpacity changes the proxy opacity, clamped to [0, 1].
func (s *Sun) SetOpacity(o float32) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.opacity = common.Clamp(o, 0, 1)
	s.node.Material = sunMaterial(s.color, s.opacity)
}
