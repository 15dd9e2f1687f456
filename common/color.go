package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Color is an RGB color with float components in [0, 1].
type Color struct {
	R, G, B float32
}

// ColorFromHex builds a Color from a packed 0xRRGGBB value.
//
// Parameters:
//   - hex: the packed color
//
// Returns:
//   - Color: the unpacked color
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float32((hex>>16)&0xff) / 255,
		G: float32((hex>>8)&0xff) / 255,
		B: float32(hex&0xff) / 255,
	}
}

// ParseHexColor parses "#rrggbb", "rrggbb" or "0xrrggbb".
//
// Parameters:
//   - s: the textual color
//
// Returns:
//   - Color: the parsed color
//   - error: error if s is not a 6-digit hex color
func ParseHexColor(s string) (Color, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#"), "0x")
	if len(trimmed) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return ColorFromHex(uint32(v)), nil
}

// Hex packs the color into 0xRRGGBB, rounding each channel.
func (c Color) Hex() uint32 {
	pack := func(v float32) uint32 {
		return uint32(math32.Round(Clamp(v, 0, 1) * 255))
	}
	return pack(c.R)<<16 | pack(c.G)<<8 | pack(c.B)
}

// String renders the color as "#rrggbb".
func (c Color) String() string {
	return fmt.Sprintf("#%06x", c.Hex())
}

// SRGBToLinear converts sRGB-encoded components to linear light.
func (c Color) SRGBToLinear() Color {
	return Color{R: srgbToLinear(c.R), G: srgbToLinear(c.G), B: srgbToLinear(c.B)}
}

// LinearToSRGB converts linear components to sRGB encoding.
func (c Color) LinearToSRGB() Color {
	return Color{R: linearToSRGB(c.R), G: linearToSRGB(c.G), B: linearToSRGB(c.B)}
}

// RGBA returns the color as a 4-component array with the given alpha.
func (c Color) RGBA(alpha float32) [4]float32 {
	return [4]float32{c.R, c.G, c.B, alpha}
}

func srgbToLinear(v float32) float32 {
	if v < 0.04045 {
		return v * 0.0773993808
	}
	return math32.Pow(v*0.9478672986+0.0521327014, 2.4)
}

func linearToSRGB(v float32) float32 {
	if v < 0.0031308 {
		return v * 12.92
	}
	return 1.055*math32.Pow(v, 0.41666) - 0.055
}
