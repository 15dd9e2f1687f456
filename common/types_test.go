package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewport_DrawingBufferSizeCapsPixelRatio(t *testing.T) {
	tests := []struct {
		name     string
		vp       Viewport
		ratioCap float32
		wantW    int
		wantH    int
		wantPR   float32
	}{
		{"standard", Viewport{Width: 1280, Height: 720, DevicePixelRatio: 1}, 0, 1280, 720, 1},
		{"retina", Viewport{Width: 1280, Height: 720, DevicePixelRatio: 2}, 0, 2560, 1440, 2},
		{"capped", Viewport{Width: 400, Height: 800, DevicePixelRatio: 3.5}, 0, 800, 1600, 2},
		{"configured cap", Viewport{Width: 400, Height: 800, DevicePixelRatio: 3}, 1.5, 600, 1200, 1.5},
		{"cap above ratio", Viewport{Width: 10, Height: 10, DevicePixelRatio: 1}, 2, 10, 10, 1},
		{"missing ratio", Viewport{Width: 10, Height: 10}, 0, 10, 10, 1},
		{"hidden", Viewport{Width: 0, Height: 720, DevicePixelRatio: 2}, 0, 0, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ratio := tt.vp.DrawingBufferSize(tt.ratioCap)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.Equal(t, tt.wantPR, ratio)
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-3, 0, 5))
	assert.Equal(t, 5, Clamp(9, 0, 5))
	assert.Equal(t, float32(0.25), Clamp(float32(0.25), 0, 1))
}
