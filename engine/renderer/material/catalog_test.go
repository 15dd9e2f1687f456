package material

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/common"
	"github.com/Carmen-Shannon/oxy-station/engine/manifest"
	"github.com/Carmen-Shannon/oxy-station/engine/texture"
)

type stubTexture struct {
	texture.Texture
	name string
}

func (s stubTexture) Name() string { return s.name }

type stubTextures map[string]texture.Texture

func (s stubTextures) Get(name string) (texture.Texture, error) {
	t, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", texture.ErrUnknownTexture, name)
	}
	return t, nil
}

func defaultTextures(m *manifest.Manifest) stubTextures {
	out := stubTextures{}
	for _, t := range m.Textures {
		out[t.Name] = stubTexture{name: t.Name}
	}
	return out
}

func TestCatalogFromDefaultManifest(t *testing.T) {
	m, err := manifest.Default()
	require.NoError(t, err)

	cat, err := CatalogFromManifest(m.Materials, defaultTextures(m))
	require.NoError(t, err)
	assert.Equal(t, 17, cat.Len())

	tests := []struct {
		name    string
		kind    Kind
		color   uint32
		side    Side
		opacity float32
		texture string
	}{
		{name: "bakedTeslaBody", kind: KindTextured, color: 0xffffff, texture: "teslaBody", opacity: 1},
		{name: "carWindows", kind: KindFlat, color: 0x000000, opacity: 1},
		{name: "bakedBuilding", kind: KindTextured, color: 0xffffff, side: SideDouble, texture: "building", opacity: 1},
		{name: "bakedItems", kind: KindTextured, color: 0xffffff, side: SideDouble, texture: "items", opacity: 1},
		{name: "whiteLight", kind: KindEmissive, color: 0xe7effd, opacity: 1},
		{name: "purpleLight", kind: KindEmissive, color: 0xfbe9fd, opacity: 1},
		{name: "blueLight", kind: KindEmissive, color: 0x97fcfd, opacity: 1},
		{name: "logoLight", kind: KindEmissive, color: 0x97fcfd, opacity: 1},
		{name: "windowLight", kind: KindEmissive, color: 0xdafefe, opacity: 1},
		{name: "orangeLight", kind: KindEmissive, color: 0xfced8d, opacity: 1},
		{name: "sunMaterial", kind: KindTransparentMask, color: 0x030303, opacity: 0.02},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mat, err := cat.Get(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, mat.Kind())
			assert.Equal(t, tt.color, mat.Color().Hex())
			assert.Equal(t, tt.side, mat.Side())
			assert.InDelta(t, tt.opacity, mat.Opacity(), 1e-6)
			if tt.texture == "" {
				assert.Nil(t, mat.Texture())
			} else {
				require.NotNil(t, mat.Texture())
				assert.Equal(t, tt.texture, mat.Texture().Name())
			}
		})
	}

	sun, _ := cat.Get("sunMaterial")
	assert.True(t, sun.Transparent())
	body, _ := cat.Get("bakedTeslaBody")
	assert.False(t, body.Transparent())
}

func TestCatalogUnknownMaterial(t *testing.T) {
	cat, err := NewCatalog(NewMaterial(WithName("a")))
	require.NoError(t, err)
	_, err = cat.Get("b")
	assert.ErrorIs(t, err, ErrUnknownMaterial)
}

func TestCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog(NewMaterial(WithName("a")), NewMaterial(WithName("a")))
	assert.ErrorIs(t, err, ErrDuplicateMaterial)
}

func TestCatalogMissingTexture(t *testing.T) {
	defs := []manifest.Material{{Name: "m", Kind: manifest.KindTextured, Texture: "gone"}}
	_, err := CatalogFromManifest(defs, stubTextures{})
	assert.ErrorIs(t, err, texture.ErrUnknownTexture)
}

func TestNewMaterialClampsOpacity(t *testing.T) {
	m := NewMaterial(WithName("x"), WithOpacity(3))
	assert.Equal(t, float32(1), m.Opacity())
	m = NewMaterial(WithName("y"), WithOpacity(-1))
	assert.Equal(t, float32(0), m.Opacity())
}

func TestGPUParams(t *testing.T) {
	m := NewMaterial(WithName("sun"), WithColor(KindTransparentMask, common.ColorFromHex(0x030303)), WithOpacity(0.02), WithSide(SideDouble))
	p := GPUParams(m)

	assert.InDelta(t, 0.02, p.Color[3], 1e-6)
	assert.Equal(t, [4]float32{float32(KindTransparentMask), 1, 0, 1}, p.Flags)
	assert.Len(t, p.Marshal(), p.Size())
}
