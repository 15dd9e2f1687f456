package texture

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/engine/manifest"
	"github.com/Carmen-Shannon/oxy-station/engine/source"
)

type recordingProgress struct {
	mu      sync.Mutex
	started []string
	done    []string
	failed  map[string]error
}

func (p *recordingProgress) ItemStart(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, id)
}

func (p *recordingProgress) ItemDone(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = append(p.done, id)
}

func (p *recordingProgress) ItemFailed(id string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed == nil {
		p.failed = map[string]error{}
	}
	p.failed[id] = err
}

// writePNG writes a 2x2 image whose top row is red and bottom row is blue.
func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
		img.Set(x, 1, color.NRGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestRegistryLoad(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "models", "bakedFence(purple2).png"))
	writePNG(t, filepath.Join(dir, "models", "bakedLines(purple).png"))

	progress := &recordingProgress{}
	reg := NewRegistry(
		WithFetcher(source.NewFetcher(source.WithRoot(dir))),
		WithWorkers(2),
	)

	err := reg.Load(context.Background(), progress,
		Spec{Name: "fence", Source: "models/bakedFence(purple2).png", SRGB: true},
		Spec{Name: "lines", Source: "models/bakedLines(purple).png", SRGB: true},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"fence", "lines"}, reg.Names())
	assert.ElementsMatch(t, []string{ItemID("fence"), ItemID("lines")}, progress.started)
	assert.ElementsMatch(t, []string{ItemID("fence"), ItemID("lines")}, progress.done)

	tex, err := reg.Get("fence")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tex.Width())
	assert.Equal(t, uint32(2), tex.Height())
	assert.True(t, tex.SRGB())
	assert.False(t, tex.FlipY())

	pix := tex.Staging().Pixels
	require.Len(t, pix, 16)
	assert.Equal(t, []byte{255, 0, 0, 255}, pix[0:4], "top row stays first without flip")
}

func TestRegistryFlipY(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))

	reg := NewRegistry(WithFetcher(source.NewFetcher(source.WithRoot(dir))))
	require.NoError(t, reg.Load(context.Background(), nil, Spec{Name: "a", Source: "a.png", FlipY: true}))

	tex, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 255, 255}, tex.Staging().Pixels[0:4])
}

func TestRegistryLoadFailureIsTagged(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "ok.png"))

	progress := &recordingProgress{}
	reg := NewRegistry(WithFetcher(source.NewFetcher(source.WithRoot(dir))))

	err := reg.Load(context.Background(), progress,
		Spec{Name: "ok", Source: "ok.png"},
		Spec{Name: "missing", Source: "missing.png"},
	)
	require.Error(t, err)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "missing", lerr.Name)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.Contains(t, progress.failed, ItemID("missing"))
	assert.Equal(t, []string{ItemID("ok")}, progress.done)

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownTexture)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	reg := NewRegistry(WithFetcher(source.NewFetcher(source.WithRoot(dir))))

	err := reg.Load(context.Background(), nil, Spec{Name: "a", Source: "a.png"}, Spec{Name: "a", Source: "a.png"})
	assert.ErrorIs(t, err, ErrDuplicateTexture)

	require.NoError(t, reg.Load(context.Background(), nil, Spec{Name: "a", Source: "a.png"}))
	err = reg.Load(context.Background(), nil, Spec{Name: "a", Source: "a.png"})
	assert.ErrorIs(t, err, ErrDuplicateTexture)
}

func TestRegistryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reg := NewRegistry()
	err := reg.Load(ctx, nil, Spec{Name: "a", Source: "a.png"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSpecsFromManifest(t *testing.T) {
	m, err := manifest.Default()
	require.NoError(t, err)

	specs := SpecsFromManifest(m.Textures)
	require.Len(t, specs, 9)
	for _, s := range specs {
		assert.True(t, s.SRGB, s.Name)
		assert.False(t, s.FlipY, s.Name)
	}
}

func TestDecodeDDS(t *testing.T) {
	data := make([]byte, ddsHeaderSize+8)
	copy(data, ddsMagic)
	binary.LittleEndian.PutUint32(data[4:], 124)
	binary.LittleEndian.PutUint32(data[ddsHeightOffset:], 4)
	binary.LittleEndian.PutUint32(data[ddsWidthOffset:], 4)
	copy(data[ddsFourCCOffset:], "DXT1")
	// one block, both endpoints white, all indices zero
	binary.LittleEndian.PutUint16(data[ddsHeaderSize:], 0xffff)
	binary.LittleEndian.PutUint16(data[ddsHeaderSize+2:], 0xffff)

	staging, err := decodeRGBA(data, false, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), staging.Width)
	assert.Equal(t, uint32(4), staging.Height)
	assert.Len(t, staging.Pixels, 4*4*4)
	assert.Greater(t, staging.Pixels[0], byte(240))
}

func TestDecodeDDSRejectsUnknownFourCC(t *testing.T) {
	data := make([]byte, ddsHeaderSize+16)
	copy(data, ddsMagic)
	copy(data[ddsFourCCOffset:], "ATI2")
	_, err := decodeRGBA(data, false, true)
	assert.ErrorIs(t, err, errUnsupportedDDS)
}
