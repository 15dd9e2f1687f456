package source

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExt(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"models/Liz77-building.glb", ".glb"},
		{"models/bakedFence(purple2).jpg", ".jpg"},
		{"models/fence.JPG.lz4", ".jpg"},
		{"https://cdn.example.com/a/b.gltf?v=2", ".gltf"},
		{"noext", ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, Ext(tt.src))
		})
	}
}

func TestResolve(t *testing.T) {
	local := NewFetcher(WithRoot("static"))
	assert.Equal(t, filepath.Join("static", "models", "a.glb"), local.Resolve("models/a.glb"))
	assert.Equal(t, "https://x.test/a.glb", local.Resolve("https://x.test/a.glb"))

	remote := NewFetcher(WithRoot("https://cdn.test/station/"))
	assert.Equal(t, "https://cdn.test/station/models/a.glb", remote.Resolve("models/a.glb"))
}

func TestFetchFileReportsProgress(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte("station"), 1000)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), payload, 0o644))

	f := NewFetcher(WithRoot(dir), WithChunkSize(1024))

	var last, total int64
	calls := 0
	data, err := f.Fetch(context.Background(), "a.bin", func(read, tot int64) {
		assert.GreaterOrEqual(t, read, last)
		last, total = read, tot
		calls++
	})
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, int64(len(payload)), last)
	assert.Equal(t, int64(len(payload)), total)
	assert.Greater(t, calls, 1)
}

func TestFetchDecompressesLZ4(t *testing.T) {
	dir := t.TempDir()
	payload := bytes.Repeat([]byte("baked texture "), 512)

	var compressed bytes.Buffer
	w := lz4.NewWriter(&compressed)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tex.png.lz4"), compressed.Bytes(), 0o644))

	data, err := NewFetcher(WithRoot(dir)).Fetch(context.Background(), "tex.png.lz4", nil)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/a.glb" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("glTF"))
	}))
	defer srv.Close()

	f := NewFetcher(WithRoot(srv.URL), WithHTTPClient(srv.Client()))

	data, err := f.Fetch(context.Background(), "models/a.glb", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("glTF"), data)

	_, err = f.Fetch(context.Background(), "models/missing.glb", nil)
	assert.ErrorIs(t, err, ErrHTTPStatus)
}

func TestFetchMissingFile(t *testing.T) {
	_, err := NewFetcher(WithRoot(t.TempDir())).Fetch(context.Background(), "nope.glb", nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher().Fetch(ctx, "a.glb", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
