package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/engine/loader/loadertest"
	"github.com/Carmen-Shannon/oxy-station/engine/source"
)

func vehicleTree() loadertest.Node {
	return loadertest.Node{
		Name:        "Tesla",
		Translation: &[3]float32{0, 1, 0},
		Children: []loadertest.Node{
			{Name: "Body"},
			{Name: "CarWindows"},
		},
	}
}

func TestDecodeGLB(t *testing.T) {
	l := NewLoader()
	m, err := l.Decode("models/Liz77_teslaBody.glb", loadertest.GLB("", vehicleTree()))
	require.NoError(t, err)

	assert.Equal(t, "Liz77_teslaBody", m.Name())
	assert.Equal(t, 4, m.Root().Count())

	windows := m.Find("CarWindows")
	require.NotNil(t, windows)
	assert.Equal(t, "Tesla", windows.Parent().Name)
	assert.Equal(t, [3]float32{0, 1, 0}, windows.Parent().Position)
}

func TestDecodeGLTFUsesSceneName(t *testing.T) {
	m, err := NewLoader().Decode("a.gltf", loadertest.JSON("Station", vehicleTree()))
	require.NoError(t, err)
	assert.Equal(t, "Station", m.Name())
	assert.Equal(t, "Station", m.Root().Name)
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		src  string
		data []byte
		want error
	}{
		{"unknown extension", "a.obj", []byte("o cube"), ErrUnsupportedFormat},
		{"wrong version", "a.gltf", []byte(`{"asset":{"version":"1.0"}}`), errInvalidGLTFVersion},
		{"bad magic version", "a.glb", append([]byte{0x67, 0x6C, 0x54, 0x46, 1, 0, 0, 0}, make([]byte, 4)...), errInvalidGLBVersion},
		{"cycle", "a.gltf", []byte(`{"asset":{"version":"2.0"},"scenes":[{"nodes":[0]}],"nodes":[{"children":[1]},{"children":[0]}]}`), errNodeCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Decode(tt.src, tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeOutOfRangeChild(t *testing.T) {
	_, err := NewLoader().Decode("a.gltf", []byte(`{"asset":{"version":"2.0"},"nodes":[{"children":[5]}]}`))
	assert.ErrorContains(t, err, "out of range")
}

func TestDecodeSceneless(t *testing.T) {
	doc := `{"asset":{"version":"2.0"},"nodes":[{"name":"A","children":[1]},{"name":"B"},{"name":"C"}]}`
	m, err := NewLoader().Decode("x.gltf", []byte(doc))
	require.NoError(t, err)
	names := []string{}
	for _, c := range m.Root().Children() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"A", "C"}, names)
}

func TestLoadCachesBySource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fence.glb"), loadertest.GLB("", loadertest.Node{Name: "Fence"}), 0o644))

	l := NewLoader(WithFetcher(source.NewFetcher(source.WithRoot(dir))))

	var reported int64
	m1, err := l.Load(context.Background(), "fence.glb", func(read, _ int64) { reported = read })
	require.NoError(t, err)
	assert.Positive(t, reported)

	require.NoError(t, os.Remove(filepath.Join(dir, "fence.glb")))
	m2, err := l.Load(context.Background(), "fence.glb", nil)
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Same(t, m1, l.Get("fence.glb"))
}

func TestLoadCompressedPayload(t *testing.T) {
	dir := t.TempDir()
	var compressed bytes.Buffer
	w := lz4.NewWriter(&compressed)
	_, err := w.Write(loadertest.GLB("", loadertest.Node{Name: "Tank"}))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tanks.glb.lz4"), compressed.Bytes(), 0o644))

	l := NewLoader(WithFetcher(source.NewFetcher(source.WithRoot(dir))))
	m, err := l.Load(context.Background(), "tanks.glb.lz4", nil)
	require.NoError(t, err)
	assert.Equal(t, "tanks", m.Name())
	assert.NotNil(t, m.Find("Tank"))
}

func TestDecodeGeometry(t *testing.T) {
	m, err := NewLoader().Decode("sign.glb", loadertest.TriangleGLB("Sign"))
	require.NoError(t, err)

	sign := m.Find("Sign")
	require.NotNil(t, sign)
	require.NotNil(t, sign.Geometry)
	assert.Equal(t, 0, sign.Mesh)
	assert.Same(t, m.Meshes()[0].Data, sign.Geometry)

	g := sign.Geometry
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, g.Positions)
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1}, g.UVs)
	assert.Empty(t, g.Normals)
	assert.Equal(t, []uint32{0, 1, 2}, g.Indices)
	assert.Equal(t, 3, m.Meshes()[0].Vertices)
}

func TestDecodeGeometryOutOfRangeAccessor(t *testing.T) {
	doc := &gltfDocument{
		Meshes: []gltfMesh{{Primitives: []gltfPrimitive{{Attributes: map[string]int{"POSITION": 3}}}}},
	}
	_, err := newGLTFGeometry(doc, nil).mesh(0)
	assert.ErrorContains(t, err, "accessor 3 out of range")
}

func TestDecodeGeometryExternalBuffer(t *testing.T) {
	view := 0
	doc := &gltfDocument{
		Meshes:      []gltfMesh{{Primitives: []gltfPrimitive{{Attributes: map[string]int{"POSITION": 0}}}}},
		Accessors:   []gltfAccessor{{BufferView: &view, ComponentType: gltfFloat, Count: 1, Type: "VEC3"}},
		BufferViews: []gltfBufferView{{Buffer: 0, ByteLength: 12}},
		Buffers:     []gltfBuffer{{URI: "scene.bin", ByteLength: 12}},
	}
	data, err := newGLTFGeometry(doc, nil).mesh(0)
	require.NoError(t, err)
	assert.Nil(t, data, "geometry outside the payload is left undecoded")
}
