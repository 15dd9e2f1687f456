package control

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/engine/camera"
	"github.com/Carmen-Shannon/oxy-station/engine/params"
	"github.com/Carmen-Shannon/oxy-station/engine/presentation"
	"github.com/Carmen-Shannon/oxy-station/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-station/engine/scene"
)

type nopTarget struct{}

func (nopTarget) SetSize(int, int) {}

func (nopTarget) SetPixelRatio(float32) {}

func (nopTarget) Execute(*pipeline.Frame) error { return nil }

func newTestRouter(t *testing.T) (*Router, pipeline.Pipeline, scene.Composer) {
	t.Helper()
	cam := camera.NewCamera()
	sc := scene.NewComposer(cam)
	p, err := pipeline.Build(nopTarget{}, cam, sc)
	require.NoError(t, err)

	r := NewRouter(sc)
	r.AddPipeline(p)
	return r, p, sc
}

type queuePoster struct {
	mu     sync.Mutex
	queue  []func()
	refuse bool
}

func (q *queuePoster) Post(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.refuse {
		return false
	}
	q.queue = append(q.queue, fn)
	return true
}

func (q *queuePoster) drain() int {
	q.mu.Lock()
	fns := q.queue
	q.queue = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

func dial(t *testing.T, srv *httptest.Server) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *ws.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestRouter(t *testing.T) {
	r, _, sc := newTestRouter(t)

	var names []string
	for _, ts := range r.Schema() {
		names = append(names, ts.Name)
	}
	assert.Equal(t, []string{"scene", pipeline.PassBase, pipeline.PassBloom, pipeline.PassGodRays, pipeline.PassSMAA}, names)

	stored, err := r.Apply(pipeline.PassBloom, pipeline.ParamIntensity, 5.0)
	require.NoError(t, err)
	assert.InDelta(t, 3, stored.Number, 1e-9)

	_, err = r.Apply(pipeline.PassGodRays, pipeline.ParamColor, "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xff0000), sc.Sun().Color().Hex())

	_, err = r.Apply("fog", "Density", 1.0)
	assert.ErrorIs(t, err, ErrUnknownTarget)

	_, err = r.Apply("scene", "Zoom", 1.0)
	assert.ErrorIs(t, err, params.ErrUnknownParam)
}

func TestSchemaDescribesParams(t *testing.T) {
	r, _, _ := newTestRouter(t)

	for _, ts := range r.Schema() {
		if ts.Name != pipeline.PassGodRays {
			continue
		}
		byName := map[string]ParamSchema{}
		for _, ps := range ts.Params {
			byName[ps.Name] = ps
		}
		res := byName[pipeline.ParamResolution]
		require.NotNil(t, res.Min)
		assert.Equal(t, "number", res.Kind)
		assert.Equal(t, 240.0, *res.Min)
		assert.Equal(t, "#030303", byName[pipeline.ParamColor].Value)
		assert.Nil(t, byName[pipeline.ParamEnabled].Min)
		return
	}
	t.Fatal("godrays target missing")
}

func TestServerSchemaAndParam(t *testing.T) {
	r, _, _ := newTestRouter(t)
	s := NewServer(r)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	schema := read(t, conn)
	assert.Equal(t, TypeSchema, schema.Type)
	assert.Len(t, schema.Targets, 5)

	require.NoError(t, conn.WriteJSON(SetParamMessage{Target: pipeline.PassBloom, Param: pipeline.ParamThreshold, Value: 0.5}))
	env := read(t, conn)
	assert.Equal(t, TypeParam, env.Type)
	assert.Equal(t, pipeline.PassBloom, env.Target)
	require.NotNil(t, env.Param)
	assert.Equal(t, 0.5, env.Param.Value)

	require.NoError(t, conn.WriteJSON(SetParamMessage{Target: pipeline.PassBloom, Param: pipeline.ParamFilter, Value: "yes"}))
	env = read(t, conn)
	assert.Equal(t, TypeError, env.Type)
	assert.Contains(t, env.Error, "invalid parameter value")

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte("{not json")))
	env = read(t, conn)
	assert.Equal(t, TypeError, env.Type)
	assert.Contains(t, env.Error, "malformed")
}

func TestServerRejectsForeignOrigins(t *testing.T) {
	r, _, _ := newTestRouter(t)
	srv := httptest.NewServer(NewServer(r).Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path

	conn, resp, err := ws.DefaultDialer.Dial(url, http.Header{"Origin": {"http://example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Nil(t, conn)

	conn, _, err = ws.DefaultDialer.Dial(url, http.Header{"Origin": {srv.URL}})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, TypeSchema, read(t, conn).Type)
}

func TestServerPostsThroughMailbox(t *testing.T) {
	r, p, _ := newTestRouter(t)
	poster := &queuePoster{}
	s := NewServer(r, WithPoster(poster))

	require.NoError(t, s.Apply(pipeline.PassSMAA, pipeline.ParamEdgeThreshold, 0.2))
	pass, _ := p.Pass(pipeline.PassSMAA)
	for _, prm := range pass.Params() {
		if prm.Name == pipeline.ParamEdgeThreshold {
			assert.InDelta(t, 0.1, prm.Number, 1e-9, "nothing applies before the tick")
		}
	}

	assert.Equal(t, 1, poster.drain())
	for _, prm := range pass.Params() {
		if prm.Name == pipeline.ParamEdgeThreshold {
			assert.InDelta(t, 0.2, prm.Number, 1e-9)
		}
	}

	poster.refuse = true
	assert.ErrorIs(t, s.Apply(pipeline.PassSMAA, pipeline.ParamEdgeThreshold, 0.3), ErrNotAccepted)
}

func TestServerBroadcastAndReplay(t *testing.T) {
	r, _, _ := newTestRouter(t)
	s := NewServer(r)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	first := dial(t, srv)
	read(t, first)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)

	s.PublishOverlay(presentation.Overlay{Visible: true, Opacity: 1, Percentage: 40, Text: "40%", BarOffset: 283.2})
	env := read(t, first)
	assert.Equal(t, TypeProgress, env.Type)
	require.NotNil(t, env.Progress)
	assert.Equal(t, 40, env.Progress.Percentage)
	assert.Equal(t, "40%", env.Progress.Text)

	s.PublishReady()
	assert.Equal(t, TypeReady, read(t, first).Type)
	s.PublishError(errors.New("fetch failed"))
	assert.Equal(t, "fetch failed", read(t, first).Error)

	late := dial(t, srv)
	assert.Equal(t, TypeSchema, read(t, late).Type)
	assert.Equal(t, TypeProgress, read(t, late).Type)
	assert.Equal(t, TypeReady, read(t, late).Type)

	s.PublishControls()
	assert.Equal(t, TypeControls, read(t, first).Type)
	assert.Equal(t, TypeControls, read(t, late).Type)
}

func TestServerListenAndServeStopsOnCancel(t *testing.T) {
	r, _, _ := newTestRouter(t)
	s := NewServer(r, WithAddr("127.0.0.1:0"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestParsePreset(t *testing.T) {
	settings, err := ParsePreset([]byte(`
smaa:
  Preset: 3
  EdgeThreshold: 0.08
godrays:
  Color: "#ffaa00"
  Enabled: false
`))
	require.NoError(t, err)
	assert.Equal(t, []Setting{
		{"smaa", "Preset", 3},
		{"smaa", "EdgeThreshold", 0.08},
		{"godrays", "Color", "#ffaa00"},
		{"godrays", "Enabled", false},
	}, settings)

	empty, err := ParsePreset(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParsePreset([]byte("- bloom\n"))
	assert.Error(t, err)
	_, err = ParsePreset([]byte("bloom: 3\n"))
	assert.Error(t, err)
}

type recordingApplier struct {
	mu       sync.Mutex
	settings []Setting
}

func (a *recordingApplier) Apply(target, param string, v any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = append(a.settings, Setting{target, param, v})
	return nil
}

func (a *recordingApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.settings)
}

func TestPresetWatcherAppliesWrites(t *testing.T) {
	dir := t.TempDir()
	applier := &recordingApplier{}
	w := NewPresetWatcher(dir, applier, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx, ready) }()
	<-ready

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("bloom:\n  Intensity: 2\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warm.yaml"), []byte("bloom:\n  Intensity: 2\n"), 0o644))

	assert.Eventually(t, func() bool { return applier.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	applier.mu.Lock()
	assert.Equal(t, Setting{"bloom", "Intensity", 2}, applier.settings[0])
	applier.mu.Unlock()

	cancel()
	assert.NoError(t, <-errCh)
}

func TestApplyFileThroughServer(t *testing.T) {
	r, p, _ := newTestRouter(t)
	s := NewServer(r)
	w := NewPresetWatcher(t.TempDir(), s, zerolog.Nop())

	path := filepath.Join(t.TempDir(), "off.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bloom:\n  Enabled: false\n"), 0o644))

	n, err := w.ApplyFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	bloom, _ := p.Pass(pipeline.PassBloom)
	assert.False(t, bloom.Enabled())

	_, err = w.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
