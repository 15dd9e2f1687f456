package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, "fifo", cfg.Window.PresentMode)
	assert.Equal(t, float32(2), cfg.Window.PixelRatioCap)
	assert.Equal(t, 320, cfg.Window.MinWidth)
	assert.Equal(t, "", cfg.Assets.Manifest)
	assert.Equal(t, "static", cfg.Assets.Root)
	assert.Equal(t, 4, cfg.Assets.Workers)
	assert.True(t, cfg.Control.Enabled)
	assert.Equal(t, "127.0.0.1:7878", cfg.Control.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, time.Second/60, cfg.Scheduler.TickRate)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	doc := `
window:
  width: 400
  height: 800
assets:
  root: https://cdn.example.com/station
  workers: 8
log:
  format: json
scheduler:
  tickRate: 8ms
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "station.yaml"), []byte(doc), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Window.Width)
	assert.Equal(t, 800, cfg.Window.Height)
	assert.Equal(t, "https://cdn.example.com/station", cfg.Assets.Root)
	assert.Equal(t, 8, cfg.Assets.Workers)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8*time.Millisecond, cfg.Scheduler.TickRate)
	assert.Equal(t, "oxy-station", cfg.Window.Title)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "station.yaml"), []byte("log:\n  level: warn\n"), 0o644))
	t.Setenv("OXY_LOG_LEVEL", "debug")
	t.Setenv("OXY_ASSETS_WORKERS", "2")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Assets.Workers)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "station.yaml"), []byte("window: [\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window size"},
		{"below minimum", func(c *Config) { c.Window.Width = 200 }, "below the minimum"},
		{"negative minimum", func(c *Config) { c.Window.MinHeight = -1 }, "must not be negative"},
		{"no workers", func(c *Config) { c.Assets.Workers = 0 }, "assets.workers"},
		{"bad present mode", func(c *Config) { c.Window.PresentMode = "vsync" }, "presentMode"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"zero tick", func(c *Config) { c.Scheduler.TickRate = 0 }, "tickRate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
