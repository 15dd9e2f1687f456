package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "info", "json")
	require.NoError(t, err)

	cl := Component(l, "assets")
	cl.Info().Str("asset", "fence").Msg("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "assets", entry["component"])
	assert.Equal(t, "fence", entry["asset"])
	assert.Equal(t, "loaded", entry["message"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn", "json")
	require.NoError(t, err)

	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "console")
	require.NoError(t, err)

	l.Debug().Str("pass", "bloom").Msg("param changed")
	assert.Contains(t, buf.String(), "param changed")
	assert.Contains(t, buf.String(), "bloom")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(nil, "loud", "json")
	assert.Error(t, err)
}
