package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
)

func TestTickSamplesOncePerInterval(t *testing.T) {
	now := time.Unix(0, 0)
	rec := metrics.Noop()
	p := NewProfiler(WithClock(func() time.Time { return now }), WithMetrics(rec), WithInterval(time.Second))

	for range 29 {
		now = now.Add(time.Second / 60)
		assert.False(t, p.Tick())
	}
	now = now.Add(time.Second - 29*(time.Second/60))
	require.True(t, p.Tick())

	assert.InDelta(t, 30, p.Last().FPS, 1e-6)
	assert.Greater(t, p.Last().HeapMB, 0.0)
	assert.InDelta(t, 30, rec.FPS(), 1e-6)

	now = now.Add(100 * time.Millisecond)
	assert.False(t, p.Tick(), "the frame count restarts after a sample")
}
