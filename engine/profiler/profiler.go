// Package profiler samples frame rate and memory statistics once per interval, logs them and
// feeds the runtime gauges.
package profiler

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
)

const mb = 1024 * 1024

// Stats is one profiler sample.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now     func() time.Time
	last    Stats
	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// NewProfiler creates a new Profiler. The interval defaults to 1 second.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
		logger:         zerolog.Nop(),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.Noop()
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame. When the interval has elapsed it samples FPS, heap,
// allocation rate and GC pauses, logs them at debug level and stores FPS and heap in the
// runtime gauges.
//
// Returns:
//   - bool: true if a sample was taken this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / mb,
		SysMB:       float64(p.memStats.Sys) / mb,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / mb / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}

	// PauseNs is a circular buffer of the last 256 GC pauses.
	if s.GCCount > 0 {
		s.LastPauseUs = p.memStats.PauseNs[(s.GCCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if s.GCCount-startIdx > 256 {
			startIdx = s.GCCount - 256
		}
		for i := startIdx; i < s.GCCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Debug().
		Float64("fps", s.FPS).
		Float64("heapMB", s.HeapMB).
		Float64("allocRateMBs", s.AllocRateMB).
		Uint32("gc", s.GCCount).
		Uint64("lastPauseUs", s.LastPauseUs).
		Uint64("maxPauseUs", s.MaxPauseUs).
		Float64("sysMB", s.SysMB).
		Msg("frame stats")
	p.metrics.SetRuntime(s.FPS, p.memStats.Alloc)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = s
	return true
}

// Last returns the most recent sample.
func (p *Profiler) Last() Stats {
	return p.last
}
