// Package metrics holds the OpenTelemetry instruments the engine reports through.
// Instruments come from the global meter provider unless one is passed explicitly; without an
// installed SDK every call is a no-op.
package metrics

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/Carmen-Shannon/oxy-station/engine"

// Recorder records load, frame and parameter activity.
type Recorder struct {
	itemsLoaded  metric.Int64Counter
	itemsFailed  metric.Int64Counter
	frames       metric.Int64Counter
	paramChanges metric.Int64Counter
	progress     metric.Int64ObservableGauge
	fps          metric.Float64ObservableGauge
	heap         metric.Int64ObservableGauge

	mu          sync.RWMutex
	progressPct int64
	fpsValue    float64
	heapBytes   int64
}

// New creates a Recorder using the given provider, or the global provider when nil.
//
// Parameters:
//   - provider: the meter provider to create instruments from, may be nil
//
// Returns:
//   - *Recorder: the recorder
//   - error: error if any instrument cannot be created
func New(provider metric.MeterProvider) (*Recorder, error) {
	var m metric.Meter
	if provider == nil {
		m = otel.Meter(instrumentationName)
	} else {
		m = provider.Meter(instrumentationName)
	}

	r := &Recorder{}
	var err error

	if r.itemsLoaded, err = m.Int64Counter("station.load.items.loaded",
		metric.WithDescription("Load items completed, textures and models")); err != nil {
		return nil, fmt.Errorf("creating loaded counter: %w", err)
	}
	if r.itemsFailed, err = m.Int64Counter("station.load.items.failed",
		metric.WithDescription("Load items that failed")); err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	if r.frames, err = m.Int64Counter("station.frames",
		metric.WithDescription("Frames rendered by the scheduler")); err != nil {
		return nil, fmt.Errorf("creating frame counter: %w", err)
	}
	if r.paramChanges, err = m.Int64Counter("station.params.changed",
		metric.WithDescription("Parameter changes applied")); err != nil {
		return nil, fmt.Errorf("creating param counter: %w", err)
	}
	if r.progress, err = m.Int64ObservableGauge("station.load.progress",
		metric.WithDescription("Aggregate load percentage"), metric.WithUnit("%")); err != nil {
		return nil, fmt.Errorf("creating progress gauge: %w", err)
	}
	if r.fps, err = m.Float64ObservableGauge("station.fps",
		metric.WithDescription("Frames per second over the last profiler window")); err != nil {
		return nil, fmt.Errorf("creating fps gauge: %w", err)
	}
	if r.heap, err = m.Int64ObservableGauge("station.heap.alloc",
		metric.WithDescription("Bytes of allocated heap objects"), metric.WithUnit("By")); err != nil {
		return nil, fmt.Errorf("creating heap gauge: %w", err)
	}

	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		r.mu.RLock()
		defer r.mu.RUnlock()
		o.ObserveInt64(r.progress, r.progressPct)
		o.ObserveFloat64(r.fps, r.fpsValue)
		o.ObserveInt64(r.heap, r.heapBytes)
		return nil
	}, r.progress, r.fps, r.heap)
	if err != nil {
		return nil, fmt.Errorf("registering gauge callback: %w", err)
	}

	return r, nil
}

// Noop returns a Recorder whose instruments discard everything.
func Noop() *Recorder {
	r, err := New(noop.NewMeterProvider())
	if err != nil {
		panic(fmt.Sprintf("noop meter failed: %v", err))
	}
	return r
}

// ItemLoaded counts one completed load item of the given kind ("texture" or "model").
func (r *Recorder) ItemLoaded(ctx context.Context, kind string) {
	r.itemsLoaded.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// ItemFailed counts one failed load item.
func (r *Recorder) ItemFailed(ctx context.Context, kind, id string) {
	r.itemsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("id", id),
	))
}

// Frame counts one rendered frame.
func (r *Recorder) Frame(ctx context.Context) {
	r.frames.Add(ctx, 1)
}

// ParamChanged counts one applied parameter change.
func (r *Recorder) ParamChanged(ctx context.Context, target, param string) {
	r.paramChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("param", param),
	))
}

// SetProgress stores the aggregate load percentage reported by the progress gauge.
func (r *Recorder) SetProgress(pct int) {
	r.mu.Lock()
	r.progressPct = int64(pct)
	r.mu.Unlock()
}

// SetRuntime stores the frame rate and heap size reported by the runtime gauges.
func (r *Recorder) SetRuntime(fps float64, heapBytes uint64) {
	r.mu.Lock()
	r.fpsValue = fps
	r.heapBytes = int64(heapBytes)
	r.mu.Unlock()
}

// Progress returns the last stored load percentage.
func (r *Recorder) Progress() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(r.progressPct)
}

// FPS returns the last stored frame rate.
func (r *Recorder) FPS() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fpsValue
}
