package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-station/engine/camera"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeAnimator struct {
	rec     *recorder
	elapsed []float32
}

func (f *fakeAnimator) Animate(elapsed float32) {
	f.rec.add("animate")
	f.elapsed = append(f.elapsed, elapsed)
}

type fakePresenter struct{ rec *recorder }

func (f *fakePresenter) Update(time.Duration) { f.rec.add("present") }

type fakeRenderer struct {
	rec *recorder
	err error
}

func (f *fakeRenderer) Render() error {
	f.rec.add("render")
	return f.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestFrameObserverRunsLast(t *testing.T) {
	var s Scheduler
	var rec *recorder
	s, rec, _, _, _ = newTestScheduler(WithFrameObserver(func() { rec.add("observe") }))

	require.NoError(t, s.Tick())
	assert.Equal(t, []string{"animate", "present", "render", "observe"}, rec.snapshot())
}

func newTestScheduler(options ...SchedulerBuilderOption) (Scheduler, *recorder, *fakeAnimator, *fakeRenderer, *fakeClock) {
	rec := &recorder{}
	anim := &fakeAnimator{rec: rec}
	rend := &fakeRenderer{rec: rec}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	opts := append([]SchedulerBuilderOption{WithClock(clock.Now), WithPresenter(&fakePresenter{rec: rec})}, options...)
	return NewScheduler(anim, rend, opts...), rec, anim, rend, clock
}

func TestNewSchedulerRequiresCollaborators(t *testing.T) {
	assert.Panics(t, func() { NewScheduler(nil, &fakeRenderer{}) })
	assert.Panics(t, func() { NewScheduler(&fakeAnimator{}, nil) })
}

func TestTickOrder(t *testing.T) {
	s, rec, anim, _, clock := newTestScheduler()

	require.True(t, s.Post(func() { rec.add("mutation") }))
	clock.advance(1500 * time.Millisecond)
	require.NoError(t, s.Tick())

	assert.Equal(t, []string{"mutation", "animate", "present", "render"}, rec.snapshot())
	assert.Equal(t, 1500*time.Millisecond, s.Elapsed())
	assert.InDelta(t, 1.5, anim.elapsed[0], 1e-6)
	assert.Equal(t, uint64(1), s.Ticks())
}

func TestTickUpdatesControls(t *testing.T) {
	cam := camera.NewCamera(camera.WithPosition(30, 0, 0))
	controls := camera.NewOrbitControls(camera.WithDistanceLimits(4, 20))
	s, _, _, _, _ := newTestScheduler(WithControls(controls, cam))

	require.NoError(t, s.Tick())
	assert.InDelta(t, 20, cam.Position()[0], 1e-4, "distance is clamped on the tick")
}

func TestTickReturnsRenderError(t *testing.T) {
	s, _, _, rend, _ := newTestScheduler()
	rend.err = errors.New("surface lost")

	assert.ErrorContains(t, s.Tick(), "surface lost")
	assert.Equal(t, uint64(1), s.Ticks())
}

func TestMailboxDrainsOnlyQueuedMutations(t *testing.T) {
	s, rec, _, _, _ := newTestScheduler()

	require.True(t, s.Post(func() {
		rec.add("first")
		s.Post(func() { rec.add("second") })
	}))
	require.NoError(t, s.Tick())
	require.NoError(t, s.Tick())

	calls := rec.snapshot()
	assert.Equal(t, "first", calls[0])
	assert.Equal(t, "render", calls[3])
	assert.Equal(t, "second", calls[4], "mutations posted during a tick wait for the next one")
}

func TestLifecycle(t *testing.T) {
	s, rec, _, _, _ := newTestScheduler(WithTickRate(time.Millisecond))
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "starting twice is a no-op")
	assert.Equal(t, StateRunning, s.State())

	assert.Eventually(t, func() bool { return s.Ticks() >= 3 }, time.Second, time.Millisecond)

	s.Stop()
	s.Stop()
	<-s.Done()
	assert.Equal(t, StateStopped, s.State())
	assert.ErrorIs(t, s.Start(context.Background()), ErrStopped)
	assert.False(t, s.Post(func() { rec.add("late") }))

	ticks := s.Ticks()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, ticks, s.Ticks(), "no tick runs after stop")
}

func TestContextCancelStops(t *testing.T) {
	s, _, _, _, _ := newTestScheduler(WithTickRate(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, StateStopped, s.State())
}

func TestStopBeforeStart(t *testing.T) {
	s, _, _, _, _ := newTestScheduler()
	s.Stop()

	select {
	case <-s.Done():
	default:
		t.Fatal("done stays open for a scheduler that never ran")
	}
	assert.ErrorIs(t, s.Start(context.Background()), ErrStopped)
}
