// Package scheduler drives the per-frame loop. One goroutine owns every tick; mutations posted
// from other goroutines wait in a mailbox and run at the start of the next tick, so a tick never
// observes a half-applied change.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-station/engine/camera"
	"github.com/Carmen-Shannon/oxy-station/engine/metrics"
	"github.com/rs/zerolog"
)

// ErrStopped is returned by Start after the scheduler has been stopped.
var ErrStopped = errors.New("scheduler stopped")

// State is the lifecycle state of the scheduler.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Animator advances time-driven scene motion.
type Animator interface {
	// Animate applies one tick of animation at the given elapsed time in seconds.
	Animate(elapsed float32)
}

// Presenter advances time-driven presentation, such as the camera fly-in.
type Presenter interface {
	// Update applies the presentation state at the given elapsed time.
	Update(elapsed time.Duration)
}

// Renderer draws one frame.
type Renderer interface {
	Render() error
}

// mailboxSize bounds pending mutations; Post blocks the caller once it is full.
const mailboxSize = 256

type scheduler struct {
	state atomic.Int32

	animator  Animator
	controls  camera.OrbitControls
	cam       camera.Camera
	presenter Presenter
	renderer  Renderer
	observer  func()

	tickRate time.Duration
	now      func() time.Time
	start    time.Time
	elapsed  atomic.Int64
	ticks    atomic.Uint64

	mailbox  chan func()
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}

	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// Scheduler runs the frame loop.
type Scheduler interface {
	// Start moves the scheduler from Idle to Running and starts the loop. Starting a running
	// scheduler does nothing. Cancelling ctx stops it.
	//
	// Parameters:
	//   - ctx: the context bounding the loop
	//
	// Returns:
	//   - error: ErrStopped if the scheduler was already stopped
	Start(ctx context.Context) error

	// Stop ends the loop. It is the only way to reach StateStopped and is safe to call twice.
	Stop()

	// State returns the current lifecycle state.
	State() State

	// Post queues a mutation for the start of the next tick.
	//
	// Parameters:
	//   - fn: the mutation
	//
	// Returns:
	//   - bool: false if the scheduler is stopped and fn was dropped
	Post(fn func()) bool

	// Tick runs one tick synchronously: mailbox, clock, animation, controls, presentation, render,
	// then the frame observer.
	// The loop calls it on every timer fire; tests call it directly.
	//
	// Returns:
	//   - error: the render error, if any
	Tick() error

	// Elapsed returns the clock value of the last tick.
	Elapsed() time.Duration

	// Ticks returns the number of completed ticks.
	Ticks() uint64

	// Done is closed when the loop has exited after Stop.
	Done() <-chan struct{}
}

var _ Scheduler = &scheduler{}

// NewScheduler creates an idle scheduler.
//
// Parameters:
//   - animator: the scene animation, usually the scene composer
//   - renderer: the render pipeline
//   - options: builder options
//
// Returns:
//   - Scheduler: the scheduler
func NewScheduler(animator Animator, renderer Renderer, options ...SchedulerBuilderOption) Scheduler {
	if animator == nil || renderer == nil {
		panic("scheduler: animator and renderer are required")
	}
	s := &scheduler{
		animator: animator,
		renderer: renderer,
		tickRate: time.Second / 60,
		now:      time.Now,
		mailbox:  make(chan func(), mailboxSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop()
	}
	s.start = s.now()
	return s
}

func (s *scheduler) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if s.State() == StateStopped {
			return ErrStopped
		}
		return nil
	}
	s.start = s.now()
	s.logger.Info().Dur("tickRate", s.tickRate).Msg("scheduler started")
	go s.loop(ctx)
	return nil
}

func (s *scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.quit:
			return
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				s.logger.Warn().Err(err).Msg("frame failed")
			}
		}
	}
}

func (s *scheduler) Stop() {
	s.quitOnce.Do(func() {
		previous := State(s.state.Swap(int32(StateStopped)))
		close(s.quit)
		if previous != StateRunning {
			close(s.done)
		}
		s.logger.Info().Uint64("ticks", s.ticks.Load()).Msg("scheduler stopped")
	})
}

func (s *scheduler) State() State {
	return State(s.state.Load())
}

func (s *scheduler) Post(fn func()) bool {
	if fn == nil || s.State() == StateStopped {
		return false
	}
	select {
	case s.mailbox <- fn:
		return true
	case <-s.quit:
		return false
	}
}

// drain runs every mutation queued before the call.
func (s *scheduler) drain() {
	for n := len(s.mailbox); n > 0; n-- {
		select {
		case fn := <-s.mailbox:
			fn()
		default:
			return
		}
	}
}

func (s *scheduler) Tick() error {
	s.drain()

	elapsed := s.now().Sub(s.start)
	s.elapsed.Store(int64(elapsed))

	s.animator.Animate(float32(elapsed.Seconds()))
	if s.controls != nil && s.cam != nil {
		s.controls.Update(s.cam)
	}
	if s.presenter != nil {
		s.presenter.Update(elapsed)
	}
	err := s.renderer.Render()

	s.ticks.Add(1)
	s.metrics.Frame(context.Background())
	if s.observer != nil {
		s.observer()
	}
	return err
}

func (s *scheduler) Elapsed() time.Duration {
	return time.Duration(s.elapsed.Load())
}

func (s *scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

func (s *scheduler) Done() <-chan struct{} {
	return s.done
}
