package assets

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkRecorder struct {
	mu       sync.Mutex
	progress []int
	ready    int
	errs     []error
}

func (s *sinkRecorder) onProgress(pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, pct)
}

func (s *sinkRecorder) onReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready++
}

func (s *sinkRecorder) onError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *sinkRecorder) tracker() *Tracker {
	return NewTracker(s.onProgress, s.onReady, s.onError)
}

func TestLoadProgressStatePercent(t *testing.T) {
	tests := []struct {
		name  string
		state LoadProgressState
		want  int
	}{
		{"nothing loaded", LoadProgressState{ItemsTotal: 4}, 0},
		{"one of three", LoadProgressState{ItemsTotal: 3, ItemsLoaded: 1}, 33},
		{"two of three", LoadProgressState{ItemsTotal: 3, ItemsLoaded: 2}, 67},
		{"all", LoadProgressState{ItemsTotal: 19, ItemsLoaded: 19}, 100},
		{"empty pending", LoadProgressState{}, 0},
		{"empty completed", LoadProgressState{Completed: true}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Percent())
		})
	}
}

func TestTrackerReadyOnceAfterLastItem(t *testing.T) {
	s := &sinkRecorder{}
	tr := s.tracker()
	require.NoError(t, tr.Expect("a", "b", "c"))
	tr.Seal()

	tr.ItemDone("a")
	tr.ItemDone("b")
	assert.Zero(t, s.ready)
	tr.ItemDone("c")
	tr.ItemDone("c")

	assert.Equal(t, []int{33, 67, 100}, s.progress)
	assert.Equal(t, 1, s.ready)
	assert.True(t, tr.State().Completed)
	assert.True(t, tr.Settled())
}

func TestTrackerFailureWithholdsReady(t *testing.T) {
	s := &sinkRecorder{}
	tr := s.tracker()
	require.NoError(t, tr.Expect("a", "b"))
	tr.Seal()

	boom := errors.New("boom")
	tr.ItemFailed("a", boom)
	tr.ItemDone("b")
	tr.ItemDone("a")

	assert.Equal(t, []int{50}, s.progress)
	assert.Zero(t, s.ready)
	require.Len(t, s.errs, 1)
	assert.ErrorIs(t, s.errs[0], boom)
	assert.Equal(t, LoadProgressState{ItemsTotal: 2, ItemsLoaded: 1, ItemsFailed: 1}, tr.State())
	assert.True(t, tr.Settled())
}

func TestTrackerEmptyLoadCompletesOnSeal(t *testing.T) {
	s := &sinkRecorder{}
	tr := s.tracker()
	tr.Seal()
	tr.Seal()

	assert.Equal(t, []int{100}, s.progress)
	assert.Equal(t, 1, s.ready)
}

func TestTrackerIgnoresUnknownItems(t *testing.T) {
	s := &sinkRecorder{}
	tr := s.tracker()
	require.NoError(t, tr.Expect("a"))

	tr.ItemStart("ghost")
	tr.ItemDone("ghost")
	tr.ItemFailed("ghost", errors.New("x"))

	assert.Empty(t, s.progress)
	assert.Empty(t, s.errs)
	assert.Error(t, tr.Expect("a"))
}

func TestTrackerConcurrentProgressIsMonotonic(t *testing.T) {
	s := &sinkRecorder{}
	tr := s.tracker()
	const n = 50
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("item-%d", i)
	}
	require.NoError(t, tr.Expect(ids...))
	tr.Seal()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.ItemStart(id)
			tr.ItemDone(id)
		}()
	}
	wg.Wait()

	require.Len(t, s.progress, n)
	for i := 1; i < len(s.progress); i++ {
		assert.GreaterOrEqual(t, s.progress[i], s.progress[i-1])
	}
	assert.Equal(t, 100, s.progress[n-1])
	assert.Equal(t, 1, s.ready)
}
