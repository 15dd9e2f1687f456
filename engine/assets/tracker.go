package assets

import (
	"fmt"
	"math"
	"sync"
)

// LoadProgressState is a snapshot of aggregate load progress.
type LoadProgressState struct {
	ItemsTotal  int
	ItemsLoaded int
	ItemsFailed int
	Completed   bool
}

// Percent returns round(loaded / total * 100). An empty load reports 100 once completed.
func (s LoadProgressState) Percent() int {
	if s.ItemsTotal == 0 {
		if s.Completed {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(s.ItemsLoaded) / float64(s.ItemsTotal) * 100))
}

type itemState int

const (
	itemPending itemState = iota
	itemStarted
	itemLoaded
	itemFailed
)

// Tracker aggregates progress of every load item (textures and models) into one percentage and
// one ready signal. Each item is counted once no matter how often it is reported. Ready fires
// exactly once, after the last item loads, and never if any item failed.
//
// Sinks are called outside the state lock but one at a time, in the order the state changed.
type Tracker struct {
	mu    sync.Mutex
	items map[string]itemState
	state LoadProgressState

	deliverMu  sync.Mutex
	onProgress func(pct int)
	onReady    func()
	onError    func(err error)
}

// NewTracker creates a tracker delivering to the given sinks. Any sink may be nil.
//
// Parameters:
//   - onProgress: receives the aggregate percentage after every completed item
//   - onReady: called once when every item has loaded
//   - onError: receives every item failure
//
// Returns:
//   - *Tracker: the tracker
func NewTracker(onProgress func(int), onReady func(), onError func(error)) *Tracker {
	return &Tracker{
		items:      make(map[string]itemState),
		onProgress: onProgress,
		onReady:    onReady,
		onError:    onError,
	}
}

// Expect declares the items that make up the load. It must be called before any item reports.
//
// Parameters:
//   - ids: the item keys
//
// Returns:
//   - error: error on a repeated key
func (t *Tracker) Expect(ids ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if _, ok := t.items[id]; ok {
			return fmt.Errorf("load item %s declared twice", id)
		}
		t.items[id] = itemPending
		t.state.ItemsTotal++
	}
	return nil
}

// Seal marks the expected set complete. An empty load completes immediately.
func (t *Tracker) Seal() {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()

	t.mu.Lock()
	ready := t.state.ItemsTotal == 0 && !t.state.Completed
	if ready {
		t.state.Completed = true
	}
	t.mu.Unlock()

	if ready {
		t.emitProgress(100)
		if t.onReady != nil {
			t.onReady()
		}
	}
}

// ItemStart records that an item began loading. Unknown or finished items are ignored.
func (t *Tracker) ItemStart(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.items[id]; ok && st == itemPending {
		t.items[id] = itemStarted
	}
}

// ItemDone records that an item loaded and delivers the new percentage, plus the ready signal
// when it was the last one.
func (t *Tracker) ItemDone(id string) {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()

	t.mu.Lock()
	st, ok := t.items[id]
	if !ok || st == itemLoaded || st == itemFailed {
		t.mu.Unlock()
		return
	}
	t.items[id] = itemLoaded
	t.state.ItemsLoaded++
	pct := t.state.Percent()
	ready := t.state.ItemsLoaded == t.state.ItemsTotal && t.state.ItemsFailed == 0 && !t.state.Completed
	if ready {
		t.state.Completed = true
	}
	t.mu.Unlock()

	t.emitProgress(pct)
	if ready && t.onReady != nil {
		t.onReady()
	}
}

// ItemFailed records a failed item and forwards err to the error sink. The item never counts
// as loaded, so ready is withheld for the rest of the session.
func (t *Tracker) ItemFailed(id string, err error) {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()

	t.mu.Lock()
	st, ok := t.items[id]
	if !ok || st == itemLoaded || st == itemFailed {
		t.mu.Unlock()
		return
	}
	t.items[id] = itemFailed
	t.state.ItemsFailed++
	t.mu.Unlock()

	if t.onError != nil {
		t.onError(err)
	}
}

// ReportError forwards an error that belongs to no single item to the error sink.
func (t *Tracker) ReportError(err error) {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()
	if t.onError != nil {
		t.onError(err)
	}
}

// State returns a snapshot of the aggregate progress.
func (t *Tracker) State() LoadProgressState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Settled reports whether every expected item has either loaded or failed.
func (t *Tracker) Settled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.ItemsLoaded+t.state.ItemsFailed == t.state.ItemsTotal
}

func (t *Tracker) emitProgress(pct int) {
	if t.onProgress != nil {
		t.onProgress(pct)
	}
}
