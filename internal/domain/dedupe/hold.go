package dedupe

import (
	"sort"
	"sync"
	"time"

	"github.com/okian/auscult/internal/domain/model"
)

// Clock tells the hold buffer what time it is.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a clock stopped at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Task is a decision waiting out the hold interval. A cancelled task is
// never emitted.
type Task struct {
	event     model.RawEvent
	sig       signature
	due       time.Time
	cancelled bool
	emitted   bool
}

// Cancel drops the task.
func (t *Task) Cancel() { t.cancelled = true }

// Cancelled reports whether Cancel was called.
func (t *Task) Cancelled() bool { return t.cancelled }

// Due is when the task may be emitted.
func (t *Task) Due() time.Time { return t.due }

func (t *Task) live() bool { return !t.cancelled && !t.emitted }

// holdBuffer keeps at most one live task per signature key.
type holdBuffer struct {
	byKey map[string]*Task
	queue []*Task
}

func newHoldBuffer() *holdBuffer {
	return &holdBuffer{byKey: make(map[string]*Task)}
}

func (h *holdBuffer) pending(key string) (*Task, bool) {
	t, ok := h.byKey[key]
	return t, ok
}

func (h *holdBuffer) schedule(ev model.RawEvent, sig signature, due time.Time) *Task {
	t := &Task{event: ev, sig: sig, due: due}
	h.byKey[sig.key()] = t
	h.queue = append(h.queue, t)
	return t
}

// cancel removes the live task for key and marks it cancelled.
func (h *holdBuffer) cancel(key string) {
	if t, ok := h.byKey[key]; ok {
		t.Cancel()
		delete(h.byKey, key)
	}
}

// take removes the live task for key so it can be emitted right away.
func (h *holdBuffer) take(key string) (*Task, bool) {
	t, ok := h.byKey[key]
	if ok {
		delete(h.byKey, key)
		t.emitted = true
	}
	return t, ok
}

// due pops every live task whose deadline is not after now, oldest first.
func (h *holdBuffer) due(now time.Time) []*Task {
	var ready []*Task
	kept := h.queue[:0]
	for _, t := range h.queue {
		switch {
		case !t.live():
		case !t.due.After(now):
			t.emitted = true
			ready = append(ready, t)
			delete(h.byKey, t.sig.key())
		default:
			kept = append(kept, t)
		}
	}
	clear(h.queue[len(kept):])
	h.queue = kept
	sortByEventTime(ready)
	return ready
}

// drain pops every live task regardless of its deadline.
func (h *holdBuffer) drain() []*Task {
	var ready []*Task
	for _, t := range h.queue {
		if t.live() {
			t.emitted = true
			ready = append(ready, t)
		}
	}
	h.queue = nil
	clear(h.byKey)
	sortByEventTime(ready)
	return ready
}

func (h *holdBuffer) len() int { return len(h.byKey) }

func sortByEventTime(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].sig.ts < tasks[j].sig.ts })
}
