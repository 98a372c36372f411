// Package timer is the centralized registration and teardown harness for
// every deferred callback the core schedules (§5, the "Timer/Timeout
// Harness" component): Harness holds the per-window settle timers and the
// executor's post-batch completion delay, and Ticker runs the fixed
// interval loop behind the 200ms PENDING tick. It is grounded on the
// teacher's reconciler ticker loop (internal/daemon/reconciler.go), but
// generalized from one fixed interval into arbitrary named, cancellable
// deferred calls.
package timer

import (
	"sync"
	"time"
)

// Handle identifies a single registered timer so it can be cancelled.
type Handle struct {
	id int64
}

// Harness owns every live timer for one engine instance. Invariant 7
// (§3): every timer registered is either fired-and-removed or explicitly
// cancelled on teardown; Harness enforces this by tracking every handle it
// hands out until it fires or Cancel/CancelAll removes it.
type Harness struct {
	mu     sync.Mutex
	nextID int64
	timers map[int64]*time.Timer
}

// NewHarness creates an empty timer harness.
func NewHarness() *Harness {
	return &Harness{timers: make(map[int64]*time.Timer)}
}

// After registers fn to run once after d elapses. The returned Handle may
// be passed to Cancel before it fires. Firing removes the entry from the
// harness automatically, so a fired timer's Cancel is a harmless no-op.
func (h *Harness) After(d time.Duration, fn func()) Handle {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.mu.Unlock()

	t := time.AfterFunc(d, func() {
		h.mu.Lock()
		_, live := h.timers[id]
		delete(h.timers, id)
		h.mu.Unlock()
		if live {
			fn()
		}
	})

	h.mu.Lock()
	h.timers[id] = t
	h.mu.Unlock()

	return Handle{id: id}
}

// Reset cancels any timer still pending for handle and registers a new one
// with the same id semantics as a fresh After call, returning the new
// Handle. Used by the settle timer, which restarts on every SETTLING
// event (§4.5: "Any event during settle resets the settle timer").
func (h *Harness) Reset(handle Handle, d time.Duration, fn func()) Handle {
	h.Cancel(handle)
	return h.After(d, fn)
}

// Cancel stops a pending timer. It is a no-op if the timer already fired
// or was already cancelled.
func (h *Harness) Cancel(handle Handle) {
	h.mu.Lock()
	t, ok := h.timers[handle.id]
	if ok {
		delete(h.timers, handle.id)
	}
	h.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// CancelAll stops every pending timer. Called on tear-down (§5):
// in-flight executor completions or timer fires arriving after tear-down
// find no corresponding state because the harness has already forgotten
// them.
func (h *Harness) CancelAll() {
	h.mu.Lock()
	pending := h.timers
	h.timers = make(map[int64]*time.Timer)
	h.mu.Unlock()
	for _, t := range pending {
		t.Stop()
	}
}

// Pending reports how many timers are currently registered. Exposed for
// tests that assert on teardown behavior.
func (h *Harness) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}
