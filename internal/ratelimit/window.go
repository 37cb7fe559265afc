package ratelimit

import (
	"sync"
	"time"
)

// Window admits at most n events within any rolling period of length window.
// It keeps the timestamps of admitted events in a ring, so the oldest one
// leaving the window frees exactly one slot.
type Window struct {
	mu     sync.Mutex
	window time.Duration
	ring   []time.Time
	head   int // oldest admitted event
	count  int
}

// NewWindow creates a rolling counter admitting n events per window.
func NewWindow(n int, window time.Duration) *Window {
	if n < 1 {
		n = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Window{
		window: window,
		ring:   make([]time.Time, n),
	}
}

// AllowAt records an event at t if fewer than n events fall within the
// window ending at t.
func (w *Window) AllowAt(t time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trimLocked(t)
	if w.count == len(w.ring) {
		return false
	}
	w.ring[(w.head+w.count)%len(w.ring)] = t
	w.count++
	return true
}

// RemainingAt returns how many events would still be admitted at t.
func (w *Window) RemainingAt(t time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trimLocked(t)
	return len(w.ring) - w.count
}

// WaitAt returns how long after t the next slot frees up, or zero if one is
// free already.
func (w *Window) WaitAt(t time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.trimLocked(t)
	if w.count < len(w.ring) {
		return 0
	}
	return w.window - t.Sub(w.ring[w.head])
}

// Limit returns n.
func (w *Window) Limit() int {
	return len(w.ring)
}

func (w *Window) trimLocked(t time.Time) {
	for w.count > 0 && t.Sub(w.ring[w.head]) >= w.window {
		w.ring[w.head] = time.Time{}
		w.head = (w.head + 1) % len(w.ring)
		w.count--
	}
}
