package app

import "sync"

// DefaultDedupCapacity bounds the seen set.
const DefaultDedupCapacity = 1000

// Deduplicator remembers opportunity identifiers. When the set is full it is
// cleared entirely, so an identifier older than the last clear is seen as new.
type Deduplicator struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	capacity int
}

// NewDeduplicator creates a deduplicator holding up to capacity identifiers.
func NewDeduplicator(capacity int) *Deduplicator {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	return &Deduplicator{
		seen:     make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// Observe records id and reports whether it was new.
func (d *Deduplicator) Observe(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return false
	}
	if len(d.seen) >= d.capacity {
		clear(d.seen)
	}
	d.seen[id] = struct{}{}
	return true
}

// Len returns the number of remembered identifiers.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
