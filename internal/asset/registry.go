package asset

import (
	"fmt"
	"sync"
)

// DefaultMaxDiscovered bounds the tokens learned at runtime. Every new pool brings a new mint.
const DefaultMaxDiscovered = 10_000

// Registry holds pinned well-known assets and a bounded set of tokens discovered
// while scoring. When the discovered set is full the oldest token is evicted.
// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	pinned     map[AssetID]*Asset
	discovered map[AssetID]*Asset
	order      []AssetID // discovered, oldest first
	max        int
}

// NewRegistry creates an empty registry keeping at most maxDiscovered runtime tokens.
// A non-positive value selects DefaultMaxDiscovered.
func NewRegistry(maxDiscovered int) *Registry {
	if maxDiscovered <= 0 {
		maxDiscovered = DefaultMaxDiscovered
	}
	return &Registry{
		pinned:     make(map[AssetID]*Asset),
		discovered: make(map[AssetID]*Asset),
		max:        maxDiscovered,
	}
}

// Register pins a. Pinned assets are never evicted or replaced.
// Panics if the ID is already pinned.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pinned[a.ID()]; exists {
		panic(fmt.Sprintf("asset: %s already registered", a.ID()))
	}
	r.pinned[a.ID()] = a
}

// Upsert stores a discovered token, replacing an earlier entry for the same mint.
// It returns the stored asset, which is the pinned one when a shadows a well-known asset.
func (r *Registry) Upsert(a *Asset) *Asset {
	if a == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if p, ok := r.pinned[id]; ok {
		return p
	}
	if _, ok := r.discovered[id]; !ok {
		if len(r.order) >= r.max {
			delete(r.discovered, r.order[0])
			r.order = r.order[1:]
		}
		r.order = append(r.order, id)
	}
	r.discovered[id] = a
	return a
}

// Get retrieves an asset by ID.
func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.pinned[id]; ok {
		return a, true
	}
	a, ok := r.discovered[id]
	return a, ok
}

// GetByMint retrieves a token by mint address.
func (r *Registry) GetByMint(mint string) (*Asset, bool) {
	return r.Get(AssetID{mint: mint})
}

// Len returns the number of pinned and discovered assets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pinned) + len(r.discovered)
}
