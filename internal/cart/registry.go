package cart

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	cart     *Cart
	lastSeen time.Time
}

// Registry owns one Cart per session id. Carts live only in memory and are
// dropped on sign-out or after sitting idle for longer than the idle TTL.
type Registry struct {
	mu      sync.Mutex
	carts   map[string]*entry
	idleTTL time.Duration
	now     func() time.Time
}

// NewRegistry creates a registry. An idleTTL of zero disables expiry.
func NewRegistry(idleTTL time.Duration) *Registry {
	return &Registry{
		carts:   make(map[string]*entry),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Get returns the session's cart, creating an empty one on first use
func (r *Registry) Get(sessionID string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.carts[sessionID]
	if !ok {
		e = &entry{cart: New()}
		r.carts[sessionID] = e
	}
	e.lastSeen = r.now()
	return e.cart
}

// Drop discards the session's cart
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
}

// Len returns the number of live carts
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// Sweep removes carts idle for longer than the TTL and returns how many went.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	removed := 0
	for id, e := range r.carts {
		if e.lastSeen.Before(cutoff) {
			delete(r.carts, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every interval tick until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
