package reactive

import (
	"runtime"
	"sync"
	"weak"
)

// proxyCache maps target identity to an existing handle for one variant.
//
// Entries hold the handle weakly so the cache pins neither the handle nor the
// raw value behind it. A cleanup attached to each handle evicts its entry once
// the handle is collected, so a recorded identity is never compared against a
// freed address: while an entry is live its handle is reachable, and the
// handle keeps its target reachable.
type proxyCache struct {
	mu      sync.Mutex
	entries map[uintptr]func() any
}

// caches holds one table per variant, so the same raw value may have up to
// four simultaneous handles without conflict.
var caches [4]proxyCache

func cacheFor(v Variant) *proxyCache {
	return &caches[v]
}

// lookup returns the live handle for id, or nil. Dead entries (handle already
// collected but cleanup not yet run) are evicted on sight.
func (c *proxyCache) lookup(id uintptr) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	h := e()
	if h == nil {
		delete(c.entries, id)
		return nil
	}
	return h
}

// evict removes the entry for id if its handle is gone. Called from the
// handle's GC cleanup; the liveness check guards against evicting an entry
// that was re-registered for a new handle at a reused address.
func (c *proxyCache) evict(id uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok && e() == nil {
		delete(c.entries, id)
	}
}

// registerHandle stores h under id, insert-if-absent. Returns the stored
// handle, which is an existing one when a concurrent wrap won the race;
// callers must use the return value so the one-handle-per-(target,variant)
// invariant holds.
func registerHandle[T any](c *proxyCache, id uintptr, h *T) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[uintptr]func() any)
	}
	if e, ok := c.entries[id]; ok {
		if existing := e(); existing != nil {
			return existing
		}
	}
	wp := weak.Make(h)
	c.entries[id] = func() any {
		if v := wp.Value(); v != nil {
			return v
		}
		return nil
	}
	runtime.AddCleanup(h, func(key uintptr) { c.evict(key) }, id)
	return h
}
