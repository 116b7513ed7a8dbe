package reactive

import (
	"sync"
)

// Computed is a cached derived value.
//
// The compute function runs lazily on first Get and again only after one of
// its dependencies changed. Reading a Computed inside an effect or another
// Computed records a dependency on it, so invalidation propagates through
// chains of derived values.
type Computed struct {
	id uint64

	// fn produces the derived value.
	fn func() any

	// value is the cached result, valid while dirty is false.
	value any
	dirty bool
	mu    sync.Mutex

	// deps are the dependency buckets this computed appears in.
	deps   []*dep
	depsMu sync.Mutex
}

// NewComputed creates a lazily evaluated derived value.
//
//	total := reactive.NewComputed(func() any {
//	    return cart.Get("price").(int) * cart.Get("qty").(int)
//	})
func NewComputed(fn func() any) *Computed {
	return &Computed{
		id:    nextID(),
		fn:    fn,
		dirty: true,
	}
}

// Get returns the derived value, recomputing it if a dependency changed
// since the last read, and subscribes the active listener.
func (c *Computed) Get() any {
	c.mu.Lock()
	if c.dirty {
		c.recompute()
	}
	v := c.value
	c.mu.Unlock()

	track(c, OpGet, payloadKey)
	return v
}

// Peek returns the current value without subscribing the active listener.
// Still recomputes if the cached value is stale.
func (c *Computed) Peek() any {
	c.mu.Lock()
	if c.dirty {
		c.recompute()
	}
	v := c.value
	c.mu.Unlock()
	return v
}

// recompute runs fn under tracking so the computed re-subscribes to exactly
// what this evaluation read. The caller's pause state is lifted for the
// duration: the computed's own subscriptions must be recorded even when the
// read that forced the recompute is itself untracked. Caller holds c.mu.
func (c *Computed) recompute() {
	c.depsMu.Lock()
	deps := c.deps
	c.deps = nil
	c.depsMu.Unlock()
	for _, d := range deps {
		releaseDep(d, c)
	}

	tc := currentTracking()
	paused := tc.pauseDepth
	tc.pauseDepth = 0

	old := setListener(c)
	c.value = c.fn()
	setListener(old)

	tc.pauseDepth = paused
	c.dirty = false
}

// ID returns the unique identifier for this computed.
// Implements the Listener interface.
func (c *Computed) ID() uint64 {
	return c.id
}

// MarkDirty invalidates the cached value and notifies this computed's own
// dependents. Implements the Listener interface.
func (c *Computed) MarkDirty() {
	c.mu.Lock()
	wasDirty := c.dirty
	c.dirty = true
	c.mu.Unlock()

	if !wasDirty {
		trigger(c, OpSet, payloadKey, nil, nil)
	}
}

// addDep implements depSink.
func (c *Computed) addDep(d *dep) {
	c.depsMu.Lock()
	defer c.depsMu.Unlock()
	for _, existing := range c.deps {
		if existing == d {
			return
		}
	}
	c.deps = append(c.deps, d)
}
