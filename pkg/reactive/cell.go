package reactive

import "sync"

// Cell is a single-slot reactive container.
//
// Reading the payload during a tracked computation records a dependency on
// the cell; writing a different payload notifies dependents. When a cell is
// stored under a record key, reads and writes through the record go straight
// to the payload; sequence index reads expose the cell itself.
//
// Cell is safe for concurrent access.
type Cell struct {
	value    any
	readonly bool
	mu       sync.RWMutex
}

// NewCell creates a writable cell holding v.
func NewCell(v any) *Cell {
	return &Cell{value: v}
}

// ReadonlyCell creates a cell whose payload cannot be replaced. Writes are
// refused without raising.
func ReadonlyCell(v any) *Cell {
	return &Cell{value: v, readonly: true}
}

// IsCell reports whether v is a reference cell.
func IsCell(v any) bool {
	_, ok := v.(*Cell)
	return ok
}

// Get returns the payload and subscribes the active listener. Eligible
// payloads are returned deeply observed, so nested reads keep tracking.
func (c *Cell) Get() any {
	c.mu.RLock()
	v := c.value
	c.mu.RUnlock()

	track(c, OpGet, payloadKey)

	if c.readonly {
		return toReadonlyObserved(v, false)
	}
	return toObserved(v, false)
}

// Peek returns the payload without subscribing.
func (c *Cell) Peek() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the payload and notifies dependents when it changed.
// Writes to a readonly cell are refused: the call returns normally, the
// payload is untouched, and a development-mode warning names the cell.
func (c *Cell) Set(v any) {
	if c.readonly {
		warn("write to readonly cell refused", "cell", c)
		return
	}

	v = ToRaw(v)

	c.mu.Lock()
	old := c.value
	changed := hasChanged(v, old)
	if changed {
		c.value = v
	}
	c.mu.Unlock()

	if changed {
		trigger(c, OpSet, payloadKey, v, old)
	}
}

// Readonly reports whether the cell refuses writes.
func (c *Cell) Readonly() bool {
	return c.readonly
}
