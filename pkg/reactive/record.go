package reactive

import "sort"

// Record is the wrapper handle for a keyed record (map[string]any).
//
// It presents the same property surface as the raw map through five hooks:
// Get, Set, Delete, Has and Keys. Mutable variants record dependencies on
// reads and notify dependents on writes; readonly variants absorb writes.
type Record struct {
	variant Variant

	// target is the immediate wrapped value: the raw map, or an inner
	// *Record when this handle layers readonly over a mutable one.
	target any

	// raw is the innermost raw map, shared with target.
	raw map[string]any
}

func (r *Record) proxyVariant() Variant { return r.variant }
func (r *Record) proxyTarget() any      { return r.target }

// inner returns the wrapped mutable handle, if this is a readonly layer
// over one.
func (r *Record) inner() *Record {
	if in, ok := r.target.(*Record); ok {
		return in
	}
	return nil
}

// Get reads key.
//
// Mutable variants record a GET dependency on (raw, key). Deep variants
// auto-unwrap cell payloads and lazily wrap eligible nested values in the
// matching mutability; recursion over cyclic graphs terminates by identity
// cache hit. Shallow variants return the stored value verbatim.
func (r *Record) Get(key string) any {
	var res any
	if in := r.inner(); in != nil {
		// Reads through a readonly layer still track via the inner
		// mutable handle.
		res = in.Get(key)
	} else {
		res = r.raw[key]
		if !r.variant.Readonly() {
			track(r.raw, OpGet, key)
		}
	}

	if r.variant.Shallow() {
		return res
	}

	// Cells substitute their payload when read through a record.
	if c, ok := res.(*Cell); ok {
		return c.Get()
	}

	if r.variant.Readonly() {
		return toReadonlyObserved(res, false)
	}
	return toObserved(res, false)
}

// Set writes value under key.
//
// If the current value is a writable cell and the new value is not itself a
// cell, the write goes into the cell's payload and the map entry is left
// untouched; a readonly cell refuses the write without signaling failure.
// Otherwise the map is written and dependents are notified: ADD for a new
// key, SET when the value materially changed (two NaN values count as
// unchanged). Readonly variants absorb the write, reporting nothing.
func (r *Record) Set(key string, value any) {
	if r.variant.Readonly() {
		warn("set ignored on readonly record", "key", key)
		return
	}

	old, existed := r.raw[key]

	if !r.variant.Shallow() {
		old = ToRaw(old)
		// Deliberately chosen wrappers survive: only untagged handles
		// are normalized to their raw form.
		if !IsShallow(value) && !IsReadonly(value) {
			value = ToRaw(value)
		}

		if oldCell, ok := old.(*Cell); ok {
			if _, newIsCell := value.(*Cell); !newIsCell {
				if oldCell.readonly {
					warn("write through readonly cell refused", "key", key)
					return
				}
				oldCell.Set(value)
				return
			}
		}
	}

	r.raw[key] = value

	if !existed {
		trigger(r.raw, OpAdd, key, value, nil)
		return
	}
	if hasChanged(value, old) {
		trigger(r.raw, OpSet, key, value, old)
	}
}

// Delete removes key and reports whether it existed. Dependents of the key
// and of enumeration are notified with the prior value; deleting an absent
// key fires nothing. Readonly variants absorb the delete and report false.
func (r *Record) Delete(key string) bool {
	if r.variant.Readonly() {
		warn("delete ignored on readonly record", "key", key)
		return false
	}

	old, existed := r.raw[key]
	delete(r.raw, key)
	if existed {
		trigger(r.raw, OpDelete, key, nil, old)
	}
	return existed
}

// Has reports whether key exists, checking the raw map directly. Mutable
// variants record a HAS dependency.
func (r *Record) Has(key string) bool {
	if !r.variant.Readonly() {
		track(r.raw, OpHas, key)
	}
	_, ok := r.raw[key]
	return ok
}

// Keys enumerates the record's keys, sorted for deterministic iteration.
// Mutable variants record an ITERATE dependency, so any mutation that
// changes the key set invalidates enumerators.
func (r *Record) Keys() []string {
	if !r.variant.Readonly() {
		track(r.raw, OpIterate, iterateKey)
	}
	keys := make([]string, 0, len(r.raw))
	for k := range r.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys, recording an ITERATE dependency on
// mutable variants.
func (r *Record) Len() int {
	if !r.variant.Readonly() {
		track(r.raw, OpIterate, iterateKey)
	}
	return len(r.raw)
}
