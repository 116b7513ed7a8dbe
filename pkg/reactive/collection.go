package reactive

import (
	"fmt"
	"reflect"
)

// Map is an associative raw container with arbitrary comparable keys.
// On its own it is inert; wrap it with Reactive or Readonly to observe it.
// Unlike records and sequences, wrapped collections intercept methods rather
// than property access, but they honor the same contract: reads track GET
// and HAS, mutations trigger ADD, SET, DELETE and CLEAR.
type Map struct {
	m map[any]any
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{m: make(map[any]any)}
}

// Get returns the value for key and whether it exists.
func (m *Map) Get(key any) (any, bool) {
	v, ok := m.m[key]
	return v, ok
}

// Set stores value under key.
func (m *Map) Set(key, value any) { m.m[key] = value }

// Delete removes key, reporting whether it existed.
func (m *Map) Delete(key any) bool {
	_, ok := m.m[key]
	delete(m.m, key)
	return ok
}

// Has reports whether key exists.
func (m *Map) Has(key any) bool {
	_, ok := m.m[key]
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.m) }

// Keys returns the keys in unspecified order.
func (m *Map) Keys() []any {
	keys := make([]any, 0, len(m.m))
	for k := range m.m {
		keys = append(keys, k)
	}
	return keys
}

// Set is a membership raw container. Like Map, it is inert until wrapped.
type Set struct {
	m map[any]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{m: make(map[any]struct{})}
}

// Add inserts v.
func (s *Set) Add(v any) { s.m[v] = struct{}{} }

// Delete removes v, reporting whether it was present.
func (s *Set) Delete(v any) bool {
	_, ok := s.m[v]
	delete(s.m, v)
	return ok
}

// Has reports whether v is present.
func (s *Set) Has(v any) bool {
	_, ok := s.m[v]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int { return len(s.m) }

// Values returns the members in unspecified order.
func (s *Set) Values() []any {
	out := make([]any, 0, len(s.m))
	for v := range s.m {
		out = append(out, v)
	}
	return out
}

// hashable reports whether v can be used as a Go map key. Raw records and
// sequences dereferenced out of a handle are not; their handles are.
func hashable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

// resolveCollectionKey normalizes a caller-supplied key to the form the raw
// container holds (or would hold) it under: the key as given when an entry
// already exists for it, its raw form when that is hashable, otherwise the
// key itself. Reports false when no form can be a Go map key; collection
// operations treat that as a miss rather than panicking in the map lookup.
func resolveCollectionKey(has func(any) bool, key any) (any, bool) {
	if hashable(key) && has(key) {
		return key, true
	}
	if raw := ToRaw(key); hashable(raw) {
		return raw, true
	}
	if hashable(key) {
		return key, true
	}
	warn("unusable collection key", "type", fmt.Sprintf("%T", key))
	return nil, false
}

// MapProxy is the wrapper handle for a *Map.
type MapProxy struct {
	variant Variant
	target  any
	raw     *Map
}

func (p *MapProxy) proxyVariant() Variant { return p.variant }
func (p *MapProxy) proxyTarget() any      { return p.target }

// resolveKey returns the key under which the raw map actually holds (or
// would hold) an entry, reporting false for keys no form of which is
// hashable.
func (p *MapProxy) resolveKey(key any) (any, bool) {
	return resolveCollectionKey(p.raw.Has, key)
}

// Get returns the value for key, tracking a GET dependency on mutable
// variants and wrapping eligible results per the variant's depth. Lookup
// succeeds whether the caller holds the raw key or a wrapped one; an
// unusable key reads as absent.
func (p *MapProxy) Get(key any) (any, bool) {
	key, usable := p.resolveKey(key)
	if !usable {
		return nil, false
	}
	if !p.variant.Readonly() {
		track(p.raw, OpGet, key)
	}
	v, ok := p.raw.Get(key)
	if !ok || p.variant.Shallow() {
		return v, ok
	}
	if p.variant.Readonly() {
		return toReadonlyObserved(v, false), ok
	}
	return toObserved(v, false), ok
}

// Has reports whether key exists, tracking a HAS dependency on mutable
// variants.
func (p *MapProxy) Has(key any) bool {
	key, usable := p.resolveKey(key)
	if !usable {
		return false
	}
	if !p.variant.Readonly() {
		track(p.raw, OpHas, key)
	}
	return p.raw.Has(key)
}

// Set stores value under key, notifying ADD for a new key or SET when the
// value materially changed. Readonly variants absorb the write; unusable
// keys are refused with a development-mode warning.
func (p *MapProxy) Set(key, value any) {
	if p.variant.Readonly() {
		warn("set ignored on readonly map")
		return
	}
	key, usable := p.resolveKey(key)
	if !usable {
		return
	}
	if !p.variant.Shallow() && !IsShallow(value) && !IsReadonly(value) {
		value = ToRaw(value)
	}

	old, existed := p.raw.Get(key)
	p.raw.Set(key, value)

	if !existed {
		trigger(p.raw, OpAdd, key, value, nil)
		return
	}
	if hasChanged(value, old) {
		trigger(p.raw, OpSet, key, value, old)
	}
}

// Delete removes key, notifying DELETE with the prior value when it existed.
func (p *MapProxy) Delete(key any) bool {
	if p.variant.Readonly() {
		warn("delete ignored on readonly map")
		return false
	}
	key, usable := p.resolveKey(key)
	if !usable {
		return false
	}
	old, existed := p.raw.Get(key)
	p.raw.Delete(key)
	if existed {
		trigger(p.raw, OpDelete, key, nil, old)
	}
	return existed
}

// Clear removes every entry, notifying CLEAR when the map was non-empty.
func (p *MapProxy) Clear() {
	if p.variant.Readonly() {
		warn("clear ignored on readonly map")
		return
	}
	if p.raw.Len() == 0 {
		return
	}
	p.raw.m = make(map[any]any)
	trigger(p.raw, OpClear, nil, nil, nil)
}

// Len returns the entry count, recording an ITERATE dependency on mutable
// variants.
func (p *MapProxy) Len() int {
	if !p.variant.Readonly() {
		track(p.raw, OpIterate, iterateKey)
	}
	return p.raw.Len()
}

// Keys enumerates the keys, recording an ITERATE dependency on mutable
// variants.
func (p *MapProxy) Keys() []any {
	if !p.variant.Readonly() {
		track(p.raw, OpIterate, iterateKey)
	}
	return p.raw.Keys()
}

// ForEach visits every entry. Values are wrapped per the variant's depth;
// mutable variants record an ITERATE dependency.
func (p *MapProxy) ForEach(fn func(key, value any)) {
	if !p.variant.Readonly() {
		track(p.raw, OpIterate, iterateKey)
	}
	for k, v := range p.raw.m {
		if !p.variant.Shallow() {
			if p.variant.Readonly() {
				v = toReadonlyObserved(v, false)
			} else {
				v = toObserved(v, false)
			}
		}
		fn(k, v)
	}
}

// SetProxy is the wrapper handle for a *Set.
type SetProxy struct {
	variant Variant
	target  any
	raw     *Set
}

func (p *SetProxy) proxyVariant() Variant { return p.variant }
func (p *SetProxy) proxyTarget() any      { return p.target }

// resolveMember mirrors MapProxy.resolveKey for set membership.
func (p *SetProxy) resolveMember(v any) (any, bool) {
	return resolveCollectionKey(p.raw.Has, v)
}

// Has reports membership, tracking a HAS dependency on mutable variants.
func (p *SetProxy) Has(v any) bool {
	v, usable := p.resolveMember(v)
	if !usable {
		return false
	}
	if !p.variant.Readonly() {
		track(p.raw, OpHas, v)
	}
	return p.raw.Has(v)
}

// Add inserts v, notifying ADD when it was not already present. Unusable
// members are refused with a development-mode warning.
func (p *SetProxy) Add(v any) {
	if p.variant.Readonly() {
		warn("add ignored on readonly set")
		return
	}
	v, usable := p.resolveMember(v)
	if !usable {
		return
	}
	if p.raw.Has(v) {
		return
	}
	p.raw.Add(v)
	trigger(p.raw, OpAdd, v, v, nil)
}

// Delete removes v, notifying DELETE when it was present.
func (p *SetProxy) Delete(v any) bool {
	if p.variant.Readonly() {
		warn("delete ignored on readonly set")
		return false
	}
	v, usable := p.resolveMember(v)
	if !usable {
		return false
	}
	if !p.raw.Has(v) {
		return false
	}
	p.raw.Delete(v)
	trigger(p.raw, OpDelete, v, nil, v)
	return true
}

// Clear removes every member, notifying CLEAR when the set was non-empty.
func (p *SetProxy) Clear() {
	if p.variant.Readonly() {
		warn("clear ignored on readonly set")
		return
	}
	if p.raw.Len() == 0 {
		return
	}
	p.raw.m = make(map[any]struct{})
	trigger(p.raw, OpClear, nil, nil, nil)
}

// Len returns the member count, recording an ITERATE dependency on mutable
// variants.
func (p *SetProxy) Len() int {
	if !p.variant.Readonly() {
		track(p.raw, OpIterate, iterateKey)
	}
	return p.raw.Len()
}

// Values enumerates the members, wrapped per the variant's depth. Mutable
// variants record an ITERATE dependency.
func (p *SetProxy) Values() []any {
	if !p.variant.Readonly() {
		track(p.raw, OpIterate, iterateKey)
	}
	raw := p.raw.Values()
	if p.variant.Shallow() {
		return raw
	}
	out := make([]any, len(raw))
	for i, v := range raw {
		if p.variant.Readonly() {
			out[i] = toReadonlyObserved(v, false)
		} else {
			out[i] = toObserved(v, false)
		}
	}
	return out
}
