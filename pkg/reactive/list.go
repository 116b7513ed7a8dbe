package reactive

// List is the wrapper handle for a sequence (*[]any).
//
// Index access mirrors record access, with two sequence-specific rules:
// cells stored in a sequence are exposed as cells (never auto-unwrapped),
// and enumeration depends on the length sentinel, so any mutation that
// changes the length invalidates enumerators.
//
// The mutation methods (Push, Pop, Shift, Unshift, Splice) are instrumented:
// they suspend dependency recording around their internal length and index
// probes, then notify exactly the indices whose values changed. The search
// methods (IndexOf, LastIndexOf, Includes) match against both raw and
// wrapped element identities, since a caller may hold either.
type List struct {
	variant Variant

	// target is the immediate wrapped value: the raw *[]any, or an inner
	// *List when this handle layers readonly over a mutable one.
	target any

	// raw is the innermost raw sequence, shared with target.
	raw *[]any
}

func (l *List) proxyVariant() Variant { return l.variant }
func (l *List) proxyTarget() any      { return l.target }

func (l *List) inner() *List {
	if in, ok := l.target.(*List); ok {
		return in
	}
	return nil
}

// Get reads index i, or nil when i is out of range. Mutable variants record
// a GET dependency on the index. Deep variants lazily wrap eligible nested
// values; cells are returned as-is.
func (l *List) Get(i int) any {
	var res any
	if in := l.inner(); in != nil {
		res = in.Get(i)
	} else {
		if !l.variant.Readonly() {
			track(l.raw, OpGet, i)
		}
		s := *l.raw
		if i < 0 || i >= len(s) {
			return nil
		}
		res = s[i]
	}

	if l.variant.Shallow() {
		return res
	}

	// Sequence index reads expose cells themselves, not their payloads.
	if _, ok := res.(*Cell); ok {
		return res
	}

	if l.variant.Readonly() {
		return toReadonlyObserved(res, false)
	}
	return toObserved(res, false)
}

// Set writes value at index i, growing the sequence with nils when i is past
// the end. A write inside the current bounds notifies SET dependents when
// the value materially changed; a write past the end notifies ADD (and
// length) dependents. Readonly variants absorb the write. Cells in sequences
// are replaced, never written through.
func (l *List) Set(i int, value any) {
	if l.variant.Readonly() {
		warn("set ignored on readonly list", "index", i)
		return
	}
	if i < 0 {
		warn("set ignored for negative index", "index", i)
		return
	}

	if !l.variant.Shallow() && !IsShallow(value) && !IsReadonly(value) {
		value = ToRaw(value)
	}

	s := *l.raw
	existed := i < len(s)
	if !existed {
		grown := make([]any, i+1)
		copy(grown, s)
		s = grown
		*l.raw = s
	}

	var old any
	if existed {
		old = s[i]
		if !l.variant.Shallow() {
			old = ToRaw(old)
		}
	}
	s[i] = value

	if !existed {
		trigger(l.raw, OpAdd, i, value, nil)
		return
	}
	if hasChanged(value, old) {
		trigger(l.raw, OpSet, i, value, old)
	}
}

// Len returns the sequence length, recording a dependency on the length
// sentinel for mutable variants.
func (l *List) Len() int {
	if !l.variant.Readonly() {
		track(l.raw, OpGet, lengthKey)
	}
	return len(*l.raw)
}

// Values enumerates the elements, wrapped per the variant's depth. Mutable
// variants record an ITERATE dependency on the length sentinel.
func (l *List) Values() []any {
	if !l.variant.Readonly() {
		track(l.raw, OpIterate, lengthKey)
	}
	s := *l.raw
	out := make([]any, len(s))
	for i, v := range s {
		if l.variant.Shallow() {
			out[i] = v
			continue
		}
		if _, ok := v.(*Cell); ok {
			out[i] = v
			continue
		}
		if l.variant.Readonly() {
			out[i] = toReadonlyObserved(v, false)
		} else {
			out[i] = toObserved(v, false)
		}
	}
	return out
}

// Push appends values and returns the new length.
func (l *List) Push(values ...any) int {
	if l.variant.Readonly() {
		warn("push ignored on readonly list")
		return len(*l.raw)
	}
	return l.mutate(func(s []any) []any {
		return append(s, l.normalize(values)...)
	})
}

// Pop removes and returns the last element, or nil when empty.
func (l *List) Pop() any {
	if l.variant.Readonly() {
		warn("pop ignored on readonly list")
		return nil
	}
	var removed any
	l.mutate(func(s []any) []any {
		if len(s) == 0 {
			return s
		}
		removed = s[len(s)-1]
		return s[:len(s)-1]
	})
	return removed
}

// Shift removes and returns the first element, or nil when empty.
func (l *List) Shift() any {
	if l.variant.Readonly() {
		warn("shift ignored on readonly list")
		return nil
	}
	var removed any
	l.mutate(func(s []any) []any {
		if len(s) == 0 {
			return s
		}
		removed = s[0]
		out := make([]any, len(s)-1)
		copy(out, s[1:])
		return out
	})
	return removed
}

// Unshift prepends values and returns the new length.
func (l *List) Unshift(values ...any) int {
	if l.variant.Readonly() {
		warn("unshift ignored on readonly list")
		return len(*l.raw)
	}
	return l.mutate(func(s []any) []any {
		out := make([]any, 0, len(s)+len(values))
		out = append(out, l.normalize(values)...)
		return append(out, s...)
	})
}

// Splice removes count elements starting at start, inserts items in their
// place, and returns the removed elements. Negative start counts from the
// end; out-of-range arguments are clamped.
func (l *List) Splice(start, count int, items ...any) []any {
	if l.variant.Readonly() {
		warn("splice ignored on readonly list")
		return nil
	}
	var removed []any
	l.mutate(func(s []any) []any {
		n := len(s)
		if start < 0 {
			start += n
			if start < 0 {
				start = 0
			}
		}
		if start > n {
			start = n
		}
		if count < 0 {
			count = 0
		}
		if count > n-start {
			count = n - start
		}

		removed = make([]any, count)
		copy(removed, s[start:start+count])

		out := make([]any, 0, n-count+len(items))
		out = append(out, s[:start]...)
		out = append(out, l.normalize(items)...)
		out = append(out, s[start+count:]...)
		return out
	})
	return removed
}

// normalize applies deep-mode write normalization to incoming elements.
func (l *List) normalize(values []any) []any {
	if l.variant.Shallow() {
		return values
	}
	out := make([]any, len(values))
	for i, v := range values {
		if !IsShallow(v) && !IsReadonly(v) {
			v = ToRaw(v)
		}
		out[i] = v
	}
	return out
}

// mutate applies an in-place rewrite of the sequence and notifies exactly
// what changed: SET per index whose value differs, ADD per appended index,
// DELETE per truncated index (carrying the prior value). Dependency
// recording is suspended for the duration so internal probes cannot create
// spurious self-dependencies. Returns the new length.
func (l *List) mutate(rewrite func([]any) []any) int {
	pauseTracking()
	defer resumeTracking()

	before := *l.raw
	snapshot := make([]any, len(before))
	copy(snapshot, before)

	after := rewrite(before)
	*l.raw = after

	shared := len(snapshot)
	if len(after) < shared {
		shared = len(after)
	}
	for i := 0; i < shared; i++ {
		if hasChanged(after[i], snapshot[i]) {
			trigger(l.raw, OpSet, i, after[i], snapshot[i])
		}
	}
	for i := shared; i < len(after); i++ {
		trigger(l.raw, OpAdd, i, after[i], nil)
	}
	for i := len(snapshot) - 1; i >= shared; i-- {
		trigger(l.raw, OpDelete, i, nil, snapshot[i])
	}
	return len(after)
}

// IndexOf returns the first index holding v, or -1. Elements match by
// identity against both the given value and its raw form. Mutable variants
// record dependencies on the probed indices and the length.
func (l *List) IndexOf(v any) int {
	s := l.searchTarget()
	raw := ToRaw(v)
	for i, elem := range s {
		if l.matches(elem, v, raw) {
			return i
		}
	}
	return -1
}

// LastIndexOf returns the last index holding v, or -1.
func (l *List) LastIndexOf(v any) int {
	s := l.searchTarget()
	raw := ToRaw(v)
	for i := len(s) - 1; i >= 0; i-- {
		if l.matches(s[i], v, raw) {
			return i
		}
	}
	return -1
}

// Includes reports whether the sequence holds v.
func (l *List) Includes(v any) bool {
	return l.IndexOf(v) >= 0
}

// searchTarget snapshots the raw elements for a search, recording index and
// length dependencies for mutable variants so later mutations re-run the
// searching computation.
func (l *List) searchTarget() []any {
	s := *l.raw
	if !l.variant.Readonly() {
		track(l.raw, OpGet, lengthKey)
		for i := range s {
			track(l.raw, OpGet, i)
		}
	}
	return s
}

// matches compares a stored element against the caller's value and its raw
// form, so searches succeed whichever one the caller holds.
func (l *List) matches(elem, v, raw any) bool {
	if sameValue(elem, v) || sameValue(elem, raw) {
		return true
	}
	elemRaw := ToRaw(elem)
	return sameValue(elemRaw, v) || sameValue(elemRaw, raw)
}
