package reactive

import "testing"

func TestListBasicReadWrite(t *testing.T) {
	s := &[]any{"a", "b"}
	l := mustList(t, s)

	if l.Get(0) != "a" || l.Get(1) != "b" {
		t.Error("index reads must reflect the raw sequence")
	}
	if l.Get(2) != nil || l.Get(-1) != nil {
		t.Error("out-of-range reads return nil")
	}
	if l.Len() != 2 {
		t.Errorf("expected Len 2, got %d", l.Len())
	}

	l.Set(1, "c")
	if (*s)[1] != "c" {
		t.Error("writes must reach the raw sequence")
	}
}

func TestListSetNotifications(t *testing.T) {
	rec := newRecorder(t)

	s := &[]any{1}
	l := mustList(t, s)

	l.Set(0, 2)
	evs := rec.triggersFor(s)
	if len(evs) != 1 || evs[0].Op != OpSet || evs[0].OldValue != 1 {
		t.Fatalf("in-bounds write fires SET with the old value, got %+v", evs)
	}

	l.Set(0, 2)
	if len(rec.triggersFor(s)) != 1 {
		t.Error("a no-op write must not notify")
	}

	l.Set(3, "x")
	evs = rec.triggersFor(s)
	if len(evs) != 2 || evs[1].Op != OpAdd || evs[1].Key != 3 {
		t.Fatalf("past-the-end write fires ADD at the written index, got %+v", evs)
	}
	if len(*s) != 4 || (*s)[2] != nil {
		t.Error("past-the-end write grows the sequence with nil gaps")
	}
}

func TestListPushPop(t *testing.T) {
	rec := newRecorder(t)

	s := &[]any{"a"}
	l := mustList(t, s)

	if n := l.Push("b", "c"); n != 3 {
		t.Errorf("Push returns the new length, got %d", n)
	}
	evs := rec.triggersFor(s)
	if len(evs) != 2 || evs[0].Op != OpAdd || evs[0].Key != 1 || evs[1].Key != 2 {
		t.Fatalf("Push fires one ADD per appended index, got %+v", evs)
	}

	if got := l.Pop(); got != "c" {
		t.Errorf("Pop returns the removed element, got %v", got)
	}
	evs = rec.triggersFor(s)
	last := evs[len(evs)-1]
	if last.Op != OpDelete || last.Key != 2 || last.OldValue != "c" {
		t.Errorf("Pop fires DELETE with the prior value, got %+v", last)
	}

	l.Pop()
	l.Pop()
	if got := l.Pop(); got != nil {
		t.Errorf("Pop on an empty sequence returns nil, got %v", got)
	}
}

func TestListShiftUnshift(t *testing.T) {
	rec := newRecorder(t)

	s := &[]any{"b", "c"}
	l := mustList(t, s)

	if n := l.Unshift("a"); n != 3 {
		t.Errorf("Unshift returns the new length, got %d", n)
	}
	if (*s)[0] != "a" || (*s)[2] != "c" {
		t.Errorf("Unshift prepends, got %v", *s)
	}
	// Every shifted index changed, plus one appended slot.
	evs := rec.triggersFor(s)
	if len(evs) != 3 {
		t.Fatalf("expected 2 SET + 1 ADD, got %+v", evs)
	}

	if got := l.Shift(); got != "a" {
		t.Errorf("Shift returns the removed element, got %v", got)
	}
	if len(*s) != 2 || (*s)[0] != "b" {
		t.Errorf("Shift drops the head, got %v", *s)
	}
}

func TestListSplice(t *testing.T) {
	s := &[]any{"a", "b", "c", "d"}
	l := mustList(t, s)

	removed := l.Splice(1, 2, "x")
	if len(removed) != 2 || removed[0] != "b" || removed[1] != "c" {
		t.Errorf("Splice returns the removed elements, got %v", removed)
	}
	if len(*s) != 3 || (*s)[1] != "x" || (*s)[2] != "d" {
		t.Errorf("Splice rewrites in place, got %v", *s)
	}

	// Negative start counts from the end; oversized count clamps.
	removed = l.Splice(-1, 5)
	if len(removed) != 1 || removed[0] != "d" {
		t.Errorf("clamped Splice removed %v", removed)
	}
}

func TestListIterationInvalidation(t *testing.T) {
	s := &[]any{1, 2}
	l := mustList(t, s)

	sweeps := 0
	NewEffect(func() Cleanup {
		sweeps++
		_ = l.Values()
		return nil
	})

	l.Push(3)
	if sweeps != 2 {
		t.Errorf("growing the sequence must invalidate enumerators, ran %d times", sweeps)
	}

	l.Shift()
	if sweeps != 3 {
		t.Errorf("shrinking the sequence must invalidate enumerators, ran %d times", sweeps)
	}
}

func TestListLengthDependency(t *testing.T) {
	s := &[]any{1}
	l := mustList(t, s)

	reads := 0
	NewEffect(func() Cleanup {
		reads++
		_ = l.Len()
		return nil
	})

	l.Push(2)
	if reads != 2 {
		t.Error("Push must invalidate length dependents")
	}

	l.Set(0, 9) // same length
	if reads != 2 {
		t.Error("an in-bounds value change must not invalidate length dependents")
	}
}

func TestListCellsNotUnwrapped(t *testing.T) {
	c := NewCell(1)
	s := &[]any{c}
	l := mustList(t, s)

	got, ok := l.Get(0).(*Cell)
	if !ok {
		t.Fatalf("sequence index reads expose cells themselves, got %T", l.Get(0))
	}
	if got != c {
		t.Error("the exposed cell must be the stored instance")
	}

	vals := l.Values()
	if vals[0] != any(c) {
		t.Error("enumeration also exposes cells verbatim")
	}

	// Writes replace cells rather than writing through them.
	l.Set(0, 2)
	if (*s)[0] != 2 {
		t.Error("a sequence write replaces the element outright")
	}
	if c.Peek() != 1 {
		t.Error("the old cell payload must be untouched")
	}
}

func TestListDeepWrapping(t *testing.T) {
	inner := map[string]any{"x": 1}
	s := &[]any{inner}
	l := mustList(t, s)

	got, ok := l.Get(0).(*Record)
	if !ok {
		t.Fatalf("nested map must wrap lazily, got %T", l.Get(0))
	}
	if got != Reactive(inner) {
		t.Error("nested wrapper must be the cached handle")
	}
}

func TestListSearches(t *testing.T) {
	inner := map[string]any{"x": 1}
	s := &[]any{"a", inner, "a"}
	l := mustList(t, s)

	if l.IndexOf("a") != 0 || l.LastIndexOf("a") != 2 {
		t.Error("scalar searches must hit the expected indices")
	}
	if !l.Includes("a") || l.Includes("z") {
		t.Error("Includes must reflect membership")
	}

	// Searches succeed whether the caller holds the raw value or its wrapper.
	if l.IndexOf(inner) != 1 {
		t.Error("searching by the raw nested value must succeed")
	}
	if l.IndexOf(Reactive(inner)) != 1 {
		t.Error("searching by the wrapped nested value must succeed")
	}
}

func TestListSearchTracksMutations(t *testing.T) {
	s := &[]any{"a", "b"}
	l := mustList(t, s)

	searches := 0
	NewEffect(func() Cleanup {
		searches++
		_ = l.IndexOf("b")
		return nil
	})

	l.Set(0, "z")
	if searches != 2 {
		t.Error("changing a probed index must re-run the search")
	}
	l.Push("c")
	if searches != 3 {
		t.Error("changing the length must re-run the search")
	}
}

func TestReadonlyListAbsorbsMutators(t *testing.T) {
	rec := newRecorder(t)

	s := &[]any{"a"}
	ro := Readonly(s).(*List)

	ro.Set(0, "x")
	ro.Push("y")
	ro.Pop()
	ro.Shift()
	ro.Unshift("z")
	ro.Splice(0, 1)

	if len(*s) != 1 || (*s)[0] != "a" {
		t.Errorf("readonly mutators must not touch the raw sequence, got %v", *s)
	}
	if len(rec.triggersFor(s)) != 0 {
		t.Error("readonly mutators must not notify")
	}
}

func TestListMutatorsNoSelfDependency(t *testing.T) {
	s := &[]any{1, 2, 3}
	l := mustList(t, s)

	runs := 0
	NewEffect(func() Cleanup {
		runs++
		if runs == 1 {
			l.Push(4)
		}
		return nil
	})
	if runs != 1 {
		t.Errorf("a mutator's internal probes must not register the running effect, ran %d times", runs)
	}
}
