package reactive

import "testing"

func mustMap(t *testing.T, m *Map) *MapProxy {
	t.Helper()
	p, ok := Reactive(m).(*MapProxy)
	if !ok {
		t.Fatalf("expected *MapProxy, got %T", Reactive(m))
	}
	return p
}

func mustSet(t *testing.T, s *Set) *SetProxy {
	t.Helper()
	p, ok := Reactive(s).(*SetProxy)
	if !ok {
		t.Fatalf("expected *SetProxy, got %T", Reactive(s))
	}
	return p
}

func TestMapProxyBasics(t *testing.T) {
	rec := newRecorder(t)

	m := NewMap()
	p := mustMap(t, m)

	p.Set("a", 1)
	evs := rec.triggersFor(m)
	if len(evs) != 1 || evs[0].Op != OpAdd {
		t.Fatalf("a new entry fires ADD, got %+v", evs)
	}

	if v, ok := p.Get("a"); !ok || v != 1 {
		t.Errorf("expected 1, got %v %v", v, ok)
	}
	if !p.Has("a") || p.Has("z") {
		t.Error("Has must reflect the raw map")
	}

	p.Set("a", 2)
	evs = rec.triggersFor(m)
	if len(evs) != 2 || evs[1].Op != OpSet || evs[1].OldValue != 1 {
		t.Fatalf("an overwrite fires SET with the old value, got %+v", evs)
	}

	p.Set("a", 2)
	if len(rec.triggersFor(m)) != 2 {
		t.Error("a no-op overwrite must not notify")
	}

	if !p.Delete("a") {
		t.Error("deleting a present key reports true")
	}
	evs = rec.triggersFor(m)
	if len(evs) != 3 || evs[2].Op != OpDelete || evs[2].OldValue != 2 {
		t.Fatalf("delete fires DELETE with the prior value, got %+v", evs)
	}
	if p.Delete("a") {
		t.Error("deleting an absent key reports false")
	}
}

func TestMapProxyIterationInvalidation(t *testing.T) {
	m := NewMap()
	m.Set("a", 1)
	p := mustMap(t, m)

	sweeps := 0
	NewEffect(func() Cleanup {
		sweeps++
		_ = p.Keys()
		return nil
	})

	p.Set("b", 2)
	if sweeps != 2 {
		t.Error("adding an entry must invalidate enumerators")
	}

	// Overwriting invalidates enumerators too: entry values are part of
	// what enumeration observes.
	p.Set("b", 3)
	if sweeps != 3 {
		t.Errorf("overwriting an entry must invalidate enumerators, ran %d times", sweeps)
	}

	p.Delete("b")
	if sweeps != 4 {
		t.Error("removing an entry must invalidate enumerators")
	}
}

func TestMapProxyClear(t *testing.T) {
	rec := newRecorder(t)

	m := NewMap()
	m.Set("a", 1)
	m.Set("b", 2)
	p := mustMap(t, m)

	reads := 0
	NewEffect(func() Cleanup {
		reads++
		_, _ = p.Get("a")
		return nil
	})

	p.Clear()
	if m.Len() != 0 {
		t.Error("Clear empties the raw map")
	}
	if reads != 2 {
		t.Error("Clear must invalidate every key dependent")
	}
	evs := rec.triggersFor(m)
	if len(evs) != 1 || evs[0].Op != OpClear {
		t.Fatalf("expected a single CLEAR, got %+v", evs)
	}

	p.Clear()
	if len(rec.triggersFor(m)) != 1 {
		t.Error("clearing an empty map fires nothing")
	}
}

func TestMapProxyWrappedKeyLookup(t *testing.T) {
	keyCell := NewCell(0)

	m := NewMap()
	m.Set(keyCell, "v")
	p := mustMap(t, m)

	if v, ok := p.Get(keyCell); !ok || v != "v" {
		t.Error("cells work as collection keys by identity")
	}

	inner := NewMap()
	m.Set(inner, "nested")
	if v, ok := p.Get(inner); !ok || v != "nested" {
		t.Error("lookup by the raw key must succeed")
	}
	if v, ok := p.Get(Reactive(inner)); !ok || v != "nested" {
		t.Error("lookup by the wrapped form of a raw key must succeed")
	}
}

func TestMapProxyDeepValues(t *testing.T) {
	inner := map[string]any{"x": 1}
	m := NewMap()
	p := mustMap(t, m)

	p.Set("inner", Reactive(inner))
	if stored, _ := m.Get("inner"); !sameIdentity(stored, inner) {
		t.Error("deep writes store the raw form")
	}

	got, _ := p.Get("inner")
	if _, ok := got.(*Record); !ok {
		t.Fatalf("deep reads wrap eligible values, got %T", got)
	}
}

func TestMapProxyForEach(t *testing.T) {
	m := NewMap()
	m.Set("a", 1)
	m.Set("b", 2)
	p := mustMap(t, m)

	sum := 0
	p.ForEach(func(_, v any) {
		sum += v.(int)
	})
	if sum != 3 {
		t.Errorf("expected 3, got %d", sum)
	}
	if p.Len() != 2 {
		t.Errorf("expected Len 2, got %d", p.Len())
	}
}

func TestReadonlyMapAbsorbsWrites(t *testing.T) {
	m := NewMap()
	m.Set("a", 1)
	ro := Readonly(m).(*MapProxy)

	ro.Set("a", 2)
	ro.Set("b", 3)
	ro.Delete("a")
	ro.Clear()

	if v, _ := m.Get("a"); v != 1 || m.Len() != 1 {
		t.Error("readonly map writes must not mutate")
	}
}

func TestSetProxyBasics(t *testing.T) {
	rec := newRecorder(t)

	s := NewSet()
	p := mustSet(t, s)

	p.Add("a")
	if !p.Has("a") {
		t.Error("added members must be present")
	}
	evs := rec.triggersFor(s)
	if len(evs) != 1 || evs[0].Op != OpAdd {
		t.Fatalf("a new member fires ADD, got %+v", evs)
	}

	p.Add("a")
	if len(rec.triggersFor(s)) != 1 {
		t.Error("re-adding a member fires nothing")
	}

	if !p.Delete("a") {
		t.Error("removing a present member reports true")
	}
	evs = rec.triggersFor(s)
	if len(evs) != 2 || evs[1].Op != OpDelete {
		t.Fatalf("removal fires DELETE, got %+v", evs)
	}
	if p.Delete("a") {
		t.Error("removing an absent member reports false")
	}
}

func TestSetProxyMembershipDependency(t *testing.T) {
	s := NewSet()
	p := mustSet(t, s)

	checks := 0
	NewEffect(func() Cleanup {
		checks++
		_ = p.Has("a")
		return nil
	})

	p.Add("a")
	if checks != 2 {
		t.Error("adding the probed member must re-run the check")
	}
	p.Add("b")
	if checks != 2 {
		t.Error("adding an unrelated member must not re-run the check")
	}
}

func TestSetProxyIterationAndClear(t *testing.T) {
	s := NewSet()
	s.Add("a")
	p := mustSet(t, s)

	sweeps := 0
	NewEffect(func() Cleanup {
		sweeps++
		_ = p.Values()
		return nil
	})

	p.Add("b")
	if sweeps != 2 {
		t.Error("membership changes must invalidate enumerators")
	}

	p.Clear()
	if s.Len() != 0 {
		t.Error("Clear empties the raw set")
	}
	if sweeps != 3 {
		t.Error("Clear must invalidate enumerators")
	}
	if p.Len() != 0 {
		t.Errorf("expected Len 0, got %d", p.Len())
	}
}

func TestUnhashableKeysDegradeSafely(t *testing.T) {
	rec := newRecorder(t)

	m := NewMap()
	p := mustMap(t, m)
	bad := map[string]any{"id": 1}

	// None of these may panic; the key has no hashable form.
	p.Set(bad, "v")
	if m.Len() != 0 {
		t.Error("an unusable key must not create an entry")
	}
	if _, ok := p.Get(bad); ok {
		t.Error("an unusable key reads as absent")
	}
	if p.Has(bad) {
		t.Error("an unusable key is never present")
	}
	if p.Delete(bad) {
		t.Error("deleting under an unusable key reports false")
	}
	if len(rec.triggersFor(m)) != 0 {
		t.Error("refused operations must not notify")
	}

	s := NewSet()
	sp := mustSet(t, s)
	worse := map[string]any{"id": 2}

	sp.Add(worse)
	if s.Len() != 0 {
		t.Error("an unusable member must not be inserted")
	}
	if sp.Has(worse) {
		t.Error("an unusable member is never present")
	}
	if sp.Delete(worse) {
		t.Error("removing an unusable member reports false")
	}
}

func TestSetProxyWrappedMemberLookup(t *testing.T) {
	inner := NewMap()

	s := NewSet()
	p := mustSet(t, s)
	p.Add(Reactive(inner))

	if !s.Has(inner) {
		t.Error("members are stored in raw form")
	}
	if !p.Has(inner) || !p.Has(Reactive(inner)) {
		t.Error("membership checks match both raw and wrapped forms")
	}
	if !p.Delete(Reactive(inner)) {
		t.Error("removal by the wrapped form must succeed")
	}
}
