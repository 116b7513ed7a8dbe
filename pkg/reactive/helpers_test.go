package reactive

import (
	"reflect"
	"sync"
	"testing"
)

// recorder captures engine events for assertions.
type recorder struct {
	mu       sync.Mutex
	tracks   []TrackEvent
	triggers []TriggerEvent
	runs     []EffectRunEvent
}

func newRecorder(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	remove := RegisterHooks(r)
	t.Cleanup(remove)
	return r
}

func (r *recorder) OnTrack(ev TrackEvent) {
	r.mu.Lock()
	r.tracks = append(r.tracks, ev)
	r.mu.Unlock()
}

func (r *recorder) OnTrigger(ev TriggerEvent) {
	r.mu.Lock()
	r.triggers = append(r.triggers, ev)
	r.mu.Unlock()
}

func (r *recorder) OnEffectRun(ev EffectRunEvent) {
	r.mu.Lock()
	r.runs = append(r.runs, ev)
	r.mu.Unlock()
}

// triggersFor returns the recorded triggers whose target is target.
func (r *recorder) triggersFor(target any) []TriggerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := identityOf(target)
	var out []TriggerEvent
	for _, ev := range r.triggers {
		if identityOf(ev.Target) == want {
			out = append(out, ev)
		}
	}
	return out
}

// testListener counts MarkDirty calls.
type testListener struct {
	id    uint64
	dirty int
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() { l.dirty++ }
func (l *testListener) ID() uint64 { return l.id }

// sameIdentity reports whether two values are the same underlying object.
// Interface equality would panic on map values, so compare by pointer.
func sameIdentity(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// mustRecord wraps a raw map and asserts the handle type.
func mustRecord(t *testing.T, v any) *Record {
	t.Helper()
	r, ok := Reactive(v).(*Record)
	if !ok {
		t.Fatalf("expected *Record, got %T", Reactive(v))
	}
	return r
}

// mustList wraps a raw sequence and asserts the handle type.
func mustList(t *testing.T, v any) *List {
	t.Helper()
	l, ok := Reactive(v).(*List)
	if !ok {
		t.Fatalf("expected *List, got %T", Reactive(v))
	}
	return l
}
