package reactive

import (
	"runtime"
	"sync"
)

// TrackOp is the access kind recorded by track.
type TrackOp uint8

const (
	// OpGet records a plain property read.
	OpGet TrackOp = iota

	// OpHas records an existence check.
	OpHas

	// OpIterate records a key or value enumeration.
	OpIterate
)

// String returns the access kind name for diagnostics.
func (op TrackOp) String() string {
	switch op {
	case OpGet:
		return "get"
	case OpHas:
		return "has"
	case OpIterate:
		return "iterate"
	default:
		return "unknown"
	}
}

// TriggerOp is the mutation kind replayed by trigger.
type TriggerOp uint8

const (
	// OpSet replaces an existing key's value.
	OpSet TriggerOp = iota

	// OpAdd creates a key that did not exist.
	OpAdd

	// OpDelete removes an existing key.
	OpDelete

	// OpClear removes every key at once.
	OpClear
)

// String returns the mutation kind name for diagnostics.
func (op TriggerOp) String() string {
	switch op {
	case OpSet:
		return "set"
	case OpAdd:
		return "add"
	case OpDelete:
		return "delete"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

// sentinelKey names virtual dependency keys that are not real properties.
type sentinelKey string

const (
	// lengthKey is the sequence length sentinel. Sequence enumeration
	// depends on it, and any mutation that changes the length triggers it.
	lengthKey sentinelKey = "length"

	// iterateKey is the generic iteration sentinel for records and
	// collections. Any mutation that changes the key set triggers it.
	iterateKey sentinelKey = "iterate"

	// payloadKey is the single dependency key of a Cell or Computed.
	payloadKey sentinelKey = "value"
)

// Listener is anything that can be notified when a dependency changes.
// Implemented by Effect and Computed.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a unique identifier, used for deduplication.
	ID() uint64
}

// Cleanup is returned by effect functions to release resources. It runs
// before the effect re-runs and when the effect is stopped.
type Cleanup func()

// depSink is implemented by listeners that keep back-references to the
// dependency buckets they appear in, so they can unsubscribe on re-run.
type depSink interface {
	addDep(*dep)
}

// dep is one dependency bucket: the subscribers of a single (target, key)
// pair. The target identity and key are kept so empty buckets can be pruned
// from the graph when their last subscriber leaves.
type dep struct {
	targetID uintptr
	key      any
	subs     map[uint64]Listener
}

var (
	depMu        sync.Mutex
	depsByTarget = make(map[uintptr]map[any]*dep)
)

// track records that the active listener depends on (target, key).
// No-op when no listener is active or tracking is paused.
func track(target any, op TrackOp, key any) {
	tc := currentTracking()
	if tc.listener == nil || tc.pauseDepth > 0 {
		return
	}

	id := identityOf(target)

	depMu.Lock()
	bucket := depsByTarget[id]
	if bucket == nil {
		bucket = make(map[any]*dep)
		depsByTarget[id] = bucket
	}
	d := bucket[key]
	if d == nil {
		d = &dep{targetID: id, key: key, subs: make(map[uint64]Listener)}
		bucket[key] = d
	}
	d.subs[tc.listener.ID()] = tc.listener
	depMu.Unlock()

	if sink, ok := tc.listener.(depSink); ok {
		sink.addDep(d)
	}

	emitTrack(TrackEvent{Target: target, Op: op, Key: key})
}

// trigger notifies everything that previously tracked (target, key).
//
// ADD and DELETE also invalidate iteration dependents: the length sentinel
// for sequences, the generic iteration sentinel otherwise. SET on a Map
// invalidates iteration too, since map iteration observes values. CLEAR
// invalidates every dependent of the target.
func trigger(target any, op TriggerOp, key, newValue, oldValue any) {
	emitTrigger(TriggerEvent{Target: target, Op: op, Key: key, NewValue: newValue, OldValue: oldValue})

	id := identityOf(target)

	depMu.Lock()
	bucket := depsByTarget[id]
	if bucket == nil {
		depMu.Unlock()
		return
	}

	var hit []*dep
	if op == OpClear {
		for _, d := range bucket {
			hit = append(hit, d)
		}
	} else {
		if d := bucket[key]; d != nil {
			hit = append(hit, d)
		}
		switch op {
		case OpAdd, OpDelete:
			if _, isList := target.(*[]any); isList {
				if d := bucket[lengthKey]; d != nil {
					hit = append(hit, d)
				}
			} else {
				if d := bucket[iterateKey]; d != nil {
					hit = append(hit, d)
				}
			}
		case OpSet:
			if _, isMap := target.(*Map); isMap {
				if d := bucket[iterateKey]; d != nil {
					hit = append(hit, d)
				}
			}
		}
	}

	// Copy before notify so listeners may re-track while we fan out.
	var self uint64
	if l := currentTracking().listener; l != nil {
		self = l.ID()
	}
	seen := make(map[uint64]bool)
	var notify []Listener
	for _, d := range hit {
		for lid, l := range d.subs {
			// A listener never re-triggers itself mid-run.
			if lid == self || seen[lid] {
				continue
			}
			seen[lid] = true
			notify = append(notify, l)
		}
	}
	depMu.Unlock()

	if len(notify) == 0 {
		return
	}

	tc := currentTracking()
	if tc.batchDepth > 0 {
		tc.pending = append(tc.pending, notify...)
		return
	}
	for _, l := range notify {
		l.MarkDirty()
	}
}

// releaseDep removes a listener from a bucket, pruning the bucket (and the
// target's entry) when it empties. This is the explicit reclamation path: a
// target with no subscribers holds no graph state at all.
func releaseDep(d *dep, l Listener) {
	depMu.Lock()
	defer depMu.Unlock()
	delete(d.subs, l.ID())
	if len(d.subs) > 0 {
		return
	}
	if bucket := depsByTarget[d.targetID]; bucket != nil {
		if bucket[d.key] == d {
			delete(bucket, d.key)
		}
		if len(bucket) == 0 {
			delete(depsByTarget, d.targetID)
		}
	}
}

// trackingContext holds the reactive state for one goroutine.
type trackingContext struct {
	// listener is what's currently tracking dependencies. nil means reads
	// don't create subscriptions.
	listener Listener

	// pauseDepth suspends tracking while > 0. Sequence mutators raise it
	// around their internal length and index probes.
	pauseDepth int

	// batchDepth tracks nested Batch calls. While > 0, notifications are
	// queued instead of fired.
	batchDepth int

	// pending accumulates listeners to notify when the outermost batch
	// completes. Deduplicated by ID before notification.
	pending []Listener
}

// trackingContexts stores per-goroutine contexts, keyed by goroutine ID.
var trackingContexts sync.Map

// goroutineID extracts the current goroutine's ID from the runtime stack.
// Implementation detail; never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack begins "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentTracking returns the tracking context for this goroutine, creating
// one on first use.
func currentTracking() *trackingContext {
	gid := goroutineID()
	if tc, ok := trackingContexts.Load(gid); ok {
		return tc.(*trackingContext)
	}
	tc := &trackingContext{}
	trackingContexts.Store(gid, tc)
	return tc
}

// setListener installs l as the active listener and returns the previous one
// so it can be restored.
func setListener(l Listener) Listener {
	tc := currentTracking()
	old := tc.listener
	tc.listener = l
	return old
}

// WithListener runs fn with l receiving dependency subscriptions.
// Used by schedulers that track on behalf of an external computation.
func WithListener(l Listener, fn func()) {
	old := setListener(l)
	defer setListener(old)
	fn()
}

// pauseTracking suspends dependency recording on this goroutine.
func pauseTracking() {
	currentTracking().pauseDepth++
}

// resumeTracking reverses one pauseTracking call.
func resumeTracking() {
	tc := currentTracking()
	if tc.pauseDepth > 0 {
		tc.pauseDepth--
	}
}
