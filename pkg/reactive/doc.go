// Package reactive gives plain in-memory values transparent change-observation.
//
// Reading a property of an observed value records that the current computation
// depends on it; writing a property notifies every computation that previously
// read it. Consumers never see this machinery: they read and write fields on
// ordinary-looking handles.
//
// # Observable values
//
// Four raw shapes are eligible for observation:
//
//	map[string]any    keyed records
//	*[]any            sequences (a pointer, so mutators can grow them in place)
//	*reactive.Map     associative containers with arbitrary comparable keys
//	*reactive.Set     membership containers
//
// Everything else (scalars, structs, funcs, nil, frozen nil maps) is returned
// unwrapped by the factory.
//
// # Wrapping
//
// Reactive returns a mutable, deeply observed handle:
//
//	state := reactive.Reactive(map[string]any{"count": 0}).(*reactive.Record)
//	state.Get("count")   // records a dependency
//	state.Set("count", 1) // notifies dependents
//
// Readonly returns a handle that rejects writes without raising; ShallowReactive
// and ShallowReadonly observe only the top level. Wrapping is cached per raw
// value and variant, so repeated calls return the identical handle and cyclic
// object graphs terminate by cache hit.
//
// # Effects
//
// NewEffect runs a function immediately and re-runs it whenever anything it
// read changes:
//
//	reactive.NewEffect(func() reactive.Cleanup {
//	    fmt.Println("count is", state.Get("count"))
//	    return nil
//	})
//
// Computed caches a derived value and recomputes it lazily. Batch groups
// writes into a single notification phase.
//
// # Reference cells
//
// Cell is a single-slot container whose payload substitutes for itself when
// read through a record: a cell stored under a record key is auto-unwrapped on
// Get and written through on Set. Sequence index reads expose the cell itself.
//
// # Thread safety
//
// Dependency tracking is per-goroutine; the identity cache and the dependency
// graph are safe for concurrent use. Handles themselves perform raw reads and
// writes without locking, matching the single-writer discipline of the values
// they wrap.
package reactive
