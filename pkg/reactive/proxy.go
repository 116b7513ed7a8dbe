package reactive

import "fmt"

// proxied is implemented by every wrapper handle. The flag queries are
// answered by method dispatch on the concrete handle, never stored on the
// raw value.
type proxied interface {
	// proxyVariant is the handle's fixed variant.
	proxyVariant() Variant

	// proxyTarget is the immediate wrapped value: the raw value, or an
	// inner handle when a readonly layer wraps a mutable one.
	proxyTarget() any
}

// Reactive returns a mutable, deeply observed handle for v.
//
// Eligible raw values (see the package documentation) produce a *Record,
// *List, *MapProxy or *SetProxy; repeated calls with the same raw value
// return the identical handle. Ineligible and skip-marked values are returned
// unchanged with a development-mode warning. Passing an already-readonly
// handle returns it unchanged: readonly status cannot be removed by
// re-wrapping.
func Reactive(v any) any {
	return wrap(v, MutableDeep, false)
}

// ShallowReactive returns a mutable handle that observes only top-level
// access: nested values and cells are returned verbatim.
func ShallowReactive(v any) any {
	return wrap(v, MutableShallow, false)
}

// Readonly returns a deeply readonly handle for v. Writes and deletes through
// it are absorbed without raising. Wrapping a mutable handle layers readonly
// on top of it, so reads still record dependencies through the inner handle.
func Readonly(v any) any {
	return wrap(v, ReadonlyDeep, false)
}

// ShallowReadonly returns a handle whose top level is readonly; nested values
// are returned verbatim.
func ShallowReadonly(v any) any {
	return wrap(v, ReadonlyShallow, false)
}

// wrap is the single construction path: classify, consult the identity
// cache, then build a handle for the variant. quiet suppresses the
// ineligible-value warning on the lazy nested-wrapping path.
func wrap(v any, variant Variant, quiet bool) any {
	if v == nil {
		if !quiet {
			warn("value cannot be made reactive", "type", "nil")
		}
		return v
	}

	// Cells are already observable in their own right.
	if _, ok := v.(*Cell); ok {
		return v
	}

	if p, ok := v.(proxied); ok {
		// Only layering readonly over a mutable handle builds a new
		// wrapper; every other re-wrap returns the input unchanged.
		if !(variant.Readonly() && !p.proxyVariant().Readonly()) {
			return v
		}
		return wrapHandle(p, variant)
	}

	if isSkipped(v) {
		if !quiet {
			warn("value is marked raw and cannot be wrapped", "type", fmt.Sprintf("%T", v))
		}
		return v
	}

	kind := classify(v)
	if kind == targetInvalid {
		if !quiet {
			warn("value cannot be made reactive", "type", fmt.Sprintf("%T", v))
		}
		return v
	}

	cache := cacheFor(variant)
	id := identityOf(v)
	if h := cache.lookup(id); h != nil {
		return h
	}

	switch kind {
	case targetRecord:
		raw := v.(map[string]any)
		return registerHandle(cache, id, &Record{variant: variant, target: v, raw: raw})
	case targetList:
		raw := v.(*[]any)
		return registerHandle(cache, id, &List{variant: variant, target: v, raw: raw})
	default:
		switch raw := v.(type) {
		case *Map:
			return registerHandle(cache, id, &MapProxy{variant: variant, target: v, raw: raw})
		case *Set:
			return registerHandle(cache, id, &SetProxy{variant: variant, target: v, raw: raw})
		}
	}
	return v
}

// wrapHandle builds the readonly-over-mutable layering for p. The cache key
// is the inner handle itself, so layering is idempotent per variant.
func wrapHandle(p proxied, variant Variant) any {
	cache := cacheFor(variant)
	id := identityOf(p)
	if h := cache.lookup(id); h != nil {
		return h
	}

	switch inner := p.(type) {
	case *Record:
		return registerHandle(cache, id, &Record{variant: variant, target: inner, raw: inner.raw})
	case *List:
		return registerHandle(cache, id, &List{variant: variant, target: inner, raw: inner.raw})
	case *MapProxy:
		return registerHandle(cache, id, &MapProxy{variant: variant, target: inner, raw: inner.raw})
	case *SetProxy:
		return registerHandle(cache, id, &SetProxy{variant: variant, target: inner, raw: inner.raw})
	default:
		return p
	}
}

// toObserved lazily wraps an eligible nested value as mutable, passing
// everything else through untouched. shallow short-circuits wrapping.
func toObserved(v any, shallow bool) any {
	if shallow {
		return v
	}
	return wrap(v, MutableDeep, true)
}

// toReadonlyObserved is the readonly counterpart of toObserved.
func toReadonlyObserved(v any, shallow bool) any {
	if shallow {
		return v
	}
	return wrap(v, ReadonlyDeep, true)
}

// ToRaw peels every wrapper layer and returns the innermost raw value.
// Idempotent: raw values pass through unchanged.
func ToRaw(v any) any {
	for {
		p, ok := v.(proxied)
		if !ok {
			return v
		}
		v = p.proxyTarget()
	}
}

// IsProxy reports whether v is a wrapper handle of any variant.
func IsProxy(v any) bool {
	_, ok := v.(proxied)
	return ok
}

// IsReactive reports whether v is mutable-observable. A readonly handle
// layered over a mutable one still reports true: layering readonly preserves
// the underlying observability.
func IsReactive(v any) bool {
	p, ok := v.(proxied)
	if !ok {
		return false
	}
	if p.proxyVariant().Readonly() {
		return IsReactive(p.proxyTarget())
	}
	return true
}

// IsReadonly reports whether v is a readonly handle or a readonly cell.
func IsReadonly(v any) bool {
	if c, ok := v.(*Cell); ok {
		return c.readonly
	}
	p, ok := v.(proxied)
	return ok && p.proxyVariant().Readonly()
}

// IsShallow reports whether v is a shallow handle.
func IsShallow(v any) bool {
	p, ok := v.(proxied)
	return ok && p.proxyVariant().Shallow()
}
