package reactive

// Variant is a handle's fixed combination of mutability and depth.
// It is chosen at wrap time and never changes afterwards.
type Variant uint8

const (
	// MutableDeep observes reads and writes and lazily wraps nested values.
	MutableDeep Variant = iota

	// MutableShallow observes only top-level reads and writes; nested values
	// are returned verbatim.
	MutableShallow

	// ReadonlyDeep rejects writes and wraps nested values as readonly.
	ReadonlyDeep

	// ReadonlyShallow rejects top-level writes; nested values are returned
	// verbatim.
	ReadonlyShallow
)

// Readonly reports whether handles of this variant reject mutation.
func (v Variant) Readonly() bool {
	return v == ReadonlyDeep || v == ReadonlyShallow
}

// Shallow reports whether handles of this variant skip nested wrapping.
func (v Variant) Shallow() bool {
	return v == MutableShallow || v == ReadonlyShallow
}

// String returns the variant name for diagnostics.
func (v Variant) String() string {
	switch v {
	case MutableDeep:
		return "mutable"
	case MutableShallow:
		return "mutable-shallow"
	case ReadonlyDeep:
		return "readonly"
	case ReadonlyShallow:
		return "readonly-shallow"
	default:
		return "unknown"
	}
}
