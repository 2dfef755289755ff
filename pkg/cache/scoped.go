package cache

// ScopedKeyer wraps a Keyer with a prefix so several tools (or several
// configuration profiles) can share one cache directory.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SketchKey generates a prefixed key for sketch artifacts.
func (k *ScopedKeyer) SketchKey(contentHash string, opts SketchKeyOpts) string {
	return k.prefix + k.inner.SketchKey(contentHash, opts)
}

// PreviewKey generates a prefixed key for preview images.
func (k *ScopedKeyer) PreviewKey(contentHash string, opts PreviewKeyOpts) string {
	return k.prefix + k.inner.PreviewKey(contentHash, opts)
}
