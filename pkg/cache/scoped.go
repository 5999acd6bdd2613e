package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects can share
// one backend, e.g. a Redis instance used by many CI pipelines.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "mftypes:shell:")
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

// ManifestKey generates a prefixed manifest key.
func (k *ScopedKeyer) ManifestKey(baseURL, typesFile string) string {
	return k.prefix + k.inner.ManifestKey(baseURL, typesFile)
}

// StateKey generates a prefixed install state key.
func (k *ScopedKeyer) StateKey(installDir string) string {
	return k.prefix + k.inner.StateKey(installDir)
}
