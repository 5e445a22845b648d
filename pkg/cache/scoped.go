package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments (or
// datasets) can share one Redis instance without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "campus:")
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

// WeightsKey generates a prefixed weights key.
func (k *ScopedKeyer) WeightsKey(graphHash string, opts WeightsKeyOpts) string {
	return k.prefix + k.inner.WeightsKey(graphHash, opts)
}

// RouteKey generates a prefixed route key.
func (k *ScopedKeyer) RouteKey(graphHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(graphHash, opts)
}
