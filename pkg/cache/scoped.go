package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several workspaces
// can share one cache backend without colliding.
//
//	keyer := cache.NewScopedKeyer(nil, "ws:"+name+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ProjectionKey(itemsHash string) string {
	return k.prefix + k.inner.ProjectionKey(itemsHash)
}

func (k *ScopedKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(itemsHash, opts)
}

func (k *ScopedKeyer) ExportKey(graphHash string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(graphHash, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)
