package cache

// ScopedKeyer prefixes every key of an inner Keyer. The server scopes keys
// by project name so that several instances can share one cache directory:
//
//	keyer := cache.NewScopedKeyer(nil, "project:GitViz:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey implements Keyer.
func (k *ScopedKeyer) LayoutKey(logHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(logHash, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(snapshotHash, opts)
}
