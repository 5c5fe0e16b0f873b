package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several tools
// can share one Redis database and a scoped Clear removes only their keys.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns inner with prefix prepended to its keys. A nil inner
// means the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) BaselineKey(cellsHash string, opts BaselineKeyOpts) string {
	return k.prefix + k.inner.BaselineKey(cellsHash, opts)
}
