package entity

// Freshness tells where the bytes of a CachedTile came from. It is computed
// per request and never persisted.
type Freshness int

const (
	FromCache Freshness = iota
	JustFetched
)

func (f Freshness) String() string {
	switch f {
	case FromCache:
		return "cache"
	case JustFetched:
		return "network"
	default:
		return "unknown"
	}
}

type CachedTile struct {
	Data      []byte
	Freshness Freshness
	// Marked is set when the debug fresh-tile marker rewrote Data.
	Marked bool
}

// Cacheable reports whether clients may keep the tile indefinitely.
func (t CachedTile) Cacheable() bool {
	return !t.Marked
}
