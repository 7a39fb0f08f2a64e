//go:build !js

package ec

import (
	"github.com/VictoriaMetrics/fastcache"
)

// Cache is a size-bounded memo of arithmetic results shared by any number of
// backends. Entries are keyed by operation, backend, field modulus, curve
// coefficient a and operands, so curves never see each other's results.
// Old entries are evicted once the memory ceiling is reached.
type Cache struct {
	fc *fastcache.Cache
}

// NewCache returns a cache holding at most maxBytes of entries (fastcache
// rounds small sizes up to its minimum of 32MB). maxBytes <= 0 returns nil,
// which disables memoisation wherever the cache is passed.
func NewCache(maxBytes int) *Cache {
	if maxBytes <= 0 {
		return nil
	}
	return &Cache{fc: fastcache.New(maxBytes)}
}

// Stats returns the current counters. A nil cache reports zeros.
func (c *Cache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	var s fastcache.Stats
	c.fc.UpdateStats(&s)
	return CacheStats{Entries: s.EntriesCount, Gets: s.GetCalls, Misses: s.Misses}
}

// Reset drops every entry.
func (c *Cache) Reset() {
	if c == nil {
		return
	}
	c.fc.Reset()
}

func (c *Cache) get(key []byte) (Point, bool) {
	v, ok := c.fc.HasGet(nil, key)
	if !ok {
		return nil, false
	}
	p, ok := decodePoint(v)
	return p, ok
}

func (c *Cache) set(key []byte, p Point) {
	c.fc.Set(key, appendPoint(nil, p))
}
