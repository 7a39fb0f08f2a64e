//go:build js

package ec

// Cache is unavailable in the browser: fastcache allocates with mmap.
// NewCache always returns nil there, so backends never memoise.
type Cache struct{}

func NewCache(maxBytes int) *Cache {
	return nil
}

func (c *Cache) Stats() CacheStats {
	return CacheStats{}
}

func (c *Cache) Reset() {}

func (c *Cache) get(key []byte) (Point, bool) {
	return nil, false
}

func (c *Cache) set(key []byte, p Point) {}
