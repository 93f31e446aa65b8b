package completion

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache defaults.
const (
	DefaultCacheExpiration = 10 * time.Minute
	DefaultCacheCleanup    = 30 * time.Minute
)

// Cache stores completion candidates keyed by typed prefix.
type Cache struct {
	cache *gocache.Cache
}

// NewCache creates a cache with the given expiration and cleanup interval.
func NewCache(expiration, cleanup time.Duration) *Cache {
	return &Cache{cache: gocache.New(expiration, cleanup)}
}

// Get returns the candidates cached for prefix.
func (c *Cache) Get(prefix string) ([]string, bool) {
	v, found := c.cache.Get(prefix)
	if !found {
		return nil, false
	}
	candidates, ok := v.([]string)
	return candidates, ok
}

// Set caches candidates for prefix with the default expiration.
func (c *Cache) Set(prefix string, candidates []string) {
	c.cache.Set(prefix, candidates, gocache.DefaultExpiration)
}

// InvalidateCache drops every cached entry.
func (c *Cache) InvalidateCache() {
	c.cache.Flush()
}

// Len returns the number of cached prefixes, expired ones included until
// cleanup runs.
func (c *Cache) Len() int {
	return c.cache.ItemCount()
}
