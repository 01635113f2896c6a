package cache

import (
	"time"

	"github.com/bluele/gcache"
)

const (
	// DefaultSize bounds the number of cached lookups
	DefaultSize = 256

	// DefaultTTL keeps station lookups for a while; station names and ids
	// change rarely
	DefaultTTL = 10 * time.Minute
)

// LookupCache is an in-memory LRU cache with TTL for raw lookup responses
type LookupCache struct {
	store gcache.Cache
}

// NewLookupCache creates a new cache holding at most size entries for ttl
func NewLookupCache(size int, ttl time.Duration) *LookupCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &LookupCache{
		store: gcache.New(size).
			LRU().
			Expiration(ttl).
			Build(),
	}
}

// Get retrieves a value from the cache
func (c *LookupCache) Get(key string) ([]byte, bool) {
	v, err := c.store.Get(key)
	if err != nil {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// Set stores a value in the cache
func (c *LookupCache) Set(key string, value []byte) error {
	return c.store.Set(key, value)
}

// Len returns the number of live entries
func (c *LookupCache) Len() int {
	return c.store.Len(true)
}

// Clear removes all cache entries
func (c *LookupCache) Clear() {
	c.store.Purge()
}
