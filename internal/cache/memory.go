package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/trialgraph/trialgraph/internal/model"
)

// MemoryCache implements in-memory caching of inference results.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a result from the cache.
func (c *MemoryCache) Get(key string) (model.InferenceResult, bool) {
	if val, found := c.cache.Get(key); found {
		return val.(model.InferenceResult), true
	}
	return model.InferenceResult{}, false
}

// Set stores a result in the cache with the given TTL.
func (c *MemoryCache) Set(key string, value model.InferenceResult, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

// Clear removes all cached results.
func (c *MemoryCache) Clear() {
	c.cache.Flush()
}
