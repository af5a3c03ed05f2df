package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is a process-local TTL cache, safe for concurrent use.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache whose expired entries are purged
// every cleanupInterval. A cleanupInterval of 0 leaves purging to Get.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true, nil
	}
	return nil, false, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	c.cache.Set(key, data, ttl)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Close flushes all entries.
func (c *MemoryCache) Close() error {
	c.cache.Flush()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
