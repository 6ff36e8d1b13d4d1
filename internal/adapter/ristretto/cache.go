// Package ristretto implements the cache port using dgraph-io/ristretto as
// the in-process L1 layer. The role resolver keeps short-TTL entries here.
package ristretto

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/atelierhq/atelier/internal/port/cache"
)

// Cache wraps a ristretto cache as an in-process L1 cache.
type Cache struct {
	c *ristretto.Cache[string, []byte]
}

var _ cache.Cache = (*Cache)(nil)

// New creates a ristretto-backed cache. maxCostBytes is the maximum total
// size of cached values in bytes.
func New(maxCostBytes int64) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	val, found := c.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores a value in the cache with the given TTL. A non-positive TTL
// stores the value without expiry. ristretto applies writes through an
// async buffer; the role resolver reads back immediately after priming, so
// Set waits for the buffer to drain before returning.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		c.c.Set(key, value, int64(len(value)))
	} else {
		c.c.SetWithTTL(key, value, int64(len(value)), ttl)
	}
	c.c.Wait()
	return nil
}

// Delete removes a value from the cache. Stale role entries must not
// survive an invalidation, so Delete also drains the write buffer.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	c.c.Wait()
	return nil
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
