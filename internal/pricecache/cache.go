// Package pricecache provides a TTL cache for market price lookups so that
// an import touching many holdings of the same instrument only hits the
// upstream API once.
package pricecache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a cached price stays fresh. Intraday precision does
// not matter for reconciliation, so an hour is plenty.
const DefaultTTL = time.Hour

type entry struct {
	price     float64
	expiresAt time.Time
}

// Cache is a concurrency-safe price cache keyed by instrument identifier.
// Concurrent lookups for the same key are collapsed into a single upstream
// call via singleflight.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry
}

// New creates a cache with the given TTL; zero or negative selects DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached price for key, if present and unexpired.
func (c *Cache) Get(key string) (float64, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return 0, false
	}
	return e.price, true
}

// Put stores a price for key with the cache's TTL.
func (c *Cache) Put(key string, price float64) {
	c.mu.Lock()
	c.entries[key] = entry{price: price, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// GetOrFetch returns the cached price for key, or calls fetch to obtain it.
// Concurrent calls with the same key share one fetch. Fetch failures are not
// cached, so the next lookup retries.
func (c *Cache) GetOrFetch(key string, fetch func() (float64, error)) (float64, error) {
	if price, ok := c.Get(key); ok {
		return price, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if price, ok := c.Get(key); ok {
			return price, nil
		}
		price, err := fetch()
		if err != nil {
			return 0.0, err
		}
		c.Put(key, price)
		return price, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Evict removes a single key from the cache.
func (c *Cache) Evict(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every cached entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
