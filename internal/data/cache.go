package data

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is an in-memory TTL store. The API keeps finished run reports here
// keyed by run ID.
type Cache[V any] struct {
	mu    sync.RWMutex
	store map[string]cacheEntry[V]
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewCache returns a cache whose entries expire after ttl. A sweeper
// removes expired entries every sweep interval; zero disables it.
func NewCache[V any](ttl, sweep time.Duration) *Cache[V] {
	c := &Cache[V]{
		store: make(map[string]cacheEntry[V]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if sweep > 0 {
		go c.cleanup(sweep)
	}
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.store[key]
	if !ok || c.now().After(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, v V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = cacheEntry[V]{value: v, expiresAt: c.now().Add(c.ttl)}
}

// Len counts stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Sweep drops expired entries.
func (c *Cache[V]) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.store {
		if now.After(e.expiresAt) {
			delete(c.store, k)
		}
	}
}

// Close stops the sweeper.
func (c *Cache[V]) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache[V]) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}
