// Package cache implements a process-local key/value store with per-entry
// expiration.
//
// Expired entries are removed lazily on Get, or eagerly by Purge. There is no
// size bound; entries are never authoritative and the owner must tolerate the
// cache being emptied at any time.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is applied by Set when the cache was built without a TTL.
const DefaultTTL = 300 * time.Second

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is safe for concurrent use. All map access is serialized by mu.
//
// Every key carries a generation that Invalidate advances. A reader that
// loads a value from the source of truth captures Generation first and stores
// with SetIfGeneration, so a load that raced an invalidation is discarded.
type Cache[V any] struct {
	mu         sync.Mutex
	items      map[string]entry[V]
	gens       map[string]uint64
	defaultTTL time.Duration
	now        func() time.Time
}

// Option customises a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New returns an empty cache whose Set uses defaultTTL. A non-positive
// defaultTTL selects DefaultTTL.
func New[V any](defaultTTL time.Duration, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache[V]{
		items:      make(map[string]entry[V]),
		gens:       make(map[string]uint64),
		defaultTTL: defaultTTL,
		now:        o.now,
	}
}

// Get returns the value stored under key. An entry whose expiration instant
// is not after the current time is dropped and reported absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key for the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value under key for ttl. A non-positive ttl produces an
// entry that is already expired.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

// Generation returns key's current generation.
func (c *Cache[V]) Generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gens[key]
}

// SetIfGeneration stores value under key for the default TTL only if key is
// still at generation gen, and reports whether it did.
func (c *Cache[V]) SetIfGeneration(key string, value V, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key] != gen {
		return false
	}
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(c.defaultTTL)}
	return true
}

// Invalidate removes key and advances its generation. Missing keys are
// ignored apart from the generation bump.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	c.gens[key]++
}

// Purge drops every expired entry and returns how many were removed.
func (c *Cache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including expired ones not yet
// removed. Generations are not entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}
