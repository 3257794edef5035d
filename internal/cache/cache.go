// file: internal/cache/cache.go
// version: 1.2.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-1e2f3a4b5c6d

package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache is a simple generic TTL cache safe for concurrent use.
// A TTL of zero or less keeps entries until InvalidateAll.
type Cache[T any] struct {
	mu         sync.RWMutex
	items      map[string]entry[T]
	defaultTTL time.Duration
	now        func() time.Time
}

// New creates a cache with the given default TTL.
func New[T any](defaultTTL time.Duration) *Cache[T] {
	return &Cache[T]{
		items:      make(map[string]entry[T]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get retrieves a value if it exists and hasn't expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || e.expired(c.now()) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *Cache[T]) Set(key string, value T) {
	e := entry[T]{value: value}
	if c.defaultTTL > 0 {
		e.expiresAt = c.now().Add(c.defaultTTL)
	}
	c.mu.Lock()
	c.items[key] = e
	c.mu.Unlock()
}

// InvalidateAll removes all entries.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	c.items = make(map[string]entry[T])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache[T]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.items {
		if e.expired(now) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}
