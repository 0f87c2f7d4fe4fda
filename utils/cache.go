package utils

import (
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

// Cache is an in-memory key/value store with per-entry TTL. Expired entries
// are evicted lazily on the next Get; there is no background sweeper.
type Cache[T any] struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	store      map[string]cacheEntry[T]
}

func NewCache[T any](defaultTTL time.Duration) *Cache[T] {
	return &Cache[T]{
		defaultTTL: defaultTTL,
		store:      make(map[string]cacheEntry[T]),
	}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.store[key]
	if !ok {
		var zero T
		return zero, false
	}
	if time.Now().After(entry.expires) {
		delete(c.store, key)
		var zero T
		return zero, false
	}
	return entry.value, true
}

func (c *Cache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value under key for the given TTL. Stored values are
// replaced wholesale on refresh and must not be mutated by callers afterwards.
func (c *Cache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = cacheEntry[T]{
		value:   value,
		expires: time.Now().Add(ttl),
	}
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]cacheEntry[T])
}
