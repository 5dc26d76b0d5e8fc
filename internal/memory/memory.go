// Package memory provides a TTL'd in-memory cache for recommendation results.
//
// Ranking is deterministic against an unchanged index, so identical repeat
// queries can be served from cache without changing observable behavior.
package memory

import (
	"sync"
	"time"
)

// entry holds a cached value with its write time.
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is an in-memory key-value cache with TTL expiry and a size bound.
// For multi-node deployments, consider Redis instead.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	maxEntries int
	ttl        time.Duration
}

// NewCache creates a cache holding at most maxEntries values, each expiring
// ttl after being stored.
func NewCache[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		entries:    make(map[string]entry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
	}

	// Start cleanup goroutine
	go c.cleanupLoop()

	return c
}

// Get returns the cached value for key if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Since(e.storedAt) > c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores a value. When the cache is full, the oldest entry is evicted.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.entries[key] = entry[V]{value: value, storedAt: time.Now()}
}

// Invalidate drops every cached entry. Called on index reload, since cached
// results may reference the previous snapshot.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Len returns the number of cached entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[V]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// cleanupLoop periodically removes expired entries.
func (c *Cache[V]) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *Cache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, k)
		}
	}
}
