// Package cache implements the time-bounded, request-coalescing caches
// sitting between handlers and upstream providers.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"wallet-backend/internal/observability"
	"wallet-backend/internal/resilience"
)

// Cache is a TTL-bounded map with single-flight refresh. Concurrent lookups
// of the same stale key share one upstream fetch, and a completed fetch only
// replaces the slot if no newer fetch got there first.
type Cache[V any] struct {
	name    string
	ttl     time.Duration // 0 = entries never expire
	retry   resilience.RetryOptions
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]entry[V]
	group   singleflight.Group

	now func() time.Time // override in tests
}

type entry[V any] struct {
	fetchedAt time.Time
	value     V
}

// New creates a cache. ttl of 0 means entries never expire.
func New[V any](name string, ttl time.Duration, retry resilience.RetryOptions, metrics *observability.Metrics) *Cache[V] {
	return &Cache[V]{
		name:    name,
		ttl:     ttl,
		retry:   retry,
		metrics: metrics,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// GetOrRefresh returns the cached value for key if still fresh, otherwise
// fetches through the resilient access layer. On fetch failure the stale or
// absent entry is left untouched and the error propagates; there is no
// negative caching.
func (c *Cache[V]) GetOrRefresh(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && (c.ttl == 0 || c.now().Sub(e.fetchedAt) < c.ttl) {
		c.mu.Unlock()
		c.metrics.ObserveCacheHit(c.name)
		return e.value, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Counted here so callers that join an in-flight fetch do not
		// inflate the miss count beyond actual upstream load.
		c.metrics.ObserveCacheMiss(c.name)
		fetchedAt := c.now()
		value, err := resilience.Retry(ctx, c.retry, fetch)
		if err != nil {
			return nil, err
		}
		c.store(key, fetchedAt, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Peek returns the cached value regardless of freshness.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.value, ok
}

// store writes value under key unless a newer fetch already landed.
// Timestamp-guarded so a slow refresh never regresses a fresher entry.
func (c *Cache[V]) store(key string, fetchedAt time.Time, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok && existing.fetchedAt.After(fetchedAt) {
		return false
	}
	c.entries[key] = entry[V]{fetchedAt: fetchedAt, value: value}
	return true
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
