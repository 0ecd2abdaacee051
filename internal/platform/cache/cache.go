// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache provides a bounded, thread-safe, in-memory key-value cache with
least-recently-used eviction and per-instance time-to-live.

Architecture:

  - Core: hashicorp/golang-lru's expirable LRU handles eviction and expiry.
  - Stats: this wrapper layers hit/miss accounting on top, since lookup
    performance of the tenant and principal caches is an operational signal.
  - Instances: each cache is an isolated value with its own lock and its own
    size/TTL tuning. The tenant-schema cache and the principal cache never
    share state.

Keys follow a small taxonomy so one instance can hold several record shapes:

	tenant:<subdomain>           subdomain  -> schema name
	tenant_id:<uuid>             tenant id  -> schema name
	user_id:<schema>:<uuid>      tenant user by id
	user_email:<schema>:<email>  tenant user by email
*/
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a bounded LRU cache with TTL expiry and hit/miss statistics.
type Cache[V any] struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, V]
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
}

// Stats is a point-in-time snapshot of cache performance.
type Stats struct {
	Size       int           `json:"size"`
	MaxSize    int           `json:"max_size"`
	Hits       uint64        `json:"hits"`
	Misses     uint64        `json:"misses"`
	HitRate    float64       `json:"hit_rate_percent"`
	TTLSeconds float64       `json:"ttl_seconds"`
	TTL        time.Duration `json:"-"`
}

// New creates a cache bounded to maxSize entries, each expiring ttl after
// insertion. A maxSize of zero or less falls back to a single entry.
func New[V any](maxSize int, ttl time.Duration) *Cache[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache[V]{
		entries: expirable.NewLRU[string, V](maxSize, nil, ttl),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached value for key. Expired or absent keys return the
// zero value and false, and count as a miss.
func (cache *Cache[V]) Get(key string) (V, bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	value, found := cache.entries.Get(key)
	if found {
		cache.hits++
	} else {
		cache.misses++
	}
	return value, found
}

// Set inserts or overwrites key, marking it most recently used. When the
// cache is full the least recently used entry is evicted.
func (cache *Cache[V]) Set(key string, value V) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.entries.Add(key, value)
}

// Delete removes key, reporting whether it was present.
func (cache *Cache[V]) Delete(key string) bool {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	return cache.entries.Remove(key)
}

// Exists reports whether key is present and unexpired, without touching
// recency or the hit/miss counters.
func (cache *Cache[V]) Exists(key string) bool {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	return cache.entries.Contains(key)
}

// Clear drops every entry and resets the statistics.
func (cache *Cache[V]) Clear() {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.entries.Purge()
	cache.hits = 0
	cache.misses = 0
}

// Stats returns a snapshot of size and lookup performance.
func (cache *Cache[V]) Stats() Stats {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	total := cache.hits + cache.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(cache.hits) / float64(total) * 100
	}

	return Stats{
		Size:       cache.entries.Len(),
		MaxSize:    cache.maxSize,
		Hits:       cache.hits,
		Misses:     cache.misses,
		HitRate:    hitRate,
		TTLSeconds: cache.ttl.Seconds(),
		TTL:        cache.ttl,
	}
}

// # Key Builders

// TenantKey builds the cache key for a subdomain -> schema mapping.
func TenantKey(subdomain string) string {
	return fmt.Sprintf("tenant:%s", subdomain)
}

// TenantIDKey builds the cache key for a tenant-id -> schema mapping.
func TenantIDKey(tenantID string) string {
	return fmt.Sprintf("tenant_id:%s", tenantID)
}

// TenantSchemaKey builds the cache key for a schema -> tenant record mapping.
func TenantSchemaKey(schema string) string {
	return fmt.Sprintf("tenant_schema:%s", schema)
}

// UserIDKey builds the cache key for a tenant user looked up by id.
func UserIDKey(schema, userID string) string {
	return fmt.Sprintf("user_id:%s:%s", schema, userID)
}

// UserEmailKey builds the cache key for a tenant user looked up by email.
func UserEmailKey(schema, email string) string {
	return fmt.Sprintf("user_email:%s:%s", schema, email)
}
