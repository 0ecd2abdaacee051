// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"time"

	"github.com/taibuivan/tessera/internal/platform/cache"
)

// # Principal Cache

// UserCache is a bounded LRU/TTL cache for tenant user lookups. Each user is
// reachable under two keys, by ID and by email, both scoped to the tenant
// schema so identical emails in different tenants never collide.
type UserCache struct {
	entries *cache.Cache[*TenantUser]
}

// NewUserCache constructs a user cache with the given bounds.
func NewUserCache(maxSize int, ttl time.Duration) *UserCache {
	return &UserCache{entries: cache.New[*TenantUser](maxSize, ttl)}
}

// GetByID returns the cached user for (schema, id), if present.
func (userCache *UserCache) GetByID(schema, id string) (*TenantUser, bool) {
	return userCache.entries.Get(cache.UserIDKey(schema, id))
}

// GetByEmail returns the cached user for (schema, email), if present.
func (userCache *UserCache) GetByEmail(schema, email string) (*TenantUser, bool) {
	return userCache.entries.Get(cache.UserEmailKey(schema, email))
}

// Put stores the user under both its ID and email keys.
func (userCache *UserCache) Put(schema string, user *TenantUser) {
	userCache.entries.Set(cache.UserIDKey(schema, user.ID), user)
	userCache.entries.Set(cache.UserEmailKey(schema, user.Email), user)
}

// Evict removes both cache entries for the user. Call on logout, revocation,
// and account mutation so stale principals cannot be served.
func (userCache *UserCache) Evict(schema string, user *TenantUser) {
	userCache.entries.Delete(cache.UserIDKey(schema, user.ID))
	userCache.entries.Delete(cache.UserEmailKey(schema, user.Email))
}

// Stats exposes the cache performance snapshot.
func (userCache *UserCache) Stats() cache.Stats {
	return userCache.entries.Stats()
}
