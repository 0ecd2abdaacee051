// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"time"

	"github.com/taibuivan/tessera/internal/platform/cache"
	"github.com/taibuivan/tessera/internal/platform/metrics"
)

// # Schema Resolution

// Resolver translates tenant-facing identifiers (subdomain or tenant ID)
// into physical schema names, minimizing repeated database lookups through
// a bounded LRU/TTL cache.
//
// # Cache Strategy
//
// Every resolution is cache-first: a hit returns immediately, a miss queries
// the shared partition and populates the cache. Callers that mutate a tenant
// are responsible for calling [Resolver.Invalidate] afterwards.
type Resolver struct {
	repository Repository
	cache      *cache.Cache[string]
	records    *cache.Cache[*Tenant]
	metrics    *metrics.Registry
}

// NewResolver constructs a [Resolver] with its own isolated cache instances.
func NewResolver(repository Repository, cacheSize int, ttl time.Duration, registry *metrics.Registry) *Resolver {
	return &Resolver{
		repository: repository,
		cache:      cache.New[string](cacheSize, ttl),
		records:    cache.New[*Tenant](cacheSize, ttl),
		metrics:    registry,
	}
}

/*
ResolveBySubdomain resolves the tenant schema name with a cache-first strategy.

Parameters:
  - context: context.Context
  - subdomain: string (Request-facing tenant identifier)

Returns:
  - string: Physical schema name
  - error: apperr.NotFound if no tenant matches, or database errors
*/
func (resolver *Resolver) ResolveBySubdomain(context context.Context, subdomain string) (string, error) {

	// ── 1. Cache Lookup ───────────────────────────────────────────────────

	key := cache.TenantKey(subdomain)
	if schema, found := resolver.cache.Get(key); found {
		resolver.metrics.ObserveCacheLookup("tenant_schema", true)
		return schema, nil
	}
	resolver.metrics.ObserveCacheLookup("tenant_schema", false)

	// ── 2. Durable Lookup ─────────────────────────────────────────────────

	tenant, err := resolver.repository.FindBySubdomain(context, subdomain)
	if err != nil {
		return "", err
	}

	// ── 3. Cache Population ───────────────────────────────────────────────

	resolver.cache.Set(key, tenant.SchemaName)

	return tenant.SchemaName, nil
}

/*
ResolveByTenantID resolves the tenant schema name by tenant UUID.

Parameters:
  - context: context.Context
  - tenantID: string (Tenant UUID)

Returns:
  - string: Physical schema name
  - error: apperr.NotFound if no tenant matches, or database errors
*/
func (resolver *Resolver) ResolveByTenantID(context context.Context, tenantID string) (string, error) {

	// ── 1. Cache Lookup ───────────────────────────────────────────────────

	key := cache.TenantIDKey(tenantID)
	if schema, found := resolver.cache.Get(key); found {
		resolver.metrics.ObserveCacheLookup("tenant_schema", true)
		return schema, nil
	}
	resolver.metrics.ObserveCacheLookup("tenant_schema", false)

	// ── 2. Durable Lookup ─────────────────────────────────────────────────

	tenant, err := resolver.repository.FindByID(context, tenantID)
	if err != nil {
		return "", err
	}

	// ── 3. Cache Population ───────────────────────────────────────────────

	resolver.cache.Set(key, tenant.SchemaName)

	return tenant.SchemaName, nil
}

/*
ResolveTenant resolves the full tenant record by subdomain, cache-first.

Description: The request middleware needs the tenant ID alongside the schema
name, so this variant caches the whole record instead of the schema string.

Parameters:
  - context: context.Context
  - subdomain: string (Request-facing tenant identifier)

Returns:
  - *Tenant: Hydrated tenant record
  - error: apperr.NotFound if no tenant matches, or database errors
*/
func (resolver *Resolver) ResolveTenant(context context.Context, subdomain string) (*Tenant, error) {

	// ── 1. Cache Lookup ───────────────────────────────────────────────────

	key := cache.TenantKey(subdomain)
	if record, found := resolver.records.Get(key); found {
		resolver.metrics.ObserveCacheLookup("tenant_record", true)
		return record, nil
	}
	resolver.metrics.ObserveCacheLookup("tenant_record", false)

	// ── 2. Durable Lookup ─────────────────────────────────────────────────

	tenant, err := resolver.repository.FindBySubdomain(context, subdomain)
	if err != nil {
		return nil, err
	}

	// ── 3. Cache Population ───────────────────────────────────────────────

	resolver.records.Set(key, tenant)
	resolver.cache.Set(key, tenant.SchemaName)

	return tenant, nil
}

/*
BusinessWindow returns a tenant's business-hours override, cache-first by
schema name. ok is false when the tenant has no override (or cannot be
loaded); callers fall back to the platform default in that case.

Parameters:
  - context: context.Context
  - schema: string (Physical schema name)

Returns:
  - start, end: int (Inclusive hour window)
  - ok: bool (false when the platform default applies)
*/
func (resolver *Resolver) BusinessWindow(context context.Context, schema string) (start, end int, ok bool) {
	key := cache.TenantSchemaKey(schema)

	record, found := resolver.records.Get(key)
	resolver.metrics.ObserveCacheLookup("tenant_record", found)
	if !found {
		var err error
		record, err = resolver.repository.FindBySchema(context, schema)
		if err != nil {
			return 0, 0, false
		}
		resolver.records.Set(key, record)
	}

	return record.BusinessWindow()
}

// Invalidate drops the cached mappings for a subdomain. Call after tenant
// mutations so stale schema routings cannot outlive the change.
func (resolver *Resolver) Invalidate(subdomain string) bool {
	key := cache.TenantKey(subdomain)
	if record, found := resolver.records.Get(key); found {
		resolver.records.Delete(cache.TenantSchemaKey(record.SchemaName))
	}
	dropped := resolver.cache.Delete(key)
	return resolver.records.Delete(key) || dropped
}

// CacheStats exposes the schema cache performance snapshot for monitoring.
func (resolver *Resolver) CacheStats() cache.Stats {
	return resolver.cache.Stats()
}

// ClearCache drops every cached mapping.
func (resolver *Resolver) ClearCache() {
	resolver.cache.Clear()
	resolver.records.Clear()
}
