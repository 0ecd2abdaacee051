// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/metrics"
	"github.com/taibuivan/tessera/internal/tenancy/tenant"
	"github.com/taibuivan/tessera/pkg/pointer"
)

// fakeRepository is an in-memory [tenant.Repository] that counts lookups.
type fakeRepository struct {
	tenants        map[string]*tenant.Tenant // keyed by subdomain
	subdomainCalls int
	idCalls        int
	schemaCalls    int
}

func newFakeRepository(tenants ...*tenant.Tenant) *fakeRepository {
	repository := &fakeRepository{tenants: map[string]*tenant.Tenant{}}
	for _, entry := range tenants {
		repository.tenants[entry.Subdomain] = entry
	}
	return repository
}

func (repository *fakeRepository) FindBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	repository.subdomainCalls++
	if found, ok := repository.tenants[subdomain]; ok {
		return found, nil
	}
	return nil, apperr.NotFound("Tenant")
}

func (repository *fakeRepository) FindByID(_ context.Context, id string) (*tenant.Tenant, error) {
	repository.idCalls++
	for _, entry := range repository.tenants {
		if entry.ID == id {
			return entry, nil
		}
	}
	return nil, apperr.NotFound("Tenant")
}

func (repository *fakeRepository) FindBySchema(_ context.Context, schema string) (*tenant.Tenant, error) {
	repository.schemaCalls++
	for _, entry := range repository.tenants {
		if entry.SchemaName == schema {
			return entry, nil
		}
	}
	return nil, apperr.NotFound("Tenant")
}

func (repository *fakeRepository) ListActive(_ context.Context) ([]*tenant.Tenant, error) {
	active := make([]*tenant.Tenant, 0)
	for _, entry := range repository.tenants {
		if entry.Status == tenant.StatusActive {
			active = append(active, entry)
		}
	}
	return active, nil
}

func (repository *fakeRepository) Create(_ context.Context, created *tenant.Tenant) error {
	repository.tenants[created.Subdomain] = created
	return nil
}

func (repository *fakeRepository) UpdateStatus(_ context.Context, id string, status tenant.Status) error {
	for _, entry := range repository.tenants {
		if entry.ID == id {
			entry.Status = status
			return nil
		}
	}
	return apperr.NotFound("Tenant")
}

func acmeTenant() *tenant.Tenant {
	return &tenant.Tenant{
		ID:         "0195f1a2-0000-7000-8000-00000000acme",
		Name:       "Acme Corp",
		Subdomain:  "acme",
		SchemaName: "tenant_acme",
		Status:     tenant.StatusActive,
	}
}

func TestResolveBySubdomainCacheFirst(t *testing.T) {
	repository := newFakeRepository(acmeTenant())
	resolver := tenant.NewResolver(repository, 10, time.Minute, metrics.New())

	// First resolution misses the cache and hits the store.
	schema, err := resolver.ResolveBySubdomain(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", schema)
	assert.Equal(t, 1, repository.subdomainCalls)

	// Second resolution is served from cache.
	schema, err = resolver.ResolveBySubdomain(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", schema)
	assert.Equal(t, 1, repository.subdomainCalls)

	stats := resolver.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestResolveBySubdomainUnknownTenant(t *testing.T) {
	resolver := tenant.NewResolver(newFakeRepository(), 10, time.Minute, metrics.New())

	_, err := resolver.ResolveBySubdomain(context.Background(), "ghost")
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}

func TestResolveByTenantID(t *testing.T) {
	repository := newFakeRepository(acmeTenant())
	resolver := tenant.NewResolver(repository, 10, time.Minute, metrics.New())

	schema, err := resolver.ResolveByTenantID(context.Background(), "0195f1a2-0000-7000-8000-00000000acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", schema)

	// ID lookups populate their own cache key.
	_, err = resolver.ResolveByTenantID(context.Background(), "0195f1a2-0000-7000-8000-00000000acme")
	require.NoError(t, err)
	assert.Equal(t, 1, repository.idCalls)
}

func TestResolveTenantCachesRecord(t *testing.T) {
	repository := newFakeRepository(acmeTenant())
	resolver := tenant.NewResolver(repository, 10, time.Minute, metrics.New())

	record, err := resolver.ResolveTenant(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", record.SchemaName)
	assert.Equal(t, 1, repository.subdomainCalls)

	// The full record is cached alongside the schema mapping.
	record, err = resolver.ResolveTenant(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "0195f1a2-0000-7000-8000-00000000acme", record.ID)
	assert.Equal(t, 1, repository.subdomainCalls)

	// The same resolution also primed the schema cache.
	_, err = resolver.ResolveBySubdomain(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, repository.subdomainCalls)
}

func TestBusinessWindowOverride(t *testing.T) {
	night := acmeTenant()
	night.BusinessHourStart = pointer.To(20)
	night.BusinessHourEnd = pointer.To(23)

	repository := newFakeRepository(night)
	resolver := tenant.NewResolver(repository, 10, time.Minute, metrics.New())

	start, end, ok := resolver.BusinessWindow(context.Background(), "tenant_acme")
	require.True(t, ok)
	assert.Equal(t, 20, start)
	assert.Equal(t, 23, end)

	// The record is cached by schema; a second read skips the store.
	_, _, ok = resolver.BusinessWindow(context.Background(), "tenant_acme")
	assert.True(t, ok)
	assert.Equal(t, 1, repository.schemaCalls)
}

func TestBusinessWindowDefaultsWhenUnset(t *testing.T) {
	resolver := tenant.NewResolver(newFakeRepository(acmeTenant()), 10, time.Minute, metrics.New())

	_, _, ok := resolver.BusinessWindow(context.Background(), "tenant_acme")
	assert.False(t, ok)

	_, _, ok = resolver.BusinessWindow(context.Background(), "tenant_ghost")
	assert.False(t, ok)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	repository := newFakeRepository(acmeTenant())
	resolver := tenant.NewResolver(repository, 10, time.Minute, metrics.New())

	_, err := resolver.ResolveBySubdomain(context.Background(), "acme")
	require.NoError(t, err)

	assert.True(t, resolver.Invalidate("acme"))

	_, err = resolver.ResolveBySubdomain(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, repository.subdomainCalls)
}

func TestSchemaFor(t *testing.T) {
	tests := []struct {
		name      string
		subdomain string
		expected  string
	}{
		{"simple", "acme", "tenant_acme"},
		{"hyphenated", "blue-sky", "tenant_blue_sky"},
		{"uppercase_normalized", "Acme", "tenant_acme"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, tenant.SchemaFor(testCase.subdomain))
		})
	}
}
