// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import "context"

// Repository defines the persistence contract for tenants.
//
// The canonical implementation is PostgreSQL against the shared partition.
// Tenant rows never live inside a tenant schema; the mapping table must be
// reachable before any schema is resolved.
type Repository interface {
	// FindBySubdomain returns the tenant routed by the given subdomain.
	// Returns [apperr.NotFound] via dberr when no tenant matches.
	FindBySubdomain(context context.Context, subdomain string) (*Tenant, error)

	// FindByID returns the tenant with the given UUID.
	FindByID(context context.Context, id string) (*Tenant, error)

	// FindBySchema returns the tenant owning the given physical schema.
	// The policy engine uses this to read per-tenant condition settings.
	FindBySchema(context context.Context, schema string) (*Tenant, error)

	// ListActive returns every tenant in [StatusActive], ordered by creation.
	// Used by the revocation service when it has to locate a principal's
	// partition.
	ListActive(context context.Context) ([]*Tenant, error)

	// Create persists a newly provisioned tenant.
	Create(context context.Context, tenant *Tenant) error

	// UpdateStatus transitions a tenant's lifecycle state.
	UpdateStatus(context context.Context, id string, status Status) error
}
