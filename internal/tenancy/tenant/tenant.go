// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tenant defines the tenant aggregate and its schema-resolution service.

A tenant is the unit of physical data isolation: every tenant owns exactly one
PostgreSQL schema, and every request routed through a tenant subdomain must be
translated to that schema before any data access happens.

Identity fields:

  - Subdomain: the request-facing identifier ("acme" in acme.tessera.app).
  - SchemaName: the physical partition name ("tenant_acme").

Both are globally unique and immutable after provisioning.
*/
package tenant

import (
	"strings"
	"time"

	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/pkg/slug"
)

// # Tenant Lifecycle

// Status represents the operational state of a tenant.
type Status string

const (
	// StatusActive tenants serve traffic normally.
	StatusActive Status = "active"

	// StatusInactive tenants are provisioned but not yet opened.
	StatusInactive Status = "inactive"

	// StatusSuspended tenants are blocked (billing, compliance) but retain data.
	StatusSuspended Status = "suspended"
)

// # Entity

// Tenant is the root record of a customer organization.
//
// Tenants are never hard-deleted while referenced data exists; lifecycle
// transitions happen through [Status].
type Tenant struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Subdomain  string  `json:"subdomain"`
	SchemaName string  `json:"schema_name"`
	Status     Status  `json:"status"`
	LicenseID  *string `json:"license_id,omitempty"`

	// BusinessHourStart/End override the platform-wide business-hours
	// window for this tenant's conditional permissions. Both nil means
	// the configured default applies.
	BusinessHourStart *int `json:"business_hour_start,omitempty"`
	BusinessHourEnd   *int `json:"business_hour_end,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the tenant may serve traffic.
func (tenant *Tenant) IsActive() bool {
	return tenant.Status == StatusActive
}

// BusinessWindow returns the tenant's business-hours override. ok is false
// when the tenant has no override and the platform default applies.
func (tenant *Tenant) BusinessWindow() (start, end int, ok bool) {
	if tenant.BusinessHourStart == nil || tenant.BusinessHourEnd == nil {
		return 0, 0, false
	}
	return *tenant.BusinessHourStart, *tenant.BusinessHourEnd, true
}

// # Schema Naming

// SchemaFor derives the physical schema name for a new tenant from its
// subdomain. Hyphens from slugification become underscores because schema
// names follow SQL identifier conventions.
func SchemaFor(subdomain string) string {
	normalized := strings.ReplaceAll(slug.From(subdomain), "-", "_")
	return constants.TenantSchemaPrefix + normalized
}
