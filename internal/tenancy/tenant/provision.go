// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/tessera/pkg/uuidv7"
)

// # Tenant Provisioning

// RoleSeeder installs the predefined role fixtures into a tenant schema.
// Implemented by the RBAC store.
type RoleSeeder interface {
	SeedTenantRoles(context context.Context, schema string) error
}

// Provisioner creates everything a new tenant needs: the registry row in the
// shared partition, the physical schema with its tables, and the predefined
// roles.
//
// Provisioning is not transactional across the three steps: CREATE SCHEMA
// cannot roll back with the registry insert. Every step is idempotent, so a
// failed provisioning is repaired by retrying it.
type Provisioner struct {
	repository Repository
	pool       *pgxpool.Pool
	roles      RoleSeeder
}

// NewProvisioner creates a tenant [Provisioner].
func NewProvisioner(repository Repository, pool *pgxpool.Pool, roles RoleSeeder) *Provisioner {
	return &Provisioner{repository: repository, pool: pool, roles: roles}
}

// tenantSchemaDDL is the per-tenant table set, created inside the tenant's
// own schema. The role tables mirror the shared partition's shapes so the
// RBAC store serves both partitions with the same statements.
var tenantSchemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS %[1]s.user_account (
		id                 UUID PRIMARY KEY,
		email              TEXT NOT NULL UNIQUE,
		password_hash      TEXT NOT NULL,
		tenant_id          UUID NOT NULL,
		is_active          BOOLEAN NOT NULL DEFAULT TRUE,
		tokens_valid_after TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.role (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		scope       TEXT NOT NULL,
		type        TEXT NOT NULL,
		stage       TEXT NOT NULL,
		is_mutable  BOOLEAN NOT NULL,
		permissions_mutable BOOLEAN NOT NULL DEFAULT FALSE,
		is_deletable        BOOLEAN NOT NULL DEFAULT FALSE,
		etag        UUID NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.role_permission (
		role_id  UUID NOT NULL REFERENCES %[1]s.role (id) ON DELETE CASCADE,
		resource TEXT NOT NULL,
		action   TEXT NOT NULL,
		deny     BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (role_id, resource, action)
	)`,
	`CREATE TABLE IF NOT EXISTS %[1]s.role_assignment (
		id           UUID PRIMARY KEY,
		principal_id UUID NOT NULL,
		role_id      UUID NOT NULL REFERENCES %[1]s.role (id) ON DELETE CASCADE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (principal_id, role_id)
	)`,
}

// ProvisionInput carries the settings for a new tenant.
type ProvisionInput struct {
	Name      string
	Subdomain string

	// Optional business-hours override consulted by the policy engine.
	BusinessHourStart *int
	BusinessHourEnd   *int
}

/*
Provision creates a new tenant end to end.

Description: Inserts the registry row (status inactive until a license is
activated), creates the physical schema with the tenant table set, and seeds
the predefined tenant roles.

Parameters:
  - context: context.Context
  - input: ProvisionInput (Already validated)

Returns:
  - *Tenant: Created tenant
  - error: apperr.Conflict on duplicate subdomain, or database errors
*/
func (provisioner *Provisioner) Provision(context context.Context, input ProvisionInput) (*Tenant, error) {

	// ── 1. Registry Row ───────────────────────────────────────────────────

	now := time.Now()
	created := &Tenant{
		ID:                uuidv7.New(),
		Name:              input.Name,
		Subdomain:         input.Subdomain,
		SchemaName:        SchemaFor(input.Subdomain),
		Status:            StatusInactive,
		BusinessHourStart: input.BusinessHourStart,
		BusinessHourEnd:   input.BusinessHourEnd,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := provisioner.repository.Create(context, created); err != nil {
		return nil, err
	}

	// ── 2. Physical Schema ────────────────────────────────────────────────

	if err := provisioner.createSchema(context, created.SchemaName); err != nil {
		return nil, err
	}

	// ── 3. Predefined Roles ───────────────────────────────────────────────

	if err := provisioner.roles.SeedTenantRoles(context, created.SchemaName); err != nil {
		return nil, fmt.Errorf("tenant_provision_seed_roles_failed: %w", err)
	}

	return created, nil
}

// createSchema creates the tenant schema and its tables. The schema name
// comes from [SchemaFor], which only emits lowercase letters, digits, and
// underscores, so it is safe to interpolate as an identifier.
func (provisioner *Provisioner) createSchema(context context.Context, schemaName string) error {
	statements := make([]string, 0, len(tenantSchemaDDL)+1)
	statements = append(statements, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schemaName))
	for _, ddl := range tenantSchemaDDL {
		statements = append(statements, fmt.Sprintf(ddl, schemaName))
	}

	for _, statement := range statements {
		if _, err := provisioner.pool.Exec(context, statement); err != nil {
			return fmt.Errorf("tenant_provision_create_schema_failed: %w", err)
		}
	}
	return nil
}
