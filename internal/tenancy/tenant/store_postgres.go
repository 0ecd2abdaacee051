// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/internal/platform/dberr"
)

// # Tenant Repository (PostgreSQL)

// PostgresRepository implements [Repository] against the shared partition.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of [Repository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const tenantColumns = `id, name, subdomain, schema_name, status, license_id, business_hour_start, business_hour_end, created_at, updated_at`

/*
FindBySubdomain retrieves the tenant routed by the given subdomain.

Parameters:
  - context: context.Context
  - subdomain: string

Returns:
  - *Tenant: Hydrated tenant entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindBySubdomain(context context.Context, subdomain string) (*Tenant, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.tenant
		WHERE subdomain = $1`, tenantColumns, constants.SchemaShared)

	tenant, err := scanTenant(repository.pool.QueryRow(context, query, subdomain))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Tenant")
		}
		return nil, fmt.Errorf("postgres_tenant_repo_find_by_subdomain_failed: %w", err)
	}

	return tenant, nil
}

/*
FindByID retrieves a tenant by its UUID.

Parameters:
  - context: context.Context
  - id: string (Tenant UUID)

Returns:
  - *Tenant: Hydrated tenant entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Tenant, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.tenant
		WHERE id = $1`, tenantColumns, constants.SchemaShared)

	tenant, err := scanTenant(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Tenant")
		}
		return nil, fmt.Errorf("postgres_tenant_repo_find_by_id_failed: %w", err)
	}

	return tenant, nil
}

/*
FindBySchema retrieves the tenant owning a physical schema.

Parameters:
  - context: context.Context
  - schema: string (Physical schema name, e.g. "tenant_acme")

Returns:
  - *Tenant: Hydrated tenant entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindBySchema(context context.Context, schema string) (*Tenant, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.tenant
		WHERE schema_name = $1`, tenantColumns, constants.SchemaShared)

	tenant, err := scanTenant(repository.pool.QueryRow(context, query, schema))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Tenant")
		}
		return nil, fmt.Errorf("postgres_tenant_repo_find_by_schema_failed: %w", err)
	}

	return tenant, nil
}

/*
ListActive returns all active tenants ordered by creation time.

Parameters:
  - context: context.Context

Returns:
  - []*Tenant: Active tenants (possibly empty)
  - error: Database errors
*/
func (repository *PostgresRepository) ListActive(context context.Context) ([]*Tenant, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.tenant
		WHERE status = $1
		ORDER BY created_at`, tenantColumns, constants.SchemaShared)

	rows, err := repository.pool.Query(context, query, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("postgres_tenant_repo_list_active_failed: %w", err)
	}
	defer rows.Close()

	tenants := make([]*Tenant, 0)
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_tenant_repo_scan_failed: %w", err)
		}
		tenants = append(tenants, tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_tenant_repo_rows_failed: %w", err)
	}

	return tenants, nil
}

/*
Create persists a newly provisioned tenant into the shared partition.

Parameters:
  - context: context.Context
  - tenant: *Tenant (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate subdomain/schema, or database errors
*/
func (repository *PostgresRepository) Create(context context.Context, tenant *Tenant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.tenant (
			id, name, subdomain, schema_name, status, license_id,
			business_hour_start, business_hour_end, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, constants.SchemaShared)

	now := time.Now()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		tenant.ID,
		tenant.Name,
		tenant.Subdomain,
		tenant.SchemaName,
		tenant.Status,
		tenant.LicenseID,
		tenant.BusinessHourStart,
		tenant.BusinessHourEnd,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "postgres_tenant_repo_create")
	}

	return nil
}

/*
UpdateStatus transitions the tenant lifecycle state.

Parameters:
  - context: context.Context
  - id: string (Tenant UUID)
  - status: Status (Target state)

Returns:
  - error: apperr.NotFound if the tenant does not exist, or database errors
*/
func (repository *PostgresRepository) UpdateStatus(context context.Context, id string, status Status) error {
	query := fmt.Sprintf(`
		UPDATE %s.tenant
		SET status = $2, updated_at = $3
		WHERE id = $1`, constants.SchemaShared)

	tag, err := repository.pool.Exec(context, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_tenant_repo_update_status_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Tenant")
	}

	return nil
}

// scanTenant hydrates a tenant from any pgx row source.
func scanTenant(row pgx.Row) (*Tenant, error) {
	tenant := &Tenant{}
	err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Subdomain,
		&tenant.SchemaName,
		&tenant.Status,
		&tenant.LicenseID,
		&tenant.BusinessHourStart,
		&tenant.BusinessHourEnd,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}
