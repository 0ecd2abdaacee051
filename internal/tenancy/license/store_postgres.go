// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package license

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

// # License Repository (PostgreSQL)

// PostgresRepository implements [Repository] against the shared partition.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of [Repository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const licenseColumns = `id, tenant_id, key, seats, price_cents, status, starts_at, ends_at, created_at, updated_at`

/*
FindByID retrieves a license by UUID.

Parameters:
  - context: context.Context
  - id: string (License UUID)

Returns:
  - *License: Hydrated license
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*License, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.license
		WHERE id = $1`, licenseColumns, constants.SchemaShared)

	license, err := scanLicense(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("License")
		}
		return nil, fmt.Errorf("postgres_license_repo_find_by_id_failed: %w", err)
	}

	return license, nil
}

/*
FindActiveByTenant retrieves the tenant's single active license.

Parameters:
  - context: context.Context
  - tenantID: string

Returns:
  - *License: Active license
  - error: apperr.NotFound when none is active, or database errors
*/
func (repository *PostgresRepository) FindActiveByTenant(context context.Context, tenantID string) (*License, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.license
		WHERE tenant_id = $1 AND status = $2
		ORDER BY starts_at DESC
		LIMIT 1`, licenseColumns, constants.SchemaShared)

	license, err := scanLicense(repository.pool.QueryRow(context, query, tenantID, StatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Active license")
		}
		return nil, fmt.Errorf("postgres_license_repo_find_active_failed: %w", err)
	}

	return license, nil
}

/*
ListByTenant returns every license a tenant has held, newest first.

Parameters:
  - context: context.Context
  - tenantID: string

Returns:
  - []*License: Licenses (possibly empty)
  - error: Database errors
*/
func (repository *PostgresRepository) ListByTenant(context context.Context, tenantID string) ([]*License, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.license
		WHERE tenant_id = $1
		ORDER BY created_at DESC`, licenseColumns, constants.SchemaShared)

	rows, err := repository.pool.Query(context, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("postgres_license_repo_list_failed: %w", err)
	}
	defer rows.Close()

	licenses := make([]*License, 0)
	for rows.Next() {
		license, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_license_repo_scan_failed: %w", err)
		}
		licenses = append(licenses, license)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_license_repo_rows_failed: %w", err)
	}

	return licenses, nil
}

/*
Create persists a new license.

Parameters:
  - context: context.Context
  - license: *License

Returns:
  - error: apperr.Conflict on duplicate key, or database errors
*/
func (repository *PostgresRepository) Create(context context.Context, license *License) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.license (
			id, tenant_id, key, seats, price_cents, status, starts_at, ends_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, constants.SchemaShared)

	_, err := repository.pool.Exec(context, query,
		license.ID,
		license.TenantID,
		license.Key,
		license.Seats,
		license.PriceCents,
		license.Status,
		license.StartsAt,
		license.EndsAt,
		license.CreatedAt,
		license.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "postgres_license_repo_create")
	}

	return nil
}

/*
UpdateStatus transitions the license lifecycle state.

Parameters:
  - context: context.Context
  - id: string (License UUID)
  - status: Status (Target state)

Returns:
  - error: apperr.NotFound if the license does not exist, or database errors
*/
func (repository *PostgresRepository) UpdateStatus(context context.Context, id string, status Status) error {
	query := fmt.Sprintf(`
		UPDATE %s.license
		SET status = $2, updated_at = $3
		WHERE id = $1`, constants.SchemaShared)

	tag, err := repository.pool.Exec(context, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_license_repo_update_status_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("License")
	}

	return nil
}

func scanLicense(row pgx.Row) (*License, error) {
	license := &License{}
	err := row.Scan(
		&license.ID,
		&license.TenantID,
		&license.Key,
		&license.Seats,
		&license.PriceCents,
		&license.Status,
		&license.StartsAt,
		&license.EndsAt,
		&license.CreatedAt,
		&license.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return license, nil
}
