// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

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
	"github.com/taibuivan/tessera/internal/platform/postgres"
)

// # Admin Repository (PostgreSQL)

// PostgresAdminRepository implements [AdminRepository] against the shared
// partition.
type PostgresAdminRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAdminRepository creates a new PostgreSQL implementation of
// [AdminRepository].
func NewPostgresAdminRepository(pool *pgxpool.Pool) *PostgresAdminRepository {
	return &PostgresAdminRepository{pool: pool}
}

const adminColumns = `id, email, password_hash, is_active, tokens_valid_after, created_at, updated_at`

/*
FindByEmail retrieves a global administrator by login email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Admin: Hydrated admin entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresAdminRepository) FindByEmail(context context.Context, email string) (*Admin, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.admin
		WHERE email = $1`, adminColumns, constants.SchemaShared)

	admin, err := scanAdmin(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Admin")
		}
		return nil, fmt.Errorf("postgres_admin_repo_find_by_email_failed: %w", err)
	}

	return admin, nil
}

/*
FindByID retrieves a global administrator by UUID.

Parameters:
  - context: context.Context
  - id: string (Admin UUID)

Returns:
  - *Admin: Hydrated admin entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresAdminRepository) FindByID(context context.Context, id string) (*Admin, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.admin
		WHERE id = $1`, adminColumns, constants.SchemaShared)

	admin, err := scanAdmin(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Admin")
		}
		return nil, fmt.Errorf("postgres_admin_repo_find_by_id_failed: %w", err)
	}

	return admin, nil
}

/*
SetTokensValidAfter advances the admin's revocation watermark.

Parameters:
  - context: context.Context
  - id: string (Admin UUID)
  - validAfter: time.Time (New watermark instant)

Returns:
  - bool: true when a row was updated
  - error: Database errors
*/
func (repository *PostgresAdminRepository) SetTokensValidAfter(context context.Context, id string, validAfter time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s.admin
		SET tokens_valid_after = $2, updated_at = $3
		WHERE id = $1`, constants.SchemaShared)

	tag, err := repository.pool.Exec(context, query, id, validAfter, time.Now())
	if err != nil {
		return false, fmt.Errorf("postgres_admin_repo_set_tokens_valid_after_failed: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func scanAdmin(row pgx.Row) (*Admin, error) {
	admin := &Admin{}
	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.IsActive,
		&admin.TokensValidAfter,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// # Tenant User Repository (PostgreSQL)

// PostgresTenantUserRepository implements [TenantUserRepository]. Every
// query runs inside a transaction whose search path is pinned to the target
// tenant schema, so the same SQL serves every tenant.
type PostgresTenantUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTenantUserRepository creates a new PostgreSQL implementation of
// [TenantUserRepository].
func NewPostgresTenantUserRepository(pool *pgxpool.Pool) *PostgresTenantUserRepository {
	return &PostgresTenantUserRepository{pool: pool}
}

const tenantUserColumns = `id, email, password_hash, tenant_id, is_active, tokens_valid_after, created_at, updated_at`

/*
FindByEmail retrieves a tenant user by login email within a schema.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - email: string

Returns:
  - *TenantUser: Hydrated user entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresTenantUserRepository) FindByEmail(context context.Context, schema, email string) (*TenantUser, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM user_account
		WHERE email = $1`, tenantUserColumns)

	var user *TenantUser
	err := postgres.WithSchema(context, repository.pool, schema, func(tx pgx.Tx) error {
		found, scanErr := scanTenantUser(tx.QueryRow(context, query, email))
		if scanErr != nil {
			return scanErr
		}
		user = found
		return nil
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves a tenant user by UUID within a schema.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - id: string (User UUID)

Returns:
  - *TenantUser: Hydrated user entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresTenantUserRepository) FindByID(context context.Context, schema, id string) (*TenantUser, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM user_account
		WHERE id = $1`, tenantUserColumns)

	var user *TenantUser
	err := postgres.WithSchema(context, repository.pool, schema, func(tx pgx.Tx) error {
		found, scanErr := scanTenantUser(tx.QueryRow(context, query, id))
		if scanErr != nil {
			return scanErr
		}
		user = found
		return nil
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
SetTokensValidAfter advances the user's revocation watermark within a schema.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - id: string (User UUID)
  - validAfter: time.Time (New watermark instant)

Returns:
  - bool: true when a row was updated
  - error: Database errors
*/
func (repository *PostgresTenantUserRepository) SetTokensValidAfter(context context.Context, schema, id string, validAfter time.Time) (bool, error) {
	query := `
		UPDATE user_account
		SET tokens_valid_after = $2, updated_at = $3
		WHERE id = $1`

	updated := false
	err := postgres.WithSchema(context, repository.pool, schema, func(tx pgx.Tx) error {
		tag, execErr := tx.Exec(context, query, id, validAfter, time.Now())
		if execErr != nil {
			return execErr
		}
		updated = tag.RowsAffected() > 0
		return nil
	})

	if err != nil {
		return false, fmt.Errorf("postgres_user_repo_set_tokens_valid_after_failed: %w", err)
	}

	return updated, nil
}

/*
Create persists a new tenant user into a schema.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - user: *TenantUser (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or database errors
*/
func (repository *PostgresTenantUserRepository) Create(context context.Context, schema string, user *TenantUser) error {
	query := `
		INSERT INTO user_account (
			id, email, password_hash, tenant_id, is_active, tokens_valid_after, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	err := postgres.WithSchema(context, repository.pool, schema, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(context, query,
			user.ID,
			user.Email,
			user.PasswordHash,
			user.TenantID,
			user.IsActive,
			user.TokensValidAfter,
			user.CreatedAt,
			user.UpdatedAt,
		)
		return execErr
	})

	if err != nil {
		return dberr.Wrap(err, "postgres_user_repo_create")
	}

	return nil
}

/*
List returns a page of users from a schema, newest last, plus the total.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - limit: int (Page size)
  - offset: int (Rows to skip)

Returns:
  - []*TenantUser: One page of users
  - int: Total user count in the schema
  - error: Database errors
*/
func (repository *PostgresTenantUserRepository) List(context context.Context, schema string, limit, offset int) ([]*TenantUser, int, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM user_account
		ORDER BY created_at
		LIMIT $1 OFFSET $2`, tenantUserColumns)

	users := make([]*TenantUser, 0)
	total := 0
	err := postgres.WithSchema(context, repository.pool, schema, func(tx pgx.Tx) error {
		rows, err := tx.Query(context, query, limit, offset)
		if err != nil {
			return err
		}

		for rows.Next() {
			user, err := scanTenantUser(rows)
			if err != nil {
				rows.Close()
				return err
			}
			users = append(users, user)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		return tx.QueryRow(context, `SELECT COUNT(*) FROM user_account`).Scan(&total)
	})

	if err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}

	return users, total, nil
}

/*
SetActive toggles the user's active flag within a schema.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - id: string (User UUID)
  - active: bool (Target state)

Returns:
  - bool: true when a row was updated
  - error: Database errors
*/
func (repository *PostgresTenantUserRepository) SetActive(context context.Context, schema, id string, active bool) (bool, error) {
	query := `
		UPDATE user_account
		SET is_active = $2, updated_at = $3
		WHERE id = $1`

	updated := false
	err := postgres.WithSchema(context, repository.pool, schema, func(tx pgx.Tx) error {
		tag, execErr := tx.Exec(context, query, id, active, time.Now())
		if execErr != nil {
			return execErr
		}
		updated = tag.RowsAffected() > 0
		return nil
	})

	if err != nil {
		return false, fmt.Errorf("postgres_user_repo_set_active_failed: %w", err)
	}

	return updated, nil
}

/*
CountActive counts active users inside a schema for seat enforcement.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)

Returns:
  - int: Number of active users
  - error: Database errors
*/
func (repository *PostgresTenantUserRepository) CountActive(context context.Context, schema string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM user_account
		WHERE is_active = TRUE`

	count := 0
	err := postgres.WithSchema(context, repository.pool, schema, func(tx pgx.Tx) error {
		return tx.QueryRow(context, query).Scan(&count)
	})

	if err != nil {
		return 0, fmt.Errorf("postgres_user_repo_count_active_failed: %w", err)
	}

	return count, nil
}

func scanTenantUser(row pgx.Row) (*TenantUser, error) {
	user := &TenantUser{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.TenantID,
		&user.IsActive,
		&user.TokensValidAfter,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
