// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/internal/platform/dberr"
	"github.com/taibuivan/tessera/internal/platform/postgres"
)

// # RBAC Store (PostgreSQL)

// PostgresStore implements [GrantStore] and [RoleRepository]. Global roles
// live in the shared partition; tenant roles live in each tenant schema
// under identical table shapes, so one set of statements serves both after
// search-path pinning.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL RBAC store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const roleColumns = `id, name, description, scope, type, stage, is_mutable, permissions_mutable, is_deletable, etag, created_at, updated_at`

const grantRoleNamesQuery = `
	SELECT r.name
	FROM role r
	JOIN role_assignment a ON a.role_id = r.id
	WHERE a.principal_id = $1
	  AND r.stage <> 'DISABLED'
	ORDER BY r.name`

const grantPermissionsQuery = `
	SELECT p.resource, p.action, p.deny
	FROM role_permission p
	JOIN role r ON r.id = p.role_id
	JOIN role_assignment a ON a.role_id = r.id
	WHERE a.principal_id = $1
	  AND r.stage <> 'DISABLED'`

// # Grant Evaluation

/*
GlobalRoleNames returns the shared-partition role names held by a principal.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - []string: Sorted role names (possibly empty)
  - error: Database errors
*/
func (store *PostgresStore) GlobalRoleNames(context context.Context, principalID string) ([]string, error) {
	names, err := store.roleNames(context, constants.SchemaShared, principalID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_global_role_names_failed: %w", err)
	}
	return names, nil
}

/*
TenantRoleNames returns the tenant-partition role names held by a principal.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - principalID: string

Returns:
  - []string: Sorted role names (possibly empty)
  - error: Database errors
*/
func (store *PostgresStore) TenantRoleNames(context context.Context, schema, principalID string) ([]string, error) {
	names, err := store.roleNames(context, schema, principalID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_tenant_role_names_failed: %w", err)
	}
	return names, nil
}

/*
GlobalPermissions returns the permission strings granted by a principal's
global roles.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - []string: "resource.action" strings
  - error: Database errors
*/
func (store *PostgresStore) GlobalPermissions(context context.Context, principalID string) ([]string, error) {
	permissions, err := store.permissionStrings(context, constants.SchemaShared, principalID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_global_permissions_failed: %w", err)
	}
	return permissions, nil
}

/*
TenantPermissions returns the permission strings, deny overrides included,
granted by a principal's tenant roles.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - principalID: string

Returns:
  - []string: "resource.action" and "-resource.action" strings
  - error: Database errors
*/
func (store *PostgresStore) TenantPermissions(context context.Context, schema, principalID string) ([]string, error) {
	permissions, err := store.permissionStrings(context, schema, principalID)
	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_tenant_permissions_failed: %w", err)
	}
	return permissions, nil
}

func (store *PostgresStore) roleNames(context context.Context, schema, principalID string) ([]string, error) {
	names := make([]string, 0)
	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		rows, err := tx.Query(context, grantRoleNamesQuery, principalID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (store *PostgresStore) permissionStrings(context context.Context, schema, principalID string) ([]string, error) {
	permissions := make([]string, 0)
	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		rows, err := tx.Query(context, grantPermissionsQuery, principalID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			permission := Permission{}
			if err := rows.Scan(&permission.Resource, &permission.Action, &permission.Deny); err != nil {
				return err
			}
			permissions = append(permissions, permission.String())
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return permissions, nil
}

// # Role CRUD

/*
FindByID retrieves a role with its permissions from a tenant schema.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - id: string (Role UUID)

Returns:
  - *Role: Hydrated role
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindByID(context context.Context, schema, id string) (*Role, error) {
	return store.findOne(context, schema, `WHERE id = $1`, id)
}

/*
FindByName retrieves a role with its permissions by name.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - name: string

Returns:
  - *Role: Hydrated role
  - error: apperr.NotFound or database errors
*/
func (store *PostgresStore) FindByName(context context.Context, schema, name string) (*Role, error) {
	return store.findOne(context, schema, `WHERE name = $1`, name)
}

func (store *PostgresStore) findOne(context context.Context, schema, where string, argument any) (*Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM role %s`, roleColumns, where)

	var role *Role
	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		found, err := scanRole(tx.QueryRow(context, query, argument))
		if err != nil {
			return err
		}
		if err := store.loadPermissions(context, tx, found); err != nil {
			return err
		}
		role = found
		return nil
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role")
		}
		return nil, fmt.Errorf("postgres_rbac_find_role_failed: %w", err)
	}

	return role, nil
}

/*
ListTenant returns every role in a tenant schema with permissions attached.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)

Returns:
  - []*Role: Roles ordered by name
  - error: Database errors
*/
func (store *PostgresStore) ListTenant(context context.Context, schema string) ([]*Role, error) {
	return store.list(context, schema)
}

// ListGlobal returns every role in the shared partition.
func (store *PostgresStore) ListGlobal(context context.Context) ([]*Role, error) {
	return store.list(context, constants.SchemaShared)
}

func (store *PostgresStore) list(context context.Context, schema string) ([]*Role, error) {
	query := fmt.Sprintf(`SELECT %s FROM role ORDER BY name`, roleColumns)

	roles := make([]*Role, 0)
	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		rows, err := tx.Query(context, query)
		if err != nil {
			return err
		}

		for rows.Next() {
			role, err := scanRole(rows)
			if err != nil {
				rows.Close()
				return err
			}
			roles = append(roles, role)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, role := range roles {
			if err := store.loadPermissions(context, tx, role); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("postgres_rbac_list_roles_failed: %w", err)
	}

	return roles, nil
}

/*
Create persists a role and its permissions in one transaction.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - role: *Role

Returns:
  - error: apperr.Conflict on duplicate name, or database errors
*/
func (store *PostgresStore) Create(context context.Context, schema string, role *Role) error {
	insertRole := `
		INSERT INTO role (
			id, name, description, scope, type, stage,
			is_mutable, permissions_mutable, is_deletable, etag, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		_, err := tx.Exec(context, insertRole,
			role.ID, role.Name, role.Description, role.Scope, role.Type, role.Stage,
			role.IsMutable, role.PermissionsMutable, role.IsDeletable,
			role.ETag, role.CreatedAt, role.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return store.insertPermissions(context, tx, role)
	})

	if err != nil {
		return dberr.Wrap(err, "postgres_rbac_create_role")
	}

	return nil
}

/*
SeedRoles installs built-in roles into a partition, skipping any role whose
name already exists. Safe to run on every startup and on every tenant
provisioning.

Parameters:
  - context: context.Context
  - schema: string (Target partition)
  - roles: []*Role (Fixtures from [SeedGlobalRoles] or [SeedTenantRoles])

Returns:
  - error: Database errors
*/
func (store *PostgresStore) SeedRoles(context context.Context, schema string, roles []*Role) error {
	insertRole := `
		INSERT INTO role (
			id, name, description, scope, type, stage,
			is_mutable, permissions_mutable, is_deletable, etag, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (name) DO NOTHING`

	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		for _, role := range roles {
			tag, err := tx.Exec(context, insertRole,
				role.ID, role.Name, role.Description, role.Scope, role.Type, role.Stage,
				role.IsMutable, role.PermissionsMutable, role.IsDeletable,
				role.ETag, role.CreatedAt, role.UpdatedAt,
			)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				continue
			}
			if err := store.insertPermissions(context, tx, role); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("postgres_rbac_seed_roles_failed: %w", err)
	}

	return nil
}

// SeedGlobalRoles installs the BASIC global roles into the shared partition.
func (store *PostgresStore) SeedGlobalRoles(context context.Context) error {
	return store.SeedRoles(context, constants.SchemaShared, SeedGlobalRoles())
}

// SeedTenantRoles installs the PREDEFINED roles into a tenant schema.
func (store *PostgresStore) SeedTenantRoles(context context.Context, schema string) error {
	return store.SeedRoles(context, schema, SeedTenantRoles())
}

/*
Update replaces the role definition when the stored etag matches. The
permission rows are replaced wholesale inside the same transaction.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - role: *Role (Carrying the ROTATED etag)
  - expectedETag: string (The etag the caller observed)

Returns:
  - bool: false on etag mismatch, nothing was written
  - error: Database errors
*/
func (store *PostgresStore) Update(context context.Context, schema string, role *Role, expectedETag string) (bool, error) {
	updateRole := `
		UPDATE role
		SET name = $2, description = $3, etag = $4, updated_at = $5
		WHERE id = $1 AND etag = $6`

	updated := false
	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		tag, err := tx.Exec(context, updateRole,
			role.ID, role.Name, role.Description, role.ETag, role.UpdatedAt, expectedETag,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		updated = true

		if _, err := tx.Exec(context, `DELETE FROM role_permission WHERE role_id = $1`, role.ID); err != nil {
			return err
		}
		return store.insertPermissions(context, tx, role)
	})

	if err != nil {
		return false, dberr.Wrap(err, "postgres_rbac_update_role")
	}

	return updated, nil
}

/*
Delete removes the role, its permissions, and its assignments when the
stored etag matches.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - id: string (Role UUID)
  - expectedETag: string

Returns:
  - bool: false on etag mismatch
  - error: Database errors
*/
func (store *PostgresStore) Delete(context context.Context, schema, id, expectedETag string) (bool, error) {
	deleted := false
	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		tag, err := tx.Exec(context, `DELETE FROM role WHERE id = $1 AND etag = $2`, id, expectedETag)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		deleted = true

		if _, err := tx.Exec(context, `DELETE FROM role_permission WHERE role_id = $1`, id); err != nil {
			return err
		}
		_, err = tx.Exec(context, `DELETE FROM role_assignment WHERE role_id = $1`, id)
		return err
	})

	if err != nil {
		return false, fmt.Errorf("postgres_rbac_delete_role_failed: %w", err)
	}

	return deleted, nil
}

/*
Assign persists a role binding.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - assignment: *Assignment

Returns:
  - error: apperr.Conflict on duplicate binding, or database errors
*/
func (store *PostgresStore) Assign(context context.Context, schema string, assignment *Assignment) error {
	query := `
		INSERT INTO role_assignment (id, principal_id, role_id, created_at)
		VALUES ($1, $2, $3, $4)`

	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		_, err := tx.Exec(context, query,
			assignment.ID, assignment.PrincipalID, assignment.RoleID, assignment.CreatedAt,
		)
		return err
	})

	if err != nil {
		return dberr.Wrap(err, "postgres_rbac_assign_role")
	}

	return nil
}

/*
Unassign removes a role binding.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - principalID: string
  - roleID: string

Returns:
  - error: apperr.NotFound when no binding exists, or database errors
*/
func (store *PostgresStore) Unassign(context context.Context, schema, principalID, roleID string) error {
	query := `DELETE FROM role_assignment WHERE principal_id = $1 AND role_id = $2`

	found := false
	err := postgres.WithSchema(context, store.pool, schema, func(tx pgx.Tx) error {
		tag, err := tx.Exec(context, query, principalID, roleID)
		if err != nil {
			return err
		}
		found = tag.RowsAffected() > 0
		return nil
	})

	if err != nil {
		return fmt.Errorf("postgres_rbac_unassign_role_failed: %w", err)
	}
	if !found {
		return apperr.NotFound("Role assignment")
	}

	return nil
}

// # Helpers

func (store *PostgresStore) insertPermissions(context context.Context, tx pgx.Tx, role *Role) error {
	query := `
		INSERT INTO role_permission (role_id, resource, action, deny)
		VALUES ($1, $2, $3, $4)`

	for _, permission := range role.Permissions {
		if _, err := tx.Exec(context, query,
			role.ID, permission.Resource, permission.Action, permission.Deny,
		); err != nil {
			return err
		}
	}
	return nil
}

func (store *PostgresStore) loadPermissions(context context.Context, tx pgx.Tx, role *Role) error {
	query := `
		SELECT role_id, resource, action, deny
		FROM role_permission
		WHERE role_id = $1
		ORDER BY resource, action`

	rows, err := tx.Query(context, query, role.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	role.Permissions = role.Permissions[:0]
	for rows.Next() {
		permission := Permission{}
		if err := rows.Scan(&permission.RoleID, &permission.Resource, &permission.Action, &permission.Deny); err != nil {
			return err
		}
		role.Permissions = append(role.Permissions, permission)
	}
	return rows.Err()
}

func scanRole(row pgx.Row) (*Role, error) {
	role := &Role{}
	err := row.Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.Scope,
		&role.Type,
		&role.Stage,
		&role.IsMutable,
		&role.PermissionsMutable,
		&role.IsDeletable,
		&role.ETag,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return role, nil
}
