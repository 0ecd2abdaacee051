// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import "context"

// # Storage Contracts

// GrantStore answers the evaluation-side questions: which roles and
// permissions a principal holds in each partition. Implementations resolve
// assignment -> role -> permission joins; the policy engine does the rest.
type GrantStore interface {
	// GlobalRoleNames returns the GLOBAL-scoped role names assigned to the
	// principal in the shared partition.
	GlobalRoleNames(context context.Context, principalID string) ([]string, error)

	// TenantRoleNames returns the TENANT-scoped role names assigned to the
	// principal inside the given tenant schema.
	TenantRoleNames(context context.Context, schema, principalID string) ([]string, error)

	// GlobalPermissions returns the "resource.action" strings granted by the
	// principal's global roles.
	GlobalPermissions(context context.Context, principalID string) ([]string, error)

	// TenantPermissions returns the "resource.action" strings (including "-"
	// prefixed overrides) granted by the principal's tenant roles.
	TenantPermissions(context context.Context, schema, principalID string) ([]string, error)
}

// RoleRepository manages role definitions and assignments. Methods taking a
// schema operate inside that tenant partition; the global variants read the
// shared partition.
type RoleRepository interface {
	FindByID(context context.Context, schema, id string) (*Role, error)
	FindByName(context context.Context, schema, name string) (*Role, error)
	ListTenant(context context.Context, schema string) ([]*Role, error)
	ListGlobal(context context.Context) ([]*Role, error)

	Create(context context.Context, schema string, role *Role) error

	// Update persists the role only when the stored etag matches expected.
	// Returns false on an etag mismatch.
	Update(context context.Context, schema string, role *Role, expectedETag string) (bool, error)

	// Delete removes the role only when the stored etag matches expected.
	// Returns false on an etag mismatch.
	Delete(context context.Context, schema, id, expectedETag string) (bool, error)

	Assign(context context.Context, schema string, assignment *Assignment) error
	Unassign(context context.Context, schema, principalID, roleID string) error
}
