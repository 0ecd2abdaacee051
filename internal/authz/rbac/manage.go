// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/validate"
	"github.com/taibuivan/tessera/pkg/uuidv7"
)

// # Role Management

// Manager implements the write side of role administration: creating,
// updating, and deleting CUSTOM roles inside a tenant, and assigning roles
// to principals.
//
// # Invariants
//
//   - BASIC and PREDEFINED roles are immutable, no matter what etag the
//     caller presents.
//   - Custom roles are always TENANT-scoped and CUSTOM-typed, regardless of
//     what the request claims.
//   - Reserved built-in names cannot be taken by custom roles.
//   - Restricted tenant-lifecycle permissions cannot be granted to tenant
//     roles.
//   - Every mutation requires the current etag and rotates it.
type Manager struct {
	roles RoleRepository
}

// NewManager creates a role management service.
func NewManager(roles RoleRepository) *Manager {
	return &Manager{roles: roles}
}

// RoleInput is the caller-supplied portion of a role definition.
type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

/*
CreateCustomRole creates a tenant-scoped custom role. Scope, type, and
mutability are forced server-side.

Parameters:
  - context: context.Context
  - schema: string (Tenant schema)
  - input: RoleInput

Returns:
  - *Role: Created role with its initial etag
  - error: Validation, authorization, or storage errors
*/
func (manager *Manager) CreateCustomRole(context context.Context, schema string, input RoleInput) (*Role, error) {
	validator := &validate.Validator{}
	if err := validator.
		Required("name", input.Name).
		MaxLen("name", input.Name, 64).
		Custom("permissions", len(input.Permissions) == 0, "At least one permission is required").
		Err(); err != nil {
		return nil, err
	}

	if IsReservedRoleName(input.Name) {
		return nil, apperr.AuthorizationFailed(fmt.Sprintf("Role name is reserved: %s", input.Name))
	}

	permissions, err := parseRolePermissions("", input.Permissions)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	role := &Role{
		ID:                 uuidv7.New(),
		Name:               input.Name,
		Description:        input.Description,
		Scope:              ScopeTenant,
		Type:               RoleTypeCustom,
		Stage:              StageGA,
		IsMutable:          true,
		PermissionsMutable: true,
		IsDeletable:        true,
		ETag:               uuidv7.New(),
		Permissions:        permissions,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for index := range role.Permissions {
		role.Permissions[index].RoleID = role.ID
	}

	if err := manager.roles.Create(context, schema, role); err != nil {
		return nil, err
	}

	return role, nil
}

/*
UpdateRole replaces a custom role's definition under optimistic concurrency.

Parameters:
  - context: context.Context
  - schema: string (Tenant schema)
  - id: string (Role UUID)
  - expectedETag: string (From the If-Match header)
  - input: RoleInput

Returns:
  - *Role: Updated role carrying the rotated etag
  - error: apperr.NotFound, apperr.BusinessRule on immutability or etag
    mismatch, apperr.AuthorizationFailed on guard-rail violations
*/
func (manager *Manager) UpdateRole(context context.Context, schema, id, expectedETag string, input RoleInput) (*Role, error) {
	if expectedETag == "" {
		return nil, validate.RequiredError("If-Match", "The current role etag is required")
	}

	role, err := manager.roles.FindByID(context, schema, id)
	if err != nil {
		return nil, err
	}

	// Immutability is checked before the etag so built-ins refuse mutation
	// even with a correct etag.
	if !role.IsMutable {
		return nil, apperr.BusinessRule("Built-in roles cannot be modified")
	}

	validator := &validate.Validator{}
	if err := validator.
		Required("name", input.Name).
		MaxLen("name", input.Name, 64).
		Custom("permissions", len(input.Permissions) == 0, "At least one permission is required").
		Err(); err != nil {
		return nil, err
	}

	if input.Name != role.Name && IsReservedRoleName(input.Name) {
		return nil, apperr.AuthorizationFailed(fmt.Sprintf("Role name is reserved: %s", input.Name))
	}

	permissions, err := parseRolePermissions(role.ID, input.Permissions)
	if err != nil {
		return nil, err
	}

	role.Name = input.Name
	role.Description = input.Description
	role.Permissions = permissions
	role.ETag = uuidv7.New()
	role.UpdatedAt = time.Now()

	updated, err := manager.roles.Update(context, schema, role, expectedETag)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, apperr.BusinessRule("Role was modified concurrently; refresh and retry")
	}

	return role, nil
}

/*
DeleteRole removes a custom role under optimistic concurrency.

Parameters:
  - context: context.Context
  - schema: string (Tenant schema)
  - id: string (Role UUID)
  - expectedETag: string (From the If-Match header)

Returns:
  - error: apperr.NotFound, apperr.BusinessRule on immutability or etag mismatch
*/
func (manager *Manager) DeleteRole(context context.Context, schema, id, expectedETag string) error {
	if expectedETag == "" {
		return validate.RequiredError("If-Match", "The current role etag is required")
	}

	role, err := manager.roles.FindByID(context, schema, id)
	if err != nil {
		return err
	}

	if !role.IsMutable {
		return apperr.BusinessRule("Built-in roles cannot be deleted")
	}

	deleted, err := manager.roles.Delete(context, schema, id, expectedETag)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.BusinessRule("Role was modified concurrently; refresh and retry")
	}

	return nil
}

/*
AssignRole binds a role to a principal inside the tenant.

Parameters:
  - context: context.Context
  - schema: string (Tenant schema)
  - principalID: string
  - roleID: string

Returns:
  - *Assignment: Created binding
  - error: apperr.NotFound when the role does not exist, or storage errors
*/
func (manager *Manager) AssignRole(context context.Context, schema, principalID, roleID string) (*Assignment, error) {
	if _, err := manager.roles.FindByID(context, schema, roleID); err != nil {
		return nil, err
	}

	assignment := &Assignment{
		ID:          uuidv7.New(),
		PrincipalID: principalID,
		RoleID:      roleID,
		CreatedAt:   time.Now(),
	}

	if err := manager.roles.Assign(context, schema, assignment); err != nil {
		return nil, err
	}

	return assignment, nil
}

// AssignByName binds a role to a principal by role name instead of ID, the
// form user provisioning uses for the default role.
func (manager *Manager) AssignByName(context context.Context, schema, principalID, roleName string) error {
	role, err := manager.roles.FindByName(context, schema, roleName)
	if err != nil {
		return err
	}
	_, err = manager.AssignRole(context, schema, principalID, role.ID)
	return err
}

// UnassignRole removes a role binding.
func (manager *Manager) UnassignRole(context context.Context, schema, principalID, roleID string) error {
	return manager.roles.Unassign(context, schema, principalID, roleID)
}

// GetRole fetches one role definition.
func (manager *Manager) GetRole(context context.Context, schema, id string) (*Role, error) {
	return manager.roles.FindByID(context, schema, id)
}

// ListRoles returns the tenant's roles, built-ins included.
func (manager *Manager) ListRoles(context context.Context, schema string) ([]*Role, error) {
	return manager.roles.ListTenant(context, schema)
}

// parseRolePermissions validates and parses the "resource.action" strings,
// rejecting restricted tenant-lifecycle grants.
func parseRolePermissions(roleID string, raw []string) ([]Permission, error) {
	permissions := make([]Permission, 0, len(raw))
	for _, value := range raw {
		permission, ok := ParsePermission(value)
		if !ok {
			return nil, apperr.ValidationError(fmt.Sprintf("Invalid permission format: %s", value))
		}
		// Denying a restricted permission is harmless; only grants are blocked.
		if !permission.Deny && IsRestrictedPermission(permission) {
			return nil, apperr.AuthorizationFailed(fmt.Sprintf("Permission is restricted: %s", value))
		}
		permission.RoleID = roleID
		permissions = append(permissions, permission)
	}
	return permissions, nil
}
