// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"time"

	"github.com/taibuivan/tessera/pkg/uuidv7"
)

// # Built-in Roles

// SeedGlobalRoles returns the BASIC roles installed into the shared
// partition when the platform is provisioned.
func SeedGlobalRoles() []*Role {
	return []*Role{
		builtin("super_admin", "Full platform control", ScopeGlobal, RoleTypeBasic,
			"*.*",
		),
		builtin("admin", "Platform administration without tenant deletion", ScopeGlobal, RoleTypeBasic,
			"tenant.create", "tenant.read", "tenant.update",
			"user.create", "user.read", "user.update",
			"role.read", "license.read", "license.update",
		),
		builtin("viewer", "Read-only platform visibility", ScopeGlobal, RoleTypeBasic,
			"tenant.read", "user.read", "role.read", "license.read",
		),
	}
}

// SeedTenantRoles returns the PREDEFINED roles seeded into every tenant
// schema at provisioning time.
func SeedTenantRoles() []*Role {
	return []*Role{
		builtin("manager", "Tenant management", ScopeTenant, RoleTypePredefined,
			"user.create", "user.read", "user.update",
			"role.create", "role.read", "role.update", "role.delete",
			"item.*", "location.*", "report.*",
		),
		builtin("employee", "Day-to-day operations", ScopeTenant, RoleTypePredefined,
			"item.read", "item.create", "item.update",
			"location.read", "report.read",
		),
		builtin("user", "Basic tenant membership", ScopeTenant, RoleTypePredefined,
			"item.read", "location.read",
		),
	}
}

// builtin constructs an immutable seeded role.
func builtin(name, description string, scope Scope, roleType RoleType, grants ...string) *Role {
	now := time.Now()
	role := &Role{
		ID:                 uuidv7.New(),
		Name:               name,
		Description:        description,
		Scope:              scope,
		Type:               roleType,
		Stage:              StageGA,
		IsMutable:          false,
		PermissionsMutable: false,
		IsDeletable:        false,
		ETag:               uuidv7.New(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, grant := range grants {
		permission, ok := ParsePermission(grant)
		if !ok {
			continue
		}
		permission.RoleID = role.ID
		role.Permissions = append(role.Permissions, permission)
	}
	return role
}
