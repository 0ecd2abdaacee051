// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rbac implements role-based access control: role and permission
entities, the policy evaluation engine, and the management surface for
custom roles.

# Role Taxonomy

Roles are partitioned two ways. Scope places a role either in the shared
partition (GLOBAL) or inside one tenant schema (TENANT). Type captures who
may change it: BASIC and PREDEFINED roles ship with the platform and are
immutable; CUSTOM roles are tenant-created and always TENANT-scoped.

# Permission Grammar

A permission is "resource.action". Three forms are honored during matching,
in order: the exact pair, the per-resource wildcard "resource.*", and the
global wildcard "*.*". Tenant roles may additionally carry "-" prefixed
entries that subtract a permission from the merged global set.
*/
package rbac

import (
	"strings"
	"time"
)

// # Enumerations

// Scope partitions roles between the shared and tenant partitions.
type Scope string

const (
	ScopeGlobal Scope = "GLOBAL"
	ScopeTenant Scope = "TENANT"
)

// RoleType captures a role's mutability class.
type RoleType string

const (
	// RoleTypeBasic roles are the platform's global built-ins.
	RoleTypeBasic RoleType = "BASIC"

	// RoleTypePredefined roles are the tenant-level built-ins seeded into
	// every tenant schema.
	RoleTypePredefined RoleType = "PREDEFINED"

	// RoleTypeCustom roles are created by tenant administrators.
	RoleTypeCustom RoleType = "CUSTOM"
)

// Stage is the lifecycle maturity of a role definition.
type Stage string

const (
	StageAlpha      Stage = "ALPHA"
	StageBeta       Stage = "BETA"
	StageGA         Stage = "GA"
	StageDeprecated Stage = "DEPRECATED"
	StageDisabled   Stage = "DISABLED"
)

// # Entities

// Role is a named bundle of permissions.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Scope       Scope    `json:"scope"`
	Type        RoleType `json:"type"`
	Stage       Stage    `json:"stage"`

	// IsMutable gates definition updates; PermissionsMutable gates changes
	// to the permission list; IsDeletable gates removal. Built-ins carry
	// false for all three, custom roles true.
	IsMutable          bool `json:"is_mutable"`
	PermissionsMutable bool `json:"permissions_mutable"`
	IsDeletable        bool `json:"is_deletable"`

	// ETag changes on every mutation; writers must present the current
	// value for optimistic concurrency.
	ETag string `json:"etag"`

	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission grants, or with Deny set subtracts, one action on one resource.
type Permission struct {
	RoleID   string `json:"-"`
	Resource string `json:"resource"`
	Action   string `json:"action"`

	// Deny marks a tenant-level override that removes the permission from
	// the merged set instead of granting it.
	Deny bool `json:"deny,omitempty"`
}

// String renders the canonical form: "resource.action", with a leading "-"
// for deny overrides.
func (permission Permission) String() string {
	rendered := permission.Resource + "." + permission.Action
	if permission.Deny {
		return "-" + rendered
	}
	return rendered
}

// ParsePermission splits a canonical permission string. A leading "-" marks
// a deny override. The action is everything after the first dot, so actions
// themselves may contain dots.
func ParsePermission(value string) (Permission, bool) {
	value, deny := strings.CutPrefix(value, "-")
	resource, action, found := strings.Cut(value, ".")
	if !found || resource == "" || action == "" {
		return Permission{}, false
	}
	return Permission{Resource: resource, Action: action, Deny: deny}, true
}

// Assignment binds a role to a principal.
type Assignment struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	RoleID      string    `json:"role_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// # Guard Rails

// reservedRoleNames may never be used for custom roles, even with novel
// capitalization.
var reservedRoleNames = map[string]struct{}{
	"admin":       {},
	"super_admin": {},
	"manager":     {},
	"employee":    {},
	"user":        {},
	"viewer":      {},
}

// IsReservedRoleName reports whether the name collides with a built-in.
func IsReservedRoleName(name string) bool {
	_, reserved := reservedRoleNames[strings.ToLower(strings.TrimSpace(name))]
	return reserved
}

// restrictedPermissions may never be granted to tenant-scoped roles; they
// control the tenant lifecycle itself.
var restrictedPermissions = map[Permission]struct{}{
	{Resource: "tenant", Action: "create"}: {},
	{Resource: "tenant", Action: "update"}: {},
	{Resource: "tenant", Action: "delete"}: {},
	{Resource: "user", Action: "delete"}:   {},
}

// IsRestrictedPermission reports whether the permission is off-limits for
// tenant roles.
func IsRestrictedPermission(permission Permission) bool {
	_, restricted := restrictedPermissions[Permission{
		Resource: permission.Resource,
		Action:   permission.Action,
	}]
	return restricted
}
