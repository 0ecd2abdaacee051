// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"
	"sort"
	"strings"
	"time"
)

// # Policy Merge

/*
MergeWithPrecedence combines the global permission set with a tenant-level
overlay. Plain tenant entries are additive; entries prefixed with "-"
subtract the named permission from the result. Denial always wins: a "-"
entry removes the permission even when the tenant overlay also grants it.

Parameters:
  - global: []string (Permissions from GLOBAL-scoped roles)
  - tenant: []string (Permissions and "-" overrides from TENANT-scoped roles)

Returns:
  - []string: Sorted effective permission set
*/
func MergeWithPrecedence(global, tenant []string) []string {
	effective := make(map[string]struct{}, len(global)+len(tenant))
	denied := make(map[string]struct{})

	for _, permission := range global {
		effective[permission] = struct{}{}
	}

	for _, permission := range tenant {
		if stripped, isDenial := strings.CutPrefix(permission, "-"); isDenial {
			denied[stripped] = struct{}{}
			continue
		}
		effective[permission] = struct{}{}
	}

	for permission := range denied {
		delete(effective, permission)
	}

	merged := make([]string, 0, len(effective))
	for permission := range effective {
		merged = append(merged, permission)
	}
	sort.Strings(merged)

	return merged
}

// # Conditional Access

// Condition filters an effective permission set based on request-time
// context. The schema identifies the tenant the check runs against, so a
// condition can consult per-tenant settings. Conditions run after the
// merge, so they can only remove grants, never add them.
type Condition func(ctx context.Context, schema string, permissions []string) []string

// WindowSource supplies a tenant's business-hours override. Implemented by
// the tenant resolver; a nil source means every tenant uses the default.
type WindowSource interface {
	BusinessWindow(ctx context.Context, schema string) (start, end int, ok bool)
}

// BusinessHours returns a condition that strips destructive permissions
// (any ".delete" suffixed grant) outside the inclusive [start, end] hour
// window. Tenants with their own window configured override the default
// one. The clock is injected so tests can pin the evaluation instant.
func BusinessHours(start, end int, windows WindowSource, clock func() time.Time) Condition {
	return func(ctx context.Context, schema string, permissions []string) []string {
		windowStart, windowEnd := start, end
		if windows != nil && schema != "" {
			if tenantStart, tenantEnd, ok := windows.BusinessWindow(ctx, schema); ok {
				windowStart, windowEnd = tenantStart, tenantEnd
			}
		}

		hour := clock().Hour()
		if hour >= windowStart && hour <= windowEnd {
			return permissions
		}

		filtered := make([]string, 0, len(permissions))
		for _, permission := range permissions {
			if strings.HasSuffix(permission, ".delete") {
				continue
			}
			filtered = append(filtered, permission)
		}
		return filtered
	}
}

// ApplyConditions runs each condition over the set in order.
func ApplyConditions(ctx context.Context, schema string, permissions []string, conditions ...Condition) []string {
	for _, condition := range conditions {
		permissions = condition(ctx, schema, permissions)
	}
	return permissions
}

// # Matching

/*
Matches reports whether the permission set allows the action on the
resource. Wildcards are honored in order: the exact "resource.action" pair,
the per-resource "resource.*", and the global "*.*".

Parameters:
  - permissions: []string (Effective, condition-filtered set)
  - resource: string
  - action: string

Returns:
  - bool: true when any form matches
*/
func Matches(permissions []string, resource, action string) bool {
	exact := resource + "." + action
	resourceWildcard := resource + ".*"

	for _, permission := range permissions {
		switch permission {
		case exact, resourceWildcard, "*.*", "*":
			return true
		}
	}

	return false
}

// FilterByResource keeps the grants relevant to one resource: its own
// entries, the matching per-resource wildcard, and the global wildcard.
func FilterByResource(permissions []string, resource string) []string {
	filtered := make([]string, 0, len(permissions))
	for _, permission := range permissions {
		if permission == "*.*" || permission == "*" {
			filtered = append(filtered, permission)
			continue
		}
		if owner, _, found := strings.Cut(permission, "."); found && (owner == resource || owner == "*") {
			filtered = append(filtered, permission)
		}
	}
	return filtered
}
