// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"context"
	"fmt"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/metrics"
)

// # Authorization Service

// Service evaluates authorization questions against stored role
// assignments. It is the authoritative check: unlike the token-embedded
// snapshot, it always reflects the current assignments.
type Service struct {
	grants     GrantStore
	conditions []Condition
	metrics    *metrics.Registry
}

// NewService wires the authorization service. Conditions run over every
// effective permission set in the order given.
func NewService(grants GrantStore, registry *metrics.Registry, conditions ...Condition) *Service {
	return &Service{grants: grants, conditions: conditions, metrics: registry}
}

/*
HasRole reports whether the principal holds the named role in either
partition. The global partition is checked first; a miss falls through to
the tenant partition when a schema is given.

Parameters:
  - context: context.Context
  - schema: string (Tenant schema, "" for global-only principals)
  - principalID: string
  - name: string (Role name)

Returns:
  - bool: true when the role is assigned
  - error: Storage errors
*/
func (service *Service) HasRole(context context.Context, schema, principalID, name string) (bool, error) {
	globalRoles, err := service.grants.GlobalRoleNames(context, principalID)
	if err != nil {
		return false, err
	}
	for _, role := range globalRoles {
		if role == name {
			return true, nil
		}
	}

	if schema == "" {
		return false, nil
	}

	tenantRoles, err := service.grants.TenantRoleNames(context, schema, principalID)
	if err != nil {
		return false, err
	}
	for _, role := range tenantRoles {
		if role == name {
			return true, nil
		}
	}

	return false, nil
}

/*
EffectivePermissions computes the principal's live permission set: global
grants merged with tenant grants under "-" precedence, then filtered by the
configured conditions.

Parameters:
  - context: context.Context
  - schema: string (Tenant schema, "" for global-only principals)
  - principalID: string

Returns:
  - []string: Sorted, condition-filtered permission set
  - error: Storage errors
*/
func (service *Service) EffectivePermissions(context context.Context, schema, principalID string) ([]string, error) {
	merged, err := service.mergedPermissions(context, schema, principalID)
	if err != nil {
		return nil, err
	}
	return ApplyConditions(context, schema, merged, service.conditions...), nil
}

/*
HasPermission reports whether the principal may perform the action on the
resource, wildcards and conditions included.

Parameters:
  - context: context.Context
  - schema: string (Tenant schema, "" for global-only principals)
  - principalID: string
  - resource: string
  - action: string

Returns:
  - bool: true when allowed
  - error: Storage errors
*/
func (service *Service) HasPermission(context context.Context, schema, principalID, resource, action string) (bool, error) {
	permissions, err := service.ResourcePermissions(context, schema, principalID, resource)
	if err != nil {
		return false, err
	}

	allowed := Matches(permissions, resource, action)
	result := "deny"
	if allowed {
		result = "allow"
	}
	service.metrics.AuthzDecisions.WithLabelValues(result).Inc()

	return allowed, nil
}

/*
ResourcePermissions narrows the effective set to the grants that can bear on
one resource: its own entries plus the wildcards. [Service.HasPermission]
matches against this scoped set.

Parameters:
  - context: context.Context
  - schema: string (Tenant schema, "" for global-only principals)
  - principalID: string
  - resource: string

Returns:
  - []string: Resource-scoped, condition-filtered permission set
  - error: Storage errors
*/
func (service *Service) ResourcePermissions(context context.Context, schema, principalID, resource string) ([]string, error) {
	permissions, err := service.EffectivePermissions(context, schema, principalID)
	if err != nil {
		return nil, err
	}
	return FilterByResource(permissions, resource), nil
}

// RequirePermission is [Service.HasPermission] that converts a denial into
// an AuthorizationFailed error.
func (service *Service) RequirePermission(context context.Context, schema, principalID, resource, action string) error {
	allowed, err := service.HasPermission(context, schema, principalID, resource, action)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.AuthorizationFailed(fmt.Sprintf("Permission denied: %s.%s", resource, action))
	}
	return nil
}

// RequireRole is [Service.HasRole] that converts a missing role into an
// AuthorizationFailed error.
func (service *Service) RequireRole(context context.Context, schema, principalID, name string) error {
	held, err := service.HasRole(context, schema, principalID, name)
	if err != nil {
		return err
	}
	if !held {
		return apperr.AuthorizationFailed(fmt.Sprintf("Role required: %s", name))
	}
	return nil
}

/*
GrantsFor produces the role and permission snapshot embedded in a freshly
issued access token. Conditions are deliberately NOT applied: they depend on
request time, so they are evaluated at check time, not at issuance.

Parameters:
  - context: context.Context
  - schema: string (Tenant schema)
  - userID: string

Returns:
  - []string: Role names, global first
  - []string: Merged permission set
  - error: Storage errors
*/
func (service *Service) GrantsFor(context context.Context, schema, userID string) ([]string, []string, error) {
	globalRoles, err := service.grants.GlobalRoleNames(context, userID)
	if err != nil {
		return nil, nil, err
	}
	tenantRoles, err := service.grants.TenantRoleNames(context, schema, userID)
	if err != nil {
		return nil, nil, err
	}

	permissions, err := service.mergedPermissions(context, schema, userID)
	if err != nil {
		return nil, nil, err
	}

	return append(globalRoles, tenantRoles...), permissions, nil
}

// mergedPermissions runs the two-partition read and the precedence merge.
func (service *Service) mergedPermissions(context context.Context, schema, principalID string) ([]string, error) {
	global, err := service.grants.GlobalPermissions(context, principalID)
	if err != nil {
		return nil, err
	}

	var tenantGrants []string
	if schema != "" {
		tenantGrants, err = service.grants.TenantPermissions(context, schema, principalID)
		if err != nil {
			return nil, err
		}
	}

	return MergeWithPrecedence(global, tenantGrants), nil
}
