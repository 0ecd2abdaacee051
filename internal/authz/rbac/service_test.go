// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tessera/internal/authz/rbac"
	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/metrics"
)

// fakeGrantStore answers grant queries from fixed maps keyed by principal.
type fakeGrantStore struct {
	globalRoles       map[string][]string
	tenantRoles       map[string][]string
	globalPermissions map[string][]string
	tenantPermissions map[string][]string
}

func (store *fakeGrantStore) GlobalRoleNames(_ context.Context, principalID string) ([]string, error) {
	return store.globalRoles[principalID], nil
}

func (store *fakeGrantStore) TenantRoleNames(_ context.Context, _, principalID string) ([]string, error) {
	return store.tenantRoles[principalID], nil
}

func (store *fakeGrantStore) GlobalPermissions(_ context.Context, principalID string) ([]string, error) {
	return store.globalPermissions[principalID], nil
}

func (store *fakeGrantStore) TenantPermissions(_ context.Context, _, principalID string) ([]string, error) {
	return store.tenantPermissions[principalID], nil
}

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
	}
}

func newGrantStore() *fakeGrantStore {
	return &fakeGrantStore{
		globalRoles: map[string][]string{
			"alice": {"viewer"},
		},
		tenantRoles: map[string][]string{
			"alice": {"employee"},
		},
		globalPermissions: map[string][]string{
			"alice": {"item.read", "item.update"},
		},
		tenantPermissions: map[string][]string{
			"alice": {"item.delete", "location.create", "-item.update"},
		},
	}
}

func TestHasRoleChecksGlobalThenTenant(t *testing.T) {
	service := rbac.NewService(newGrantStore(), metrics.New())

	held, err := service.HasRole(context.Background(), "tenant_acme", "alice", "viewer")
	require.NoError(t, err)
	assert.True(t, held, "global role")

	held, err = service.HasRole(context.Background(), "tenant_acme", "alice", "employee")
	require.NoError(t, err)
	assert.True(t, held, "tenant role")

	held, err = service.HasRole(context.Background(), "tenant_acme", "alice", "manager")
	require.NoError(t, err)
	assert.False(t, held)

	// Without a schema only the global partition is consulted.
	held, err = service.HasRole(context.Background(), "", "alice", "employee")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestEffectivePermissionsMergeAndDeny(t *testing.T) {
	service := rbac.NewService(newGrantStore(), metrics.New())

	permissions, err := service.EffectivePermissions(context.Background(), "tenant_acme", "alice")
	require.NoError(t, err)

	// The tenant "-item.update" override removed the global grant.
	assert.Equal(t, []string{"item.delete", "item.read", "location.create"}, permissions)
}

func TestConditionsFilterAtCheckTime(t *testing.T) {
	afterHours := rbac.NewService(newGrantStore(), metrics.New(),
		rbac.BusinessHours(9, 17, nil, fixedClock(22)),
	)

	allowed, err := afterHours.HasPermission(context.Background(), "tenant_acme", "alice", "item", "delete")
	require.NoError(t, err)
	assert.False(t, allowed, "delete outside business hours")

	allowed, err = afterHours.HasPermission(context.Background(), "tenant_acme", "alice", "item", "read")
	require.NoError(t, err)
	assert.True(t, allowed, "read is not time-gated")

	duringHours := rbac.NewService(newGrantStore(), metrics.New(),
		rbac.BusinessHours(9, 17, nil, fixedClock(11)),
	)

	allowed, err = duringHours.HasPermission(context.Background(), "tenant_acme", "alice", "item", "delete")
	require.NoError(t, err)
	assert.True(t, allowed, "delete during business hours")
}

func TestConditionsUseTenantWindowOverride(t *testing.T) {
	// tenant_acme runs an evening window, so 22:00 is inside business hours
	// for it while the platform default would have stripped the delete.
	windows := &fakeWindowSource{windows: map[string][2]int{
		"tenant_acme": {18, 23},
	}}
	service := rbac.NewService(newGrantStore(), metrics.New(),
		rbac.BusinessHours(9, 17, windows, fixedClock(22)),
	)

	allowed, err := service.HasPermission(context.Background(), "tenant_acme", "alice", "item", "delete")
	require.NoError(t, err)
	assert.True(t, allowed, "delete inside the tenant's own window")
}

func TestResourcePermissionsScopeTheSet(t *testing.T) {
	service := rbac.NewService(newGrantStore(), metrics.New())

	// Alice's effective set spans item and location; the item view carries
	// only the item grants.
	permissions, err := service.ResourcePermissions(context.Background(), "tenant_acme", "alice", "item")
	require.NoError(t, err)
	assert.Equal(t, []string{"item.delete", "item.read"}, permissions)

	permissions, err = service.ResourcePermissions(context.Background(), "tenant_acme", "alice", "location")
	require.NoError(t, err)
	assert.Equal(t, []string{"location.create"}, permissions)

	// A grant on one resource never leaks into a check on another.
	allowed, err := service.HasPermission(context.Background(), "tenant_acme", "alice", "location", "delete")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRequirePermission(t *testing.T) {
	service := rbac.NewService(newGrantStore(), metrics.New())

	require.NoError(t, service.RequirePermission(context.Background(), "tenant_acme", "alice", "item", "read"))

	err := service.RequirePermission(context.Background(), "tenant_acme", "alice", "tenant", "delete")
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "AUTHORIZATION_FAILED", appError.Code)
	assert.Equal(t, "Permission denied: tenant.delete", appError.Message)
}

func TestRequireRole(t *testing.T) {
	service := rbac.NewService(newGrantStore(), metrics.New())

	require.NoError(t, service.RequireRole(context.Background(), "tenant_acme", "alice", "employee"))

	err := service.RequireRole(context.Background(), "tenant_acme", "alice", "manager")
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "AUTHORIZATION_FAILED", appError.Code)
}

func TestGrantsForSkipsConditions(t *testing.T) {
	// Even with an always-off business window, issuance snapshots keep the
	// delete grants; the gate applies at check time instead.
	service := rbac.NewService(newGrantStore(), metrics.New(),
		rbac.BusinessHours(9, 17, nil, fixedClock(3)),
	)

	roles, permissions, err := service.GrantsFor(context.Background(), "tenant_acme", "alice")
	require.NoError(t, err)

	assert.Equal(t, []string{"viewer", "employee"}, roles)
	assert.Contains(t, permissions, "item.delete")
	assert.NotContains(t, permissions, "item.update")
}
