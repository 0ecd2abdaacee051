// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/tessera/internal/authz/rbac"
)

// fakeWindowSource maps schema names to per-tenant hour windows.
type fakeWindowSource struct {
	windows map[string][2]int
}

func (source *fakeWindowSource) BusinessWindow(_ context.Context, schema string) (int, int, bool) {
	window, ok := source.windows[schema]
	return window[0], window[1], ok
}

func TestMergeWithPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		global   []string
		tenant   []string
		expected []string
	}{
		{
			name:     "additive tenant grants",
			global:   []string{"item.read"},
			tenant:   []string{"location.create"},
			expected: []string{"item.read", "location.create"},
		},
		{
			name:     "denial beats global grant",
			global:   []string{"item.read", "item.update"},
			tenant:   []string{"-item.update"},
			expected: []string{"item.read"},
		},
		{
			name:     "denial beats tenant grant of the same permission",
			global:   []string{"item.read"},
			tenant:   []string{"item.read", "-item.read", "location.create"},
			expected: []string{"location.create"},
		},
		{
			name:     "denial of absent permission is harmless",
			global:   []string{"item.read"},
			tenant:   []string{"-report.export"},
			expected: []string{"item.read"},
		},
		{
			name:     "empty inputs",
			global:   nil,
			tenant:   nil,
			expected: []string{},
		},
		{
			name:     "duplicates collapse",
			global:   []string{"item.read", "item.read"},
			tenant:   []string{"item.read"},
			expected: []string{"item.read"},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			merged := rbac.MergeWithPrecedence(testCase.global, testCase.tenant)
			assert.Equal(t, testCase.expected, merged)
		})
	}
}

func TestBusinessHoursCondition(t *testing.T) {
	permissions := []string{"item.read", "item.delete", "location.delete", "report.export"}

	clockAt := func(hour int) func() time.Time {
		return func() time.Time {
			return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
		}
	}

	ctx := context.Background()

	t.Run("inside window keeps destructive grants", func(t *testing.T) {
		condition := rbac.BusinessHours(9, 17, nil, clockAt(10))
		assert.Equal(t, permissions, condition(ctx, "tenant_acme", permissions))
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		for _, hour := range []int{9, 17} {
			condition := rbac.BusinessHours(9, 17, nil, clockAt(hour))
			assert.Equal(t, permissions, condition(ctx, "tenant_acme", permissions), "hour %d", hour)
		}
	})

	t.Run("outside window strips delete grants", func(t *testing.T) {
		condition := rbac.BusinessHours(9, 17, nil, clockAt(22))
		assert.Equal(t, []string{"item.read", "report.export"}, condition(ctx, "tenant_acme", permissions))
	})

	t.Run("early morning strips delete grants", func(t *testing.T) {
		condition := rbac.BusinessHours(9, 17, nil, clockAt(8))
		assert.Equal(t, []string{"item.read", "report.export"}, condition(ctx, "tenant_acme", permissions))
	})
}

func TestBusinessHoursTenantOverride(t *testing.T) {
	permissions := []string{"item.read", "item.delete"}
	windows := &fakeWindowSource{windows: map[string][2]int{
		"tenant_night_shift": {20, 23},
	}}

	clockAt := func(hour int) func() time.Time {
		return func() time.Time {
			return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
		}
	}
	ctx := context.Background()

	t.Run("override window admits hours the default would reject", func(t *testing.T) {
		condition := rbac.BusinessHours(9, 17, windows, clockAt(22))
		assert.Equal(t, permissions, condition(ctx, "tenant_night_shift", permissions))
	})

	t.Run("override window rejects the default hours", func(t *testing.T) {
		condition := rbac.BusinessHours(9, 17, windows, clockAt(10))
		assert.Equal(t, []string{"item.read"}, condition(ctx, "tenant_night_shift", permissions))
	})

	t.Run("tenants without an override use the default", func(t *testing.T) {
		condition := rbac.BusinessHours(9, 17, windows, clockAt(10))
		assert.Equal(t, permissions, condition(ctx, "tenant_acme", permissions))
	})

	t.Run("no schema means no override lookup", func(t *testing.T) {
		condition := rbac.BusinessHours(9, 17, windows, clockAt(10))
		assert.Equal(t, permissions, condition(ctx, "", permissions))
	})
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name        string
		permissions []string
		resource    string
		action      string
		expected    bool
	}{
		{"exact match", []string{"item.read"}, "item", "read", true},
		{"resource wildcard", []string{"item.*"}, "item", "delete", true},
		{"global wildcard", []string{"*.*"}, "anything", "anything", true},
		{"bare star", []string{"*"}, "item", "read", true},
		{"no match", []string{"item.read"}, "item", "delete", false},
		{"foreign resource wildcard", []string{"location.*"}, "item", "read", false},
		{"empty set", nil, "item", "read", false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			allowed := rbac.Matches(testCase.permissions, testCase.resource, testCase.action)
			assert.Equal(t, testCase.expected, allowed)
		})
	}
}

func TestFilterByResource(t *testing.T) {
	permissions := []string{"item.read", "item.delete", "location.create", "*.*"}

	assert.Equal(t,
		[]string{"item.read", "item.delete", "*.*"},
		rbac.FilterByResource(permissions, "item"),
	)
	assert.Equal(t,
		[]string{"location.create", "*.*"},
		rbac.FilterByResource(permissions, "location"),
	)
}

func TestParsePermission(t *testing.T) {
	permission, ok := rbac.ParsePermission("item.read")
	assert.True(t, ok)
	assert.Equal(t, "item", permission.Resource)
	assert.Equal(t, "read", permission.Action)

	denial, ok := rbac.ParsePermission("-item.read")
	assert.True(t, ok)
	assert.True(t, denial.Deny)
	assert.Equal(t, "-item.read", denial.String())

	_, ok = rbac.ParsePermission("itemread")
	assert.False(t, ok)

	_, ok = rbac.ParsePermission(".read")
	assert.False(t, ok)
}

func TestReservedAndRestricted(t *testing.T) {
	assert.True(t, rbac.IsReservedRoleName("admin"))
	assert.True(t, rbac.IsReservedRoleName("  Super_Admin "))
	assert.False(t, rbac.IsReservedRoleName("warehouse-lead"))

	assert.True(t, rbac.IsRestrictedPermission(rbac.Permission{Resource: "tenant", Action: "delete"}))
	assert.True(t, rbac.IsRestrictedPermission(rbac.Permission{Resource: "user", Action: "delete"}))
	assert.False(t, rbac.IsRestrictedPermission(rbac.Permission{Resource: "item", Action: "delete"}))
}
