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
	"github.com/taibuivan/tessera/pkg/uuidv7"
)

// fakeRoleRepository is an in-memory [rbac.RoleRepository] with real
// compare-and-swap semantics on the etag.
type fakeRoleRepository struct {
	roles       map[string]*rbac.Role // keyed by ID
	assignments []*rbac.Assignment
}

func newFakeRoleRepository(roles ...*rbac.Role) *fakeRoleRepository {
	repository := &fakeRoleRepository{roles: map[string]*rbac.Role{}}
	for _, role := range roles {
		repository.roles[role.ID] = role
	}
	return repository
}

func (repository *fakeRoleRepository) FindByID(_ context.Context, _, id string) (*rbac.Role, error) {
	if role, ok := repository.roles[id]; ok {
		copied := *role
		return &copied, nil
	}
	return nil, apperr.NotFound("Role")
}

func (repository *fakeRoleRepository) FindByName(_ context.Context, _, name string) (*rbac.Role, error) {
	for _, role := range repository.roles {
		if role.Name == name {
			copied := *role
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Role")
}

func (repository *fakeRoleRepository) ListTenant(_ context.Context, _ string) ([]*rbac.Role, error) {
	roles := make([]*rbac.Role, 0, len(repository.roles))
	for _, role := range repository.roles {
		roles = append(roles, role)
	}
	return roles, nil
}

func (repository *fakeRoleRepository) ListGlobal(_ context.Context) ([]*rbac.Role, error) {
	return nil, nil
}

func (repository *fakeRoleRepository) Create(_ context.Context, _ string, role *rbac.Role) error {
	for _, existing := range repository.roles {
		if existing.Name == role.Name {
			return apperr.Conflict("Resource already exists")
		}
	}
	repository.roles[role.ID] = role
	return nil
}

func (repository *fakeRoleRepository) Update(_ context.Context, _ string, role *rbac.Role, expectedETag string) (bool, error) {
	existing, ok := repository.roles[role.ID]
	if !ok || existing.ETag != expectedETag {
		return false, nil
	}
	repository.roles[role.ID] = role
	return true, nil
}

func (repository *fakeRoleRepository) Delete(_ context.Context, _, id, expectedETag string) (bool, error) {
	existing, ok := repository.roles[id]
	if !ok || existing.ETag != expectedETag {
		return false, nil
	}
	delete(repository.roles, id)
	return true, nil
}

func (repository *fakeRoleRepository) Assign(_ context.Context, _ string, assignment *rbac.Assignment) error {
	repository.assignments = append(repository.assignments, assignment)
	return nil
}

func (repository *fakeRoleRepository) Unassign(_ context.Context, _, principalID, roleID string) error {
	for index, assignment := range repository.assignments {
		if assignment.PrincipalID == principalID && assignment.RoleID == roleID {
			repository.assignments = append(repository.assignments[:index], repository.assignments[index+1:]...)
			return nil
		}
	}
	return apperr.NotFound("Role assignment")
}

func predefinedRole() *rbac.Role {
	now := time.Now()
	return &rbac.Role{
		ID:        uuidv7.New(),
		Name:      "employee",
		Scope:     rbac.ScopeTenant,
		Type:      rbac.RoleTypePredefined,
		Stage:     rbac.StageGA,
		IsMutable: false,
		ETag:      uuidv7.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateCustomRoleForcesTenantScope(t *testing.T) {
	manager := rbac.NewManager(newFakeRoleRepository())

	role, err := manager.CreateCustomRole(context.Background(), "tenant_acme", rbac.RoleInput{
		Name:        "warehouse-lead",
		Description: "Runs the warehouse floor",
		Permissions: []string{"item.*", "location.read", "-item.delete"},
	})
	require.NoError(t, err)

	assert.Equal(t, rbac.ScopeTenant, role.Scope)
	assert.Equal(t, rbac.RoleTypeCustom, role.Type)
	assert.True(t, role.IsMutable)
	assert.True(t, role.PermissionsMutable)
	assert.True(t, role.IsDeletable)
	assert.NotEmpty(t, role.ETag)
	require.Len(t, role.Permissions, 3)
	assert.True(t, role.Permissions[2].Deny)
}

func TestSeededRolesCarryLockedFlags(t *testing.T) {
	seeded := append(rbac.SeedGlobalRoles(), rbac.SeedTenantRoles()...)
	require.NotEmpty(t, seeded)

	for _, role := range seeded {
		assert.False(t, role.IsMutable, role.Name)
		assert.False(t, role.PermissionsMutable, role.Name)
		assert.False(t, role.IsDeletable, role.Name)
	}
}

func TestCreateCustomRoleRejectsReservedName(t *testing.T) {
	manager := rbac.NewManager(newFakeRoleRepository())

	_, err := manager.CreateCustomRole(context.Background(), "tenant_acme", rbac.RoleInput{
		Name:        "Admin",
		Permissions: []string{"item.read"},
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "AUTHORIZATION_FAILED", appError.Code)
}

func TestCreateCustomRoleRejectsRestrictedPermission(t *testing.T) {
	manager := rbac.NewManager(newFakeRoleRepository())

	for _, restricted := range []string{"tenant.create", "tenant.update", "tenant.delete", "user.delete"} {
		_, err := manager.CreateCustomRole(context.Background(), "tenant_acme", rbac.RoleInput{
			Name:        "sneaky",
			Permissions: []string{"item.read", restricted},
		})
		require.Error(t, err, restricted)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "AUTHORIZATION_FAILED", appError.Code)
	}
}

func TestUpdateRoleRotatesETag(t *testing.T) {
	manager := rbac.NewManager(newFakeRoleRepository())

	role, err := manager.CreateCustomRole(context.Background(), "tenant_acme", rbac.RoleInput{
		Name:        "warehouse-lead",
		Permissions: []string{"item.read"},
	})
	require.NoError(t, err)
	originalETag := role.ETag

	updated, err := manager.UpdateRole(context.Background(), "tenant_acme", role.ID, originalETag, rbac.RoleInput{
		Name:        "warehouse-lead",
		Description: "Now with reporting",
		Permissions: []string{"item.read", "report.read"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, originalETag, updated.ETag)

	// The stale etag no longer works.
	_, err = manager.UpdateRole(context.Background(), "tenant_acme", role.ID, originalETag, rbac.RoleInput{
		Name:        "warehouse-lead",
		Permissions: []string{"item.read"},
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", appError.Code)
}

func TestUpdateRoleRequiresETag(t *testing.T) {
	manager := rbac.NewManager(newFakeRoleRepository())

	role, err := manager.CreateCustomRole(context.Background(), "tenant_acme", rbac.RoleInput{
		Name:        "warehouse-lead",
		Permissions: []string{"item.read"},
	})
	require.NoError(t, err)

	_, err = manager.UpdateRole(context.Background(), "tenant_acme", role.ID, "", rbac.RoleInput{
		Name:        "warehouse-lead",
		Permissions: []string{"item.read"},
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}

func TestBuiltInRolesAreImmutable(t *testing.T) {
	seeded := predefinedRole()
	manager := rbac.NewManager(newFakeRoleRepository(seeded))

	// Even the correct etag cannot mutate or delete a built-in.
	_, err := manager.UpdateRole(context.Background(), "tenant_acme", seeded.ID, seeded.ETag, rbac.RoleInput{
		Name:        "employee",
		Permissions: []string{"item.read"},
	})
	require.Error(t, err)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", apperr.As(err).Code)

	err = manager.DeleteRole(context.Background(), "tenant_acme", seeded.ID, seeded.ETag)
	require.Error(t, err)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", apperr.As(err).Code)
}

func TestDeleteRoleWithCurrentETag(t *testing.T) {
	repository := newFakeRoleRepository()
	manager := rbac.NewManager(repository)

	role, err := manager.CreateCustomRole(context.Background(), "tenant_acme", rbac.RoleInput{
		Name:        "temporary",
		Permissions: []string{"item.read"},
	})
	require.NoError(t, err)

	require.NoError(t, manager.DeleteRole(context.Background(), "tenant_acme", role.ID, role.ETag))

	_, err = manager.GetRole(context.Background(), "tenant_acme", role.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestAssignAndUnassignRole(t *testing.T) {
	repository := newFakeRoleRepository()
	manager := rbac.NewManager(repository)

	role, err := manager.CreateCustomRole(context.Background(), "tenant_acme", rbac.RoleInput{
		Name:        "warehouse-lead",
		Permissions: []string{"item.read"},
	})
	require.NoError(t, err)

	assignment, err := manager.AssignRole(context.Background(), "tenant_acme", "alice", role.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", assignment.PrincipalID)

	require.NoError(t, manager.UnassignRole(context.Background(), "tenant_acme", "alice", role.ID))

	err = manager.UnassignRole(context.Background(), "tenant_acme", "alice", role.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	// Assigning a role that does not exist fails up front.
	_, err = manager.AssignRole(context.Background(), "tenant_acme", "alice", uuidv7.New())
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
