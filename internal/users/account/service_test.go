// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/ctxutil"
	"github.com/taibuivan/tessera/internal/users/account"
	"github.com/taibuivan/tessera/internal/users/auth"
)

// # Fakes

type fakeUserRepository struct {
	users map[string]*auth.TenantUser // keyed by ID, single schema
}

func newFakeUserRepository(users ...*auth.TenantUser) *fakeUserRepository {
	repository := &fakeUserRepository{users: map[string]*auth.TenantUser{}}
	for _, user := range users {
		repository.users[user.ID] = user
	}
	return repository
}

func (repository *fakeUserRepository) FindByEmail(_ context.Context, _, email string) (*auth.TenantUser, error) {
	for _, user := range repository.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *fakeUserRepository) FindByID(_ context.Context, _, id string) (*auth.TenantUser, error) {
	if user, ok := repository.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (repository *fakeUserRepository) SetTokensValidAfter(_ context.Context, _, id string, validAfter time.Time) (bool, error) {
	user, ok := repository.users[id]
	if !ok {
		return false, nil
	}
	instant := validAfter
	user.TokensValidAfter = &instant
	return true, nil
}

func (repository *fakeUserRepository) Create(_ context.Context, _ string, user *auth.TenantUser) error {
	repository.users[user.ID] = user
	return nil
}

func (repository *fakeUserRepository) List(_ context.Context, _ string, limit, offset int) ([]*auth.TenantUser, int, error) {
	users := make([]*auth.TenantUser, 0, len(repository.users))
	for _, user := range repository.users {
		users = append(users, user)
	}
	total := len(users)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return users[offset:end], total, nil
}

func (repository *fakeUserRepository) SetActive(_ context.Context, _, id string, active bool) (bool, error) {
	user, ok := repository.users[id]
	if !ok {
		return false, nil
	}
	user.IsActive = active
	return true, nil
}

func (repository *fakeUserRepository) CountActive(_ context.Context, _ string) (int, error) {
	count := 0
	for _, user := range repository.users {
		if user.IsActive {
			count++
		}
	}
	return count, nil
}

type fakeSeatEnforcer struct {
	full  bool
	calls int
}

func (enforcer *fakeSeatEnforcer) EnforceSeatLimit(_ context.Context, _, _ string) error {
	enforcer.calls++
	if enforcer.full {
		return apperr.BusinessRule("License seat limit reached: 2 of 2 seats in use")
	}
	return nil
}

type fakeRevoker struct {
	revoked []string
}

func (revoker *fakeRevoker) RevokeByPrincipalID(_ context.Context, principalID, _ string) (int, error) {
	revoker.revoked = append(revoker.revoked, principalID)
	return 1, nil
}

type fakeRoleAssigner struct {
	assigned map[string]string // principalID -> role name
}

func (assigner *fakeRoleAssigner) AssignByName(_ context.Context, _, principalID, roleName string) error {
	if assigner.assigned == nil {
		assigner.assigned = map[string]string{}
	}
	assigner.assigned[principalID] = roleName
	return nil
}

// # Fixture

var acmeContext = &ctxutil.TenantContext{
	TenantID:  "0195f1a2-0000-7000-8000-0000000000aa",
	Subdomain: "acme",
	Schema:    "tenant_acme",
}

func newService(repository *fakeUserRepository, seats *fakeSeatEnforcer) (*account.Service, *fakeRevoker, *fakeRoleAssigner) {
	revoker := &fakeRevoker{}
	assigner := &fakeRoleAssigner{}
	service := account.NewService(repository, seats, revoker, assigner, slog.Default())
	return service, revoker, assigner
}

func TestProvisionUser(t *testing.T) {
	repository := newFakeUserRepository()
	service, _, assigner := newService(repository, &fakeSeatEnforcer{})

	user, err := service.ProvisionUser(context.Background(), acmeContext, account.ProvisionInput{
		Email:    "new@acme.test",
		Password: "a-long-enough-password",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.True(t, user.IsActive)
	assert.Equal(t, acmeContext.TenantID, user.TenantID)
	assert.NotEqual(t, "a-long-enough-password", user.PasswordHash)
	assert.Equal(t, "user", assigner.assigned[user.ID], "default role")
}

func TestProvisionUserBlockedBySeatLimit(t *testing.T) {
	repository := newFakeUserRepository()
	seats := &fakeSeatEnforcer{full: true}
	service, _, _ := newService(repository, seats)

	_, err := service.ProvisionUser(context.Background(), acmeContext, account.ProvisionInput{
		Email:    "new@acme.test",
		Password: "a-long-enough-password",
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", appError.Code)
	assert.Empty(t, repository.users, "no account is created when the gate fails")
}

func TestProvisionUserValidation(t *testing.T) {
	service, _, _ := newService(newFakeUserRepository(), &fakeSeatEnforcer{})

	_, err := service.ProvisionUser(context.Background(), acmeContext, account.ProvisionInput{
		Email:    "not-an-email",
		Password: "short",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestProvisionUserCustomRole(t *testing.T) {
	service, _, assigner := newService(newFakeUserRepository(), &fakeSeatEnforcer{})

	user, err := service.ProvisionUser(context.Background(), acmeContext, account.ProvisionInput{
		Email:    "lead@acme.test",
		Password: "a-long-enough-password",
		Role:     "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "manager", assigner.assigned[user.ID])
}

func TestDeactivateUserRevokesTokens(t *testing.T) {
	existing := &auth.TenantUser{
		ID:       "0195f1a2-0000-7000-8000-0000000000cc",
		Email:    "member@acme.test",
		IsActive: true,
	}
	repository := newFakeUserRepository(existing)
	service, revoker, _ := newService(repository, &fakeSeatEnforcer{})

	require.NoError(t, service.DeactivateUser(context.Background(), "tenant_acme", existing.ID))

	assert.False(t, existing.IsActive)
	assert.Equal(t, []string{existing.ID}, revoker.revoked)
}

func TestDeactivateUnknownUser(t *testing.T) {
	service, _, _ := newService(newFakeUserRepository(), &fakeSeatEnforcer{})

	err := service.DeactivateUser(context.Background(), "tenant_acme", "missing")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestReactivatePassesSeatGate(t *testing.T) {
	existing := &auth.TenantUser{
		ID:       "0195f1a2-0000-7000-8000-0000000000cc",
		Email:    "member@acme.test",
		IsActive: false,
	}
	repository := newFakeUserRepository(existing)
	seats := &fakeSeatEnforcer{}
	service, _, _ := newService(repository, seats)

	require.NoError(t, service.ReactivateUser(context.Background(), acmeContext, existing.ID))
	assert.True(t, existing.IsActive)
	assert.Equal(t, 1, seats.calls)

	// A full tenant cannot reactivate.
	existing.IsActive = false
	seats.full = true
	err := service.ReactivateUser(context.Background(), acmeContext, existing.ID)
	require.Error(t, err)
	assert.False(t, existing.IsActive)
}
