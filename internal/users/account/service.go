// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/ctxutil"
	"github.com/taibuivan/tessera/internal/platform/sec"
	"github.com/taibuivan/tessera/internal/platform/validate"
	"github.com/taibuivan/tessera/internal/users/auth"
	"github.com/taibuivan/tessera/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates tenant user administration. Provisioning is gated on
// licensed seats; deactivation revokes all of the user's tokens.
type Service struct {
	users   auth.TenantUserRepository
	seats   SeatEnforcer
	revoker TokenRevoker
	roles   RoleAssigner
	logger  *slog.Logger
}

// NewService constructs a new [Service] with its collaborators.
func NewService(
	users auth.TenantUserRepository,
	seats SeatEnforcer,
	revoker TokenRevoker,
	roles RoleAssigner,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:   users,
		seats:   seats,
		revoker: revoker,
		roles:   roles,
		logger:  logger,
	}
}

// ProvisionInput is the caller-supplied portion of a new user account.
type ProvisionInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Role is the tenant role granted at creation. Empty means the
	// predefined "user" role.
	Role string `json:"role,omitempty"`
}

/*
ProvisionUser creates a tenant member, consuming one licensed seat.

Description: The seat gate runs first, so a tenant at capacity fails before
any credentials are processed. The new account is active immediately and
receives the requested tenant role.

Parameters:
  - context: context.Context
  - tenant: *ctxutil.TenantContext (Resolved owning tenant)
  - input: ProvisionInput

Returns:
  - *auth.TenantUser: Created account
  - error: apperr.BusinessRule when no seat is free, validation or storage errors
*/
func (service *Service) ProvisionUser(context context.Context, tenant *ctxutil.TenantContext, input ProvisionInput) (*auth.TenantUser, error) {
	validator := &validate.Validator{}
	if err := validator.
		Required("email", input.Email).
		Email("email", input.Email).
		Required("password", input.Password).
		MinLen("password", input.Password, 12).
		Err(); err != nil {
		return nil, err
	}

	// ── 1. Seat Gate ──────────────────────────────────────────────────────

	if err := service.seats.EnforceSeatLimit(context, tenant.TenantID, tenant.Schema); err != nil {
		return nil, err
	}

	// ── 2. Credential Hashing ─────────────────────────────────────────────

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_hash_failed: %w", err)
	}

	// ── 3. Persistence ────────────────────────────────────────────────────

	now := time.Now()
	user := &auth.TenantUser{
		ID:           uuidv7.New(),
		Email:        input.Email,
		PasswordHash: hash,
		TenantID:     tenant.TenantID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := service.users.Create(context, tenant.Schema, user); err != nil {
		return nil, err
	}

	// ── 4. Default Role ───────────────────────────────────────────────────

	roleName := input.Role
	if roleName == "" {
		roleName = "user"
	}
	if err := service.roles.AssignByName(context, tenant.Schema, user.ID, roleName); err != nil {
		service.logger.Error("user_default_role_assignment_failed",
			slog.String("user_id", user.ID),
			slog.String("role", roleName),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	service.logger.Info("tenant_user_provisioned",
		slog.String("user_id", user.ID),
		slog.String("tenant_id", tenant.TenantID),
	)

	return user, nil
}

/*
GetUser retrieves one tenant member.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - id: string (User UUID)

Returns:
  - *auth.TenantUser: Hydrated account
  - error: apperr.NotFound or storage errors
*/
func (service *Service) GetUser(context context.Context, schema, id string) (*auth.TenantUser, error) {
	return service.users.FindByID(context, schema, id)
}

/*
ListUsers returns a page of tenant members with the total count.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - limit: int
  - offset: int

Returns:
  - []*auth.TenantUser: One page of accounts
  - int: Total accounts in the tenant
  - error: Storage errors
*/
func (service *Service) ListUsers(context context.Context, schema string, limit, offset int) ([]*auth.TenantUser, int, error) {
	return service.users.List(context, schema, limit, offset)
}

/*
DeactivateUser disables a tenant member, frees their seat, and revokes every
token they hold.

Parameters:
  - context: context.Context
  - schema: string (Physical tenant schema)
  - id: string (User UUID)

Returns:
  - error: apperr.NotFound when the user does not exist, or storage errors
*/
func (service *Service) DeactivateUser(context context.Context, schema, id string) error {
	updated, err := service.users.SetActive(context, schema, id, false)
	if err != nil {
		return err
	}
	if !updated {
		return apperr.NotFound("User")
	}

	// The account is already disabled; failing the request now would only
	// hide that. A failed revocation is logged for operator follow-up.
	if _, err := service.revoker.RevokeByPrincipalID(context, id, "deactivation"); err != nil {
		service.logger.Error("user_deactivation_revoke_failed",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}

	service.logger.Warn("tenant_user_deactivated", slog.String("user_id", id))

	return nil
}

/*
ReactivateUser re-enables a previously deactivated member, consuming a seat
again.

Parameters:
  - context: context.Context
  - tenant: *ctxutil.TenantContext (Resolved owning tenant)
  - id: string (User UUID)

Returns:
  - error: apperr.BusinessRule when no seat is free, apperr.NotFound, or
    storage errors
*/
func (service *Service) ReactivateUser(context context.Context, tenant *ctxutil.TenantContext, id string) error {
	if err := service.seats.EnforceSeatLimit(context, tenant.TenantID, tenant.Schema); err != nil {
		return err
	}

	updated, err := service.users.SetActive(context, tenant.Schema, id, true)
	if err != nil {
		return err
	}
	if !updated {
		return apperr.NotFound("User")
	}

	service.logger.Info("tenant_user_reactivated", slog.String("user_id", id))

	return nil
}
