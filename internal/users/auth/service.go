// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/internal/platform/ctxutil"
	"github.com/taibuivan/tessera/internal/platform/metrics"
	"github.com/taibuivan/tessera/internal/platform/sec"
	"github.com/taibuivan/tessera/internal/tenancy/tenant"
)

// # Grant Source

// GrantSource supplies the role and permission snapshot embedded in a tenant
// user's access token. Implemented by the authorization service; the
// indirection keeps this package free of a dependency on role storage.
type GrantSource interface {
	GrantsFor(context context.Context, schema, userID string) (roles []string, permissions []string, err error)
}

// # Authentication Service

// Service implements the authentication lifecycle: credential login, token
// issuance, access-token validation, refresh rotation, and logout.
type Service struct {
	admins     AdminRepository
	users      TenantUserRepository
	tenants    tenant.Repository
	resolver   *tenant.Resolver
	engine     *sec.Engine
	grants     GrantSource
	revocation *RevocationService
	userCache  *UserCache
	accessTTL  time.Duration
	refreshTTL time.Duration
	metrics    *metrics.Registry
}

// NewService wires the authentication service.
func NewService(
	admins AdminRepository,
	users TenantUserRepository,
	tenants tenant.Repository,
	resolver *tenant.Resolver,
	engine *sec.Engine,
	grants GrantSource,
	revocation *RevocationService,
	userCache *UserCache,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	registry *metrics.Registry,
) *Service {
	return &Service{
		admins:     admins,
		users:      users,
		tenants:    tenants,
		resolver:   resolver,
		engine:     engine,
		grants:     grants,
		revocation: revocation,
		userCache:  userCache,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		metrics:    registry,
	}
}

// # Login

/*
LoginTenantUser authenticates a tenant member by subdomain, email, and
password. Every failure mode (unknown tenant, inactive tenant, unknown user,
inactive user, wrong password) collapses into the same generic
AuthenticationFailed error so responses cannot be used to enumerate accounts.

Parameters:
  - context: context.Context
  - subdomain: string (Tenant routing identifier)
  - email: string
  - password: string (Plain text, verified against the stored bcrypt hash)

Returns:
  - TokenPair: Freshly minted access/refresh pair
  - error: apperr.AuthenticationFailed or internal errors
*/
func (service *Service) LoginTenantUser(context context.Context, subdomain, email, password string) (TokenPair, error) {

	// ── 1. Tenant Resolution ──────────────────────────────────────────────

	owner, err := service.tenants.FindBySubdomain(context, subdomain)
	if err != nil || !owner.IsActive() {
		return service.loginFailed(context, "tenant lookup", err)
	}

	// ── 2. User Lookup ────────────────────────────────────────────────────

	user, err := service.findUserByEmail(context, owner.SchemaName, email)
	if err != nil || !user.IsActive {
		return service.loginFailed(context, "user lookup", err)
	}

	// ── 3. Credential Verification ────────────────────────────────────────

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return service.loginFailed(context, "password mismatch", nil)
	}

	service.metrics.AuthDecisions.WithLabelValues("login", "ok").Inc()

	// ── 4. Token Issuance ─────────────────────────────────────────────────

	return service.IssueTokens(context, TenantUserPrincipal(user, owner))
}

/*
LoginAdmin authenticates a global administrator by email and password. The
same generic-failure rule as tenant login applies.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - TokenPair: Freshly minted access/refresh pair
  - error: apperr.AuthenticationFailed or internal errors
*/
func (service *Service) LoginAdmin(context context.Context, email, password string) (TokenPair, error) {
	admin, err := service.admins.FindByEmail(context, email)
	if err != nil || !admin.IsActive {
		return service.loginFailed(context, "admin lookup", err)
	}

	if !sec.CheckPasswordHash(password, admin.PasswordHash) {
		return service.loginFailed(context, "password mismatch", nil)
	}

	service.metrics.AuthDecisions.WithLabelValues("login", "ok").Inc()

	return service.IssueTokens(context, AdminPrincipal(admin))
}

// loginFailed records the failure and returns the generic credential error.
// Real infrastructure failures are logged but still surface as the generic
// error; an attacker learns nothing from a flaky database.
func (service *Service) loginFailed(context context.Context, stage string, cause error) (TokenPair, error) {
	service.metrics.AuthDecisions.WithLabelValues("login", "failed").Inc()

	if cause != nil && !apperr.IsAppError(cause) {
		ctxutil.GetLogger(context).Error("login infrastructure failure",
			slog.String("stage", stage),
			slog.String("error", cause.Error()),
		)
	}

	return TokenPair{}, apperr.AuthenticationFailed()
}

// # Token Issuance

/*
IssueTokens mints an access/refresh pair for an already-authenticated
principal. Admins receive the fixed administrative grant set; tenant users
receive their effective roles and permissions from the grant source.

Parameters:
  - context: context.Context
  - principal: Principal (Authenticated account)

Returns:
  - TokenPair: Signed pair with issuance metadata
  - error: Grant resolution or signing errors
*/
func (service *Service) IssueTokens(context context.Context, principal Principal) (TokenPair, error) {

	// ── 1. Grant Snapshot ─────────────────────────────────────────────────

	var roles, permissions, scope []string
	if principal.IsAdmin() {
		roles = []string{"admin"}
		permissions = []string{"*"}
		scope = []string{"admin"}
	} else {
		var err error
		roles, permissions, err = service.grants.GrantsFor(context, principal.TenantSchema(), principal.ID())
		if err != nil {
			return TokenPair{}, err
		}
		scope = []string{"read", "write"}
	}

	// ── 2. Signing ────────────────────────────────────────────────────────

	issuedAt := service.engine.Now()
	accessExpiresAt := issuedAt.Add(service.accessTTL)
	refreshExpiresAt := issuedAt.Add(service.refreshTTL)

	accessToken, err := service.engine.Encode(accessClaims(principal, roles, permissions, scope, accessExpiresAt))
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := service.engine.Encode(refreshClaims(principal, refreshExpiresAt))
	if err != nil {
		return TokenPair{}, err
	}

	service.metrics.TokensIssued.WithLabelValues(principal.Kind()).Inc()

	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
		issuedAt:         issuedAt,
	}, nil
}

// # Validation

/*
ValidateAccessToken verifies an access token end to end: signature and
registered claims, the access token_type discriminator, the revocation
watermark, and, when the request arrived on a tenant subdomain, the binding
between the token's tenant and the requesting tenant.

Parameters:
  - context: context.Context
  - tokenString: string (Compact JWT from the Authorization header)
  - requestSubdomain: string (Subdomain the request arrived on, "" if none)

Returns:
  - *sec.AuthenticatedPrincipal: Reconstructed identity
  - error: apperr.TokenExpired or apperr.TokenInvalid
*/
func (service *Service) ValidateAccessToken(context context.Context, tokenString, requestSubdomain string) (*sec.AuthenticatedPrincipal, error) {

	// ── 1. Cryptographic Verification ─────────────────────────────────────

	claims, err := service.engine.Decode(tokenString)
	if err != nil {
		service.metrics.AuthDecisions.WithLabelValues("validate", "failed").Inc()
		return nil, err
	}

	// ── 2. Token Type Discrimination ──────────────────────────────────────

	if claimString(claims, constants.ClaimTokenType) != constants.TokenTypeAccess {
		service.metrics.AuthDecisions.WithLabelValues("validate", "failed").Inc()
		return nil, apperr.TokenInvalid("Invalid token type")
	}

	principal := &sec.AuthenticatedPrincipal{
		ID:          claimString(claims, constants.ClaimSubject),
		Email:       claimString(claims, constants.ClaimEmail),
		Kind:        claimString(claims, constants.ClaimUserType),
		TenantID:    claimString(claims, constants.ClaimTenantID),
		Roles:       claimStrings(claims, constants.ClaimRoles),
		Permissions: claimStrings(claims, constants.ClaimPermissions),
	}
	if snapshot, ok := claimFloat(claims, constants.ClaimUserVersion); ok {
		principal.UserVersion = snapshot
	}

	if principal.ID == "" || principal.Kind == "" {
		service.metrics.AuthDecisions.WithLabelValues("validate", "failed").Inc()
		return nil, apperr.TokenInvalid("Token is missing identity claims")
	}

	// ── 3. Revocation Check ───────────────────────────────────────────────

	schema := ""
	if principal.Kind == constants.PrincipalKindUser {
		schema, err = service.resolver.ResolveByTenantID(context, principal.TenantID)
		if err != nil {
			service.metrics.AuthDecisions.WithLabelValues("validate", "failed").Inc()
			return nil, apperr.TokenInvalid("Token references an unknown tenant")
		}
	}

	watermark, err := service.revocation.CurrentWatermark(context, principal.Kind, principal.ID, schema)
	if err != nil {
		service.metrics.AuthDecisions.WithLabelValues("validate", "failed").Inc()
		return nil, apperr.TokenInvalid("Token principal no longer exists")
	}
	if IsRevoked(principal.UserVersion, watermark) {
		service.metrics.AuthDecisions.WithLabelValues("validate", "failed").Inc()
		return nil, apperr.TokenInvalid("Token has been revoked")
	}

	// ── 4. Tenant Binding ─────────────────────────────────────────────────

	// A tenant user's token is only honored on its own tenant's subdomain.
	// Admin tokens are valid everywhere.
	if requestSubdomain != "" && principal.Kind == constants.PrincipalKindUser {
		requestSchema, err := service.resolver.ResolveBySubdomain(context, requestSubdomain)
		if err != nil || requestSchema != schema {
			service.metrics.AuthDecisions.WithLabelValues("validate", "failed").Inc()
			return nil, apperr.TokenInvalid("Security violation: tenant mismatch")
		}
	}

	service.metrics.AuthDecisions.WithLabelValues("validate", "ok").Inc()

	return principal, nil
}

// # Refresh Rotation

/*
Refresh rotates a refresh token into a brand-new token pair. The principal
is re-resolved from storage, so deactivated accounts stop refreshing even
though refresh tokens carry no watermark snapshot.

Parameters:
  - context: context.Context
  - refreshToken: string (Compact JWT)

Returns:
  - TokenPair: Newly minted pair reflecting the principal's current grants
  - error: apperr.TokenExpired or apperr.TokenInvalid
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (TokenPair, error) {
	claims, err := service.engine.Decode(refreshToken)
	if err != nil {
		service.metrics.AuthDecisions.WithLabelValues("refresh", "failed").Inc()
		return TokenPair{}, err
	}

	if claimString(claims, constants.ClaimTokenType) != constants.TokenTypeRefresh {
		service.metrics.AuthDecisions.WithLabelValues("refresh", "failed").Inc()
		return TokenPair{}, apperr.TokenInvalid("Invalid token type")
	}

	principal, err := service.resolvePrincipal(
		context,
		claimString(claims, constants.ClaimUserType),
		claimString(claims, constants.ClaimSubject),
		claimString(claims, constants.ClaimTenantID),
	)
	if err != nil {
		service.metrics.AuthDecisions.WithLabelValues("refresh", "failed").Inc()
		return TokenPair{}, apperr.TokenInvalid("Token principal no longer exists or is inactive")
	}

	service.metrics.AuthDecisions.WithLabelValues("refresh", "ok").Inc()

	return service.IssueTokens(context, principal)
}

// # Logout

/*
Logout revokes every outstanding token of the caller's principal and evicts
its cache entries. Logout NEVER fails: malformed tokens, unknown principals,
and infrastructure errors are logged and swallowed, because the client is
discarding its tokens either way.

Parameters:
  - context: context.Context
  - tokenString: string (Access token presented at logout, possibly expired)
*/
func (service *Service) Logout(context context.Context, tokenString string) {
	claims, err := service.engine.DecodeUnverified(tokenString)
	if err != nil {
		return
	}

	principal, err := service.resolvePrincipal(
		context,
		claimString(claims, constants.ClaimUserType),
		claimString(claims, constants.ClaimSubject),
		claimString(claims, constants.ClaimTenantID),
	)
	if err != nil {
		return
	}

	if err := service.revocation.Revoke(context, principal, "logout"); err != nil {
		ctxutil.GetLogger(context).Warn("logout revocation failed",
			slog.String("principal_id", principal.ID()),
			slog.String("error", err.Error()),
		)
	}

	service.evict(principal)
}

/*
LogoutAllDevices revokes every outstanding token of a validated principal.
Unlike [Service.Logout] this is fallible: the caller asked for a security
guarantee and must learn when it could not be given.

Parameters:
  - context: context.Context
  - authenticated: *sec.AuthenticatedPrincipal (From the middleware)

Returns:
  - error: Resolution or database errors
*/
func (service *Service) LogoutAllDevices(context context.Context, authenticated *sec.AuthenticatedPrincipal) error {
	principal, err := service.resolvePrincipal(context, authenticated.Kind, authenticated.ID, authenticated.TenantID)
	if err != nil {
		return err
	}

	if err := service.revocation.Revoke(context, principal, "logout_all"); err != nil {
		return err
	}

	service.evict(principal)
	return nil
}

// # Principal Resolution

// resolvePrincipal reloads a principal from storage by kind, ID, and owning
// tenant. Inactive accounts and inactive tenants resolve to an error.
func (service *Service) resolvePrincipal(context context.Context, kind, id, tenantID string) (Principal, error) {
	if kind == constants.PrincipalKindAdmin {
		admin, err := service.admins.FindByID(context, id)
		if err != nil {
			return Principal{}, err
		}
		if !admin.IsActive {
			return Principal{}, apperr.AuthenticationFailed()
		}
		return AdminPrincipal(admin), nil
	}

	owner, err := service.tenants.FindByID(context, tenantID)
	if err != nil {
		return Principal{}, err
	}
	if !owner.IsActive() {
		return Principal{}, apperr.AuthenticationFailed()
	}

	user, err := service.findUserByID(context, owner.SchemaName, id)
	if err != nil {
		return Principal{}, err
	}
	if !user.IsActive {
		return Principal{}, apperr.AuthenticationFailed()
	}

	return TenantUserPrincipal(user, owner), nil
}

// findUserByEmail looks the user up cache-first by (schema, email).
func (service *Service) findUserByEmail(context context.Context, schema, email string) (*TenantUser, error) {
	if cached, found := service.userCache.GetByEmail(schema, email); found {
		service.metrics.ObserveCacheLookup("tenant_user", true)
		return cached, nil
	}
	service.metrics.ObserveCacheLookup("tenant_user", false)

	user, err := service.users.FindByEmail(context, schema, email)
	if err != nil {
		return nil, err
	}

	service.userCache.Put(schema, user)
	return user, nil
}

// findUserByID looks the user up cache-first by (schema, id).
func (service *Service) findUserByID(context context.Context, schema, id string) (*TenantUser, error) {
	if cached, found := service.userCache.GetByID(schema, id); found {
		service.metrics.ObserveCacheLookup("tenant_user", true)
		return cached, nil
	}
	service.metrics.ObserveCacheLookup("tenant_user", false)

	user, err := service.users.FindByID(context, schema, id)
	if err != nil {
		return nil, err
	}

	service.userCache.Put(schema, user)
	return user, nil
}

// evict drops the principal's cache entries after revocation.
func (service *Service) evict(principal Principal) {
	if principal.IsAdmin() {
		return
	}
	service.userCache.Evict(principal.TenantSchema(), principal.user)
}
