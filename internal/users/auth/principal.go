// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements authentication for the Tessera platform: credential
verification, token issuance, token validation, refresh rotation, and
claims-based revocation.

# Principal Model

Two account populations exist and never mix:

  - Admin: global administrators, stored in the shared partition.
  - TenantUser: members of exactly one tenant, stored in that tenant's schema.

The [Principal] type is the tagged variant over both, so token issuance and
revocation branch exhaustively on kind instead of stringly-typed checks
scattered through the call sites.

# Revocation

No token blacklist exists. Every principal record carries a
tokens_valid_after watermark; access tokens embed a user_version snapshot of
that watermark at issuance time, and validation rejects any token whose
snapshot is older than the current watermark.
*/
package auth

import (
	"time"

	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/internal/tenancy/tenant"
)

// # Entities

// Admin is a global administrator account in the shared partition.
type Admin struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	IsActive         bool       `json:"is_active"`
	TokensValidAfter *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TenantUser is a member account living inside one tenant's schema.
type TenantUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	TenantID         string     `json:"tenant_id"`
	IsActive         bool       `json:"is_active"`
	TokensValidAfter *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// # Watermarks

// watermark returns the revocation watermark as fractional Unix seconds.
// A principal that was never revoked falls back to its creation time, so
// every token it ever received stays valid until the first revocation.
func watermark(tokensValidAfter *time.Time, createdAt time.Time) float64 {
	if tokensValidAfter != nil {
		return unixFloat(*tokensValidAfter)
	}
	return unixFloat(createdAt)
}

// unixFloat converts an instant to fractional Unix seconds, the on-token
// representation of the revocation watermark.
func unixFloat(instant time.Time) float64 {
	return float64(instant.UnixNano()) / float64(time.Second)
}

// Watermark returns the admin's current revocation watermark.
func (admin *Admin) Watermark() float64 {
	return watermark(admin.TokensValidAfter, admin.CreatedAt)
}

// Watermark returns the user's current revocation watermark.
func (user *TenantUser) Watermark() float64 {
	return watermark(user.TokensValidAfter, user.CreatedAt)
}

// # Tagged Principal Variant

// Principal is the sum of the two account kinds. Construct it only through
// [AdminPrincipal] or [TenantUserPrincipal] so exactly one branch is set.
type Principal struct {
	kind   string
	admin  *Admin
	user   *TenantUser
	tenant *tenant.Tenant
}

// AdminPrincipal wraps a global administrator.
func AdminPrincipal(admin *Admin) Principal {
	return Principal{kind: constants.PrincipalKindAdmin, admin: admin}
}

// TenantUserPrincipal wraps a tenant user together with its owning tenant.
func TenantUserPrincipal(user *TenantUser, owner *tenant.Tenant) Principal {
	return Principal{kind: constants.PrincipalKindUser, user: user, tenant: owner}
}

// Kind returns "admin" or "user".
func (principal Principal) Kind() string { return principal.kind }

// IsAdmin reports whether the principal is a global administrator.
func (principal Principal) IsAdmin() bool { return principal.kind == constants.PrincipalKindAdmin }

// ID returns the principal's stable UUID.
func (principal Principal) ID() string {
	if principal.IsAdmin() {
		return principal.admin.ID
	}
	return principal.user.ID
}

// Email returns the principal's login identity.
func (principal Principal) Email() string {
	if principal.IsAdmin() {
		return principal.admin.Email
	}
	return principal.user.Email
}

// TenantID returns the owning tenant's UUID, or "" for admins.
func (principal Principal) TenantID() string {
	if principal.IsAdmin() {
		return ""
	}
	return principal.user.TenantID
}

// TenantSchema returns the owning tenant's schema name, or "" for admins.
func (principal Principal) TenantSchema() string {
	if principal.tenant == nil {
		return ""
	}
	return principal.tenant.SchemaName
}

// Watermark returns the principal's current revocation watermark.
func (principal Principal) Watermark() float64 {
	if principal.IsAdmin() {
		return principal.admin.Watermark()
	}
	return principal.user.Watermark()
}
