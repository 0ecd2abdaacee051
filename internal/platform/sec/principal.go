// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Authenticated Principal

// AuthenticatedPrincipal is the identity reconstructed from a validated
// access token. It is what handlers see after the authentication middleware
// has run.
//
// # Why carry roles and permissions here?
//
// Embedding them in the token lets the middleware rebuild the active
// security context WITHOUT querying the database on every request. The
// authoritative check for sensitive mutations still goes through the
// authorization service, which re-reads assignments from storage.
type AuthenticatedPrincipal struct {
	// ID is the principal's stable UUID (the token 'sub' claim).
	ID string

	// Email is the login identity.
	Email string

	// Kind discriminates "admin" (global) from "user" (tenant-scoped).
	Kind string

	// TenantID is set only for tenant users.
	TenantID string

	// Roles and Permissions are the snapshot embedded at issuance time.
	Roles       []string
	Permissions []string

	// UserVersion is the revocation-watermark snapshot taken at issuance.
	UserVersion float64
}

// IsAdmin reports whether the principal is a global administrator.
func (principal *AuthenticatedPrincipal) IsAdmin() bool {
	return principal.Kind == "admin"
}

// IsTenantUser reports whether the principal is scoped to a tenant.
func (principal *AuthenticatedPrincipal) IsTenantUser() bool {
	return principal.Kind == "user" && principal.TenantID != ""
}

// HasRole reports whether the issuance-time snapshot contains the role.
func (principal *AuthenticatedPrincipal) HasRole(name string) bool {
	for _, role := range principal.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// HasDirectPermission reports whether the issuance-time snapshot contains
// the permission string, honoring the global "*" wildcard.
func (principal *AuthenticatedPrincipal) HasDirectPermission(permission string) bool {
	for _, granted := range principal.Permissions {
		if granted == permission || granted == "*" {
			return true
		}
	}
	return false
}
