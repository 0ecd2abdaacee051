// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles tenant user administration: provisioning new members
against the tenant's licensed seats, listing and inspecting accounts, and
deactivation.

# Architecture

  - Entities: this package operates on [auth.TenantUser]; it owns no entity
    of its own.
  - Licensing: every provisioning passes through the seat gate first.
  - Security: deactivating a user immediately revokes all of their tokens.
*/
package account

import "context"

// # Collaborator Contracts

// SeatEnforcer gates user provisioning on the tenant's licensed seats.
// Implemented by the license service.
type SeatEnforcer interface {
	EnforceSeatLimit(context context.Context, tenantID, schema string) error
}

// TokenRevoker invalidates every outstanding token of a principal.
// Implemented by the auth revocation service.
type TokenRevoker interface {
	RevokeByPrincipalID(context context.Context, principalID, reason string) (int, error)
}

// RoleAssigner binds a role to a freshly provisioned user.
// Implemented by the role manager.
type RoleAssigner interface {
	AssignByName(context context.Context, schema, principalID, roleName string) error
}
