// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Repository Contracts

// AdminRepository provides access to global administrator accounts in the
// shared partition.
type AdminRepository interface {
	FindByEmail(context context.Context, email string) (*Admin, error)
	FindByID(context context.Context, id string) (*Admin, error)

	// SetTokensValidAfter moves the admin's revocation watermark forward.
	// Returns false when no admin with that ID exists.
	SetTokensValidAfter(context context.Context, id string, validAfter time.Time) (bool, error)
}

// TenantUserRepository provides access to user accounts inside a specific
// tenant schema. Every method is schema-scoped; the implementation routes
// the query through the tenant's search path.
type TenantUserRepository interface {
	FindByEmail(context context.Context, schema, email string) (*TenantUser, error)
	FindByID(context context.Context, schema, id string) (*TenantUser, error)

	// SetTokensValidAfter moves the user's revocation watermark forward.
	// Returns false when no user with that ID exists in the schema.
	SetTokensValidAfter(context context.Context, schema, id string, validAfter time.Time) (bool, error)

	Create(context context.Context, schema string, user *TenantUser) error

	// SetActive toggles the user's active flag. Returns false when no user
	// with that ID exists in the schema.
	SetActive(context context.Context, schema, id string, active bool) (bool, error)

	// List returns a page of users ordered by creation time, plus the total
	// count in the schema.
	List(context context.Context, schema string, limit, offset int) ([]*TenantUser, int, error)

	// CountActive returns the number of active users in the schema, the
	// figure license seat enforcement compares against.
	CountActive(context context.Context, schema string) (int, error)
}

// WatermarkStore is the fast-path cache for revocation watermarks, keyed by
// principal kind and ID. It is read-aside on validation and written through
// on revocation; the database remains the source of truth.
type WatermarkStore interface {
	Get(context context.Context, kind, principalID string) (float64, bool, error)
	Set(context context.Context, kind, principalID string, watermark float64) error
}
