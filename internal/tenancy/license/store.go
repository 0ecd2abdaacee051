// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package license

import "context"

// # Storage Contracts

// Repository manages license records in the shared partition.
type Repository interface {
	FindByID(context context.Context, id string) (*License, error)

	// FindActiveByTenant returns the tenant's single active license, or
	// apperr.NotFound when none is active.
	FindActiveByTenant(context context.Context, tenantID string) (*License, error)

	ListByTenant(context context.Context, tenantID string) ([]*License, error)
	Create(context context.Context, license *License) error
	UpdateStatus(context context.Context, id string, status Status) error
}

// SeatCounter reports how many seats a tenant currently occupies.
// Implemented by the tenant user repository; the indirection keeps this
// package free of a dependency on user storage.
type SeatCounter interface {
	CountActive(context context.Context, schema string) (int, error)
}
