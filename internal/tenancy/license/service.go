// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package license

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/validate"
	"github.com/taibuivan/tessera/pkg/uuidv7"
)

// # License Service

// Service enforces the licensing rules: one active license per tenant, lazy
// expiry, and seat limits on user provisioning.
type Service struct {
	licenses Repository
	seats    SeatCounter
	clock    func() time.Time
}

// Option customizes a [Service].
type Option func(*Service)

// WithClock overrides the service time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(service *Service) { service.clock = clock }
}

// NewService wires the license service.
func NewService(licenses Repository, seats SeatCounter, options ...Option) *Service {
	service := &Service{licenses: licenses, seats: seats, clock: time.Now}
	for _, option := range options {
		option(service)
	}
	return service
}

// CreateInput is the caller-supplied portion of a license.
type CreateInput struct {
	TenantID   string     `json:"tenant_id"`
	Seats      int        `json:"seats"`
	PriceCents int64      `json:"price_cents"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at,omitempty"`
}

/*
Create registers a new license in the inactive state.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *License: Created license with a generated key
  - error: Validation or storage errors
*/
func (service *Service) Create(context context.Context, input CreateInput) (*License, error) {
	validator := &validate.Validator{}
	if err := validator.
		Required("tenant_id", input.TenantID).
		UUID("tenant_id", input.TenantID).
		Custom("seats", input.Seats < 1, "At least one seat is required").
		Custom("ends_at", input.EndsAt != nil && !input.EndsAt.After(input.StartsAt), "Must be after starts_at").
		Err(); err != nil {
		return nil, err
	}

	now := service.clock()
	created := &License{
		ID:         uuidv7.New(),
		TenantID:   input.TenantID,
		Key:        NewKey(),
		Seats:      input.Seats,
		PriceCents: input.PriceCents,
		Status:     StatusInactive,
		StartsAt:   input.StartsAt,
		EndsAt:     input.EndsAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := service.licenses.Create(context, created); err != nil {
		return nil, err
	}

	return created, nil
}

/*
Activate makes the license the tenant's single active one, suspending any
other active license the tenant holds.

Parameters:
  - context: context.Context
  - id: string (License UUID)

Returns:
  - *License: Activated license
  - error: apperr.NotFound, apperr.BusinessRule on expired licenses
*/
func (service *Service) Activate(context context.Context, id string) (*License, error) {
	target, err := service.licenses.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	now := service.clock()
	if target.expiredAt(now) {
		return nil, apperr.BusinessRule("An expired license cannot be activated")
	}

	// One active license per tenant: demote the current one first.
	current, err := service.licenses.FindActiveByTenant(context, target.TenantID)
	switch {
	case err == nil && current.ID != target.ID:
		if err := service.licenses.UpdateStatus(context, current.ID, StatusSuspended); err != nil {
			return nil, err
		}
	case err != nil && !isNotFound(err):
		return nil, err
	}

	if err := service.licenses.UpdateStatus(context, target.ID, StatusActive); err != nil {
		return nil, err
	}

	target.Status = StatusActive
	target.UpdatedAt = now
	return target, nil
}

// isNotFound distinguishes an absent active license from real failures.
func isNotFound(err error) bool {
	appError := apperr.As(err)
	return appError != nil && appError.Code == "NOT_FOUND"
}

// Suspend takes the license out of service without expiring it.
func (service *Service) Suspend(context context.Context, id string) error {
	if _, err := service.licenses.FindByID(context, id); err != nil {
		return err
	}
	return service.licenses.UpdateStatus(context, id, StatusSuspended)
}

/*
ActiveLicense returns the tenant's active license, lazily expiring it when
its end date has passed.

Parameters:
  - context: context.Context
  - tenantID: string

Returns:
  - *License: Active license
  - error: apperr.NotFound when none is active or the active one just expired
*/
func (service *Service) ActiveLicense(context context.Context, tenantID string) (*License, error) {
	active, err := service.licenses.FindActiveByTenant(context, tenantID)
	if err != nil {
		return nil, err
	}

	if active.expiredAt(service.clock()) {
		if err := service.licenses.UpdateStatus(context, active.ID, StatusExpired); err != nil {
			return nil, err
		}
		return nil, apperr.NotFound("Active license")
	}

	return active, nil
}

/*
SeatUsage reports the tenant's seat accounting against its active license.

Parameters:
  - context: context.Context
  - tenantID: string
  - schema: string (Physical tenant schema, for the seat count)

Returns:
  - *SeatUsage: Totals and availability
  - error: apperr.NotFound when no license is active
*/
func (service *Service) SeatUsage(context context.Context, tenantID, schema string) (*SeatUsage, error) {
	active, err := service.ActiveLicense(context, tenantID)
	if err != nil {
		return nil, err
	}

	used, err := service.seats.CountActive(context, schema)
	if err != nil {
		return nil, err
	}

	available := active.Seats - used
	if available < 0 {
		available = 0
	}

	return &SeatUsage{
		LicenseID:      active.ID,
		SeatsTotal:     active.Seats,
		SeatsUsed:      used,
		SeatsAvailable: available,
	}, nil
}

/*
EnforceSeatLimit fails when adding one user would exceed the tenant's
licensed seats. Called before every user provisioning.

Parameters:
  - context: context.Context
  - tenantID: string
  - schema: string (Physical tenant schema)

Returns:
  - error: apperr.BusinessRule carrying the seat arithmetic, or
    apperr.NotFound when no license is active
*/
func (service *Service) EnforceSeatLimit(context context.Context, tenantID, schema string) error {
	usage, err := service.SeatUsage(context, tenantID, schema)
	if err != nil {
		return err
	}

	if usage.SeatsAvailable < 1 {
		return apperr.BusinessRule(fmt.Sprintf(
			"License seat limit reached: %d of %d seats in use",
			usage.SeatsUsed, usage.SeatsTotal,
		))
	}

	return nil
}
