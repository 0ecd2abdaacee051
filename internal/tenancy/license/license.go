// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package license implements tenant licensing: one active license per tenant,
seat-count enforcement on user provisioning, and automatic expiry.

# Lifecycle

A license starts inactive, is activated (suspending any other active license
the tenant holds), and either expires when its end date passes or is
suspended by an operator. Expiry is lazy: it is applied when the license is
read, not by a background job.
*/
package license

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// # Entity

// Status is the license lifecycle state.
type Status string

const (
	StatusInactive  Status = "inactive"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusExpired   Status = "expired"
)

// License entitles a tenant to a number of user seats for a period.
type License struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	Key        string     `json:"key"`
	Seats      int        `json:"seats"`
	PriceCents int64      `json:"price_cents"`
	Status     Status     `json:"status"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsActive reports whether the license currently entitles seats.
func (license *License) IsActive(now time.Time) bool {
	return license.Status == StatusActive && !license.expiredAt(now)
}

// expiredAt reports whether the license end date has passed.
func (license *License) expiredAt(now time.Time) bool {
	return license.EndsAt != nil && now.After(*license.EndsAt)
}

// SeatUsage is the externalized seat accounting for a tenant.
type SeatUsage struct {
	LicenseID      string `json:"license_id"`
	SeatsTotal     int    `json:"seats_total"`
	SeatsUsed      int    `json:"seats_used"`
	SeatsAvailable int    `json:"seats_available"`
}

// NewKey generates an opaque license key.
func NewKey() string {
	buffer := make([]byte, 16)
	_, _ = rand.Read(buffer)
	return "lic_" + hex.EncodeToString(buffer)
}
