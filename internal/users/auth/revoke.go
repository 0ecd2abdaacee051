// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/internal/platform/ctxutil"
	"github.com/taibuivan/tessera/internal/platform/metrics"
	"github.com/taibuivan/tessera/internal/tenancy/tenant"
)

// # Revocation Service

// watermarkEpsilon absorbs float rounding introduced by the JSON round-trip
// of the user_version claim. Snapshots within this distance of the current
// watermark still count as valid.
const watermarkEpsilon = 1e-6

// RevocationService invalidates every outstanding token of a principal by
// advancing the principal's tokens_valid_after watermark. There is no token
// blacklist: access tokens carry a user_version snapshot of the watermark,
// and validation rejects snapshots older than the current value.
type RevocationService struct {
	admins     AdminRepository
	users      TenantUserRepository
	tenants    tenant.Repository
	watermarks WatermarkStore
	metrics    *metrics.Registry
	clock      func() time.Time
}

// RevocationOption customizes a [RevocationService].
type RevocationOption func(*RevocationService)

// WithRevocationClock overrides the service time source for tests.
func WithRevocationClock(clock func() time.Time) RevocationOption {
	return func(service *RevocationService) { service.clock = clock }
}

// NewRevocationService wires the revocation service.
func NewRevocationService(
	admins AdminRepository,
	users TenantUserRepository,
	tenants tenant.Repository,
	watermarks WatermarkStore,
	registry *metrics.Registry,
	options ...RevocationOption,
) *RevocationService {
	service := &RevocationService{
		admins:     admins,
		users:      users,
		tenants:    tenants,
		watermarks: watermarks,
		metrics:    registry,
		clock:      time.Now,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

/*
Revoke advances the watermark of a fully resolved principal. This is the
targeted path used by logout, where kind and schema are already known.

Parameters:
  - context: context.Context
  - principal: Principal (Resolved account)
  - reason: string (Metric label: "logout", "logout_all", "admin_action")

Returns:
  - error: Database errors
*/
func (service *RevocationService) Revoke(context context.Context, principal Principal, reason string) error {
	validAfter := service.clock()

	var updated bool
	var err error
	if principal.IsAdmin() {
		updated, err = service.admins.SetTokensValidAfter(context, principal.ID(), validAfter)
	} else {
		updated, err = service.users.SetTokensValidAfter(context, principal.TenantSchema(), principal.ID(), validAfter)
	}
	if err != nil {
		return fmt.Errorf("revocation_set_watermark_failed: %w", err)
	}
	if !updated {
		return nil
	}

	service.writeThrough(context, principal.Kind(), principal.ID(), unixFloat(validAfter))
	service.metrics.RevocationsTotal.WithLabelValues(reason).Inc()

	return nil
}

/*
RevokeByPrincipalID advances the watermark when only the principal's UUID is
known. The admin partition is checked first, then every active tenant
partition in turn.

The tenant scan is O(active tenants). A reverse index from principal ID to
tenant would remove it; until tenant counts make the scan measurable, the
simplicity wins.

Parameters:
  - context: context.Context
  - principalID: string (Principal UUID)
  - reason: string (Metric label)

Returns:
  - int: 1 when a principal was revoked, 0 when no partition knows the ID
  - error: Database errors
*/
func (service *RevocationService) RevokeByPrincipalID(context context.Context, principalID, reason string) (int, error) {
	validAfter := service.clock()

	// ── 1. Admin Partition ────────────────────────────────────────────────

	updated, err := service.admins.SetTokensValidAfter(context, principalID, validAfter)
	if err != nil {
		return 0, fmt.Errorf("revocation_admin_check_failed: %w", err)
	}
	if updated {
		service.writeThrough(context, constants.PrincipalKindAdmin, principalID, unixFloat(validAfter))
		service.metrics.RevocationsTotal.WithLabelValues(reason).Inc()
		return 1, nil
	}

	// ── 2. Active Tenant Partitions ───────────────────────────────────────

	tenants, err := service.tenants.ListActive(context)
	if err != nil {
		return 0, fmt.Errorf("revocation_tenant_list_failed: %w", err)
	}

	for _, entry := range tenants {
		updated, err := service.users.SetTokensValidAfter(context, entry.SchemaName, principalID, validAfter)
		if err != nil {
			return 0, fmt.Errorf("revocation_tenant_check_failed: %w", err)
		}
		if updated {
			service.writeThrough(context, constants.PrincipalKindUser, principalID, unixFloat(validAfter))
			service.metrics.RevocationsTotal.WithLabelValues(reason).Inc()
			return 1, nil
		}
	}

	return 0, nil
}

/*
CurrentWatermark returns the principal's live revocation watermark,
read-aside: the cache is consulted first, a miss falls back to the database
and repopulates the cache.

Parameters:
  - context: context.Context
  - kind: string ("admin" or "user")
  - principalID: string (Principal UUID)
  - schema: string (Tenant schema, ignored for admins)

Returns:
  - float64: Watermark in fractional Unix seconds
  - error: apperr.NotFound or database errors
*/
func (service *RevocationService) CurrentWatermark(context context.Context, kind, principalID, schema string) (float64, error) {

	// ── 1. Cache Lookup ───────────────────────────────────────────────────

	if cached, found, err := service.watermarks.Get(context, kind, principalID); err == nil && found {
		return cached, nil
	} else if err != nil {
		ctxutil.GetLogger(context).Warn("watermark cache read failed",
			slog.String("principal_id", principalID),
			slog.String("error", err.Error()),
		)
	}

	// ── 2. Durable Lookup ─────────────────────────────────────────────────

	var watermark float64
	if kind == constants.PrincipalKindAdmin {
		admin, err := service.admins.FindByID(context, principalID)
		if err != nil {
			return 0, err
		}
		watermark = admin.Watermark()
	} else {
		user, err := service.users.FindByID(context, schema, principalID)
		if err != nil {
			return 0, err
		}
		watermark = user.Watermark()
	}

	// ── 3. Cache Population ───────────────────────────────────────────────

	service.writeThrough(context, kind, principalID, watermark)

	return watermark, nil
}

// IsRevoked compares a token's watermark snapshot against the live value.
func IsRevoked(snapshot, current float64) bool {
	return snapshot < current-watermarkEpsilon
}

// writeThrough pushes the watermark into the cache, tolerating cache
// failures: the database remains authoritative.
func (service *RevocationService) writeThrough(context context.Context, kind, principalID string, watermark float64) {
	if err := service.watermarks.Set(context, kind, principalID, watermark); err != nil {
		ctxutil.GetLogger(context).Warn("watermark cache write failed",
			slog.String("principal_id", principalID),
			slog.String("error", err.Error()),
		)
	}
}
