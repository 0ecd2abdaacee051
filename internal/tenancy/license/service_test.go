// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package license_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/tenancy/license"
	"github.com/taibuivan/tessera/pkg/pointer"
)

// fakeRepository is an in-memory [license.Repository].
type fakeRepository struct {
	licenses map[string]*license.License
}

func newFakeRepository(licenses ...*license.License) *fakeRepository {
	repository := &fakeRepository{licenses: map[string]*license.License{}}
	for _, entry := range licenses {
		repository.licenses[entry.ID] = entry
	}
	return repository
}

func (repository *fakeRepository) FindByID(_ context.Context, id string) (*license.License, error) {
	if found, ok := repository.licenses[id]; ok {
		return found, nil
	}
	return nil, apperr.NotFound("License")
}

func (repository *fakeRepository) FindActiveByTenant(_ context.Context, tenantID string) (*license.License, error) {
	for _, entry := range repository.licenses {
		if entry.TenantID == tenantID && entry.Status == license.StatusActive {
			return entry, nil
		}
	}
	return nil, apperr.NotFound("Active license")
}

func (repository *fakeRepository) ListByTenant(_ context.Context, tenantID string) ([]*license.License, error) {
	licenses := make([]*license.License, 0)
	for _, entry := range repository.licenses {
		if entry.TenantID == tenantID {
			licenses = append(licenses, entry)
		}
	}
	return licenses, nil
}

func (repository *fakeRepository) Create(_ context.Context, created *license.License) error {
	repository.licenses[created.ID] = created
	return nil
}

func (repository *fakeRepository) UpdateStatus(_ context.Context, id string, status license.Status) error {
	entry, ok := repository.licenses[id]
	if !ok {
		return apperr.NotFound("License")
	}
	entry.Status = status
	return nil
}

// fakeSeatCounter returns a fixed occupancy.
type fakeSeatCounter struct {
	active int
}

func (counter *fakeSeatCounter) CountActive(_ context.Context, _ string) (int, error) {
	return counter.active, nil
}

const tenantID = "0195f1a2-0000-7000-8000-0000000000aa"

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func pinnedClock() func() time.Time {
	return func() time.Time { return fixedNow }
}

func activeLicense(seats int) *license.License {
	return &license.License{
		ID:       "0195f1a2-0000-7000-8000-00000000lic1",
		TenantID: tenantID,
		Key:      license.NewKey(),
		Seats:    seats,
		Status:   license.StatusActive,
		StartsAt: fixedNow.Add(-30 * 24 * time.Hour),
	}
}

func TestEnforceSeatLimit(t *testing.T) {
	tests := []struct {
		name        string
		seats       int
		activeUsers int
		wantErr     bool
	}{
		{"seat available", 2, 1, false},
		{"all seats taken", 2, 2, true},
		{"over capacity", 1, 2, true},
		{"single seat free", 1, 0, false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			service := license.NewService(
				newFakeRepository(activeLicense(testCase.seats)),
				&fakeSeatCounter{active: testCase.activeUsers},
				license.WithClock(pinnedClock()),
			)

			err := service.EnforceSeatLimit(context.Background(), tenantID, "tenant_acme")
			if !testCase.wantErr {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "BUSINESS_RULE_VIOLATION", appError.Code)
		})
	}
}

func TestEnforceSeatLimitWithoutActiveLicense(t *testing.T) {
	service := license.NewService(
		newFakeRepository(),
		&fakeSeatCounter{},
		license.WithClock(pinnedClock()),
	)

	err := service.EnforceSeatLimit(context.Background(), tenantID, "tenant_acme")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestActiveLicenseLazyExpiry(t *testing.T) {
	expired := activeLicense(5)
	expired.EndsAt = pointer.To(fixedNow.Add(-time.Hour))

	repository := newFakeRepository(expired)
	service := license.NewService(repository, &fakeSeatCounter{}, license.WithClock(pinnedClock()))

	_, err := service.ActiveLicense(context.Background(), tenantID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	// The read transitioned the stored record to expired.
	assert.Equal(t, license.StatusExpired, repository.licenses[expired.ID].Status)
}

func TestActivateSuspendsOtherActiveLicense(t *testing.T) {
	current := activeLicense(2)
	replacement := &license.License{
		ID:       "0195f1a2-0000-7000-8000-00000000lic2",
		TenantID: tenantID,
		Key:      license.NewKey(),
		Seats:    10,
		Status:   license.StatusInactive,
		StartsAt: fixedNow,
	}

	repository := newFakeRepository(current, replacement)
	service := license.NewService(repository, &fakeSeatCounter{}, license.WithClock(pinnedClock()))

	activated, err := service.Activate(context.Background(), replacement.ID)
	require.NoError(t, err)

	assert.Equal(t, license.StatusActive, activated.Status)
	assert.Equal(t, license.StatusSuspended, repository.licenses[current.ID].Status)
}

func TestActivateRejectsExpiredLicense(t *testing.T) {
	expired := activeLicense(2)
	expired.Status = license.StatusInactive
	expired.EndsAt = pointer.To(fixedNow.Add(-time.Minute))

	service := license.NewService(newFakeRepository(expired), &fakeSeatCounter{}, license.WithClock(pinnedClock()))

	_, err := service.Activate(context.Background(), expired.ID)
	require.Error(t, err)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", apperr.As(err).Code)
}

func TestSeatUsage(t *testing.T) {
	service := license.NewService(
		newFakeRepository(activeLicense(5)),
		&fakeSeatCounter{active: 3},
		license.WithClock(pinnedClock()),
	)

	usage, err := service.SeatUsage(context.Background(), tenantID, "tenant_acme")
	require.NoError(t, err)

	assert.Equal(t, 5, usage.SeatsTotal)
	assert.Equal(t, 3, usage.SeatsUsed)
	assert.Equal(t, 2, usage.SeatsAvailable)
}

func TestSeatScenarioReducedOccupancy(t *testing.T) {
	// Two of two seats taken: provisioning fails. One user deactivated:
	// provisioning succeeds again.
	counter := &fakeSeatCounter{active: 2}
	service := license.NewService(
		newFakeRepository(activeLicense(2)),
		counter,
		license.WithClock(pinnedClock()),
	)

	err := service.EnforceSeatLimit(context.Background(), tenantID, "tenant_acme")
	require.Error(t, err)

	counter.active = 1
	require.NoError(t, service.EnforceSeatLimit(context.Background(), tenantID, "tenant_acme"))
}

func TestCreateValidation(t *testing.T) {
	service := license.NewService(newFakeRepository(), &fakeSeatCounter{}, license.WithClock(pinnedClock()))

	_, err := service.Create(context.Background(), license.CreateInput{
		TenantID: tenantID,
		Seats:    0,
		StartsAt: fixedNow,
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	created, err := service.Create(context.Background(), license.CreateInput{
		TenantID: tenantID,
		Seats:    3,
		StartsAt: fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, license.StatusInactive, created.Status)
	assert.NotEmpty(t, created.Key)
}
