package leasing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appleasing "github.com/propledger/backend/internal/application/leasing"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/event"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/infrastructure/persistence/testdb"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type leaseScenario struct {
	f          *testdb.Fixtures
	svc        *appleasing.LeaseService
	outbox     *event.GormOutboxRepository
	propertyID uuid.UUID
}

func newLeaseScenario(t *testing.T) *leaseScenario {
	t.Helper()
	return newLeaseScenarioOn(t, testdb.NewSQLite(t))
}

func newLeaseScenarioOn(t *testing.T, db *gorm.DB) *leaseScenario {
	t.Helper()
	scope := persistence.NewGormLeasingTransactionScope(db, event.NewOutboxPublisher(event.NewLedgerSerializer()))
	svc := appleasing.NewLeaseService(
		persistence.NewGormLeaseRepository(db),
		persistence.NewGormUnitRepository(db),
		persistence.NewGormTenantRepository(db),
		persistence.NewGormPropertyRepository(db),
		scope,
	)
	svc.SetMetrics(telemetry.NewNopLedgerMetrics())
	f := testdb.NewFixtures(t, db)
	return &leaseScenario{f: f, svc: svc, outbox: event.NewGormOutboxRepository(db), propertyID: f.Property()}
}

func (s *leaseScenario) request(unitID uuid.UUID, start time.Time) appleasing.CreateLeaseRequest {
	return appleasing.CreateLeaseRequest{
		UnitID:         unitID,
		TenantID:       s.f.Tenant(),
		LeaseStartDate: start,
	}
}

func requireDomainError(t *testing.T, err error, kind shared.ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	require.Equal(t, kind, de.Kind, de.Message)
	require.Equal(t, code, de.Code, de.Message)
}

func TestLeaseService_CreateLease_Numbering(t *testing.T) {
	s := newLeaseScenario(t)
	ctx := context.Background()
	acct := s.f.AccountID

	first, err := s.svc.CreateLease(ctx, acct, s.request(s.f.Unit(s.propertyID, "800"), testdb.Date(2025, 3, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, first.LeaseNo)
	assert.Equal(t, 2025, first.LeaseYear)
	assert.Equal(t, "LSE-2025-0001", first.FullLeaseNo)
	assert.Equal(t, string(leasing.LeaseStatusActive), first.Status)
	assert.Equal(t, s.propertyID, first.PropertyID, "property defaults to the unit's property")
	assert.Equal(t, leasing.UnitStatusOccupied, s.f.UnitStatus(first.UnitID))

	second, err := s.svc.CreateLease(ctx, acct, s.request(s.f.Unit(s.propertyID, "800"), testdb.Date(2025, 12, 31)))
	require.NoError(t, err)
	assert.Equal(t, "LSE-2025-0002", second.FullLeaseNo)

	nextYear, err := s.svc.CreateLease(ctx, acct, s.request(s.f.Unit(s.propertyID, "800"), testdb.Date(2026, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "LSE-2026-0001", nextYear.FullLeaseNo, "numbering restarts each year")

	// numbering is per account
	other := newLeaseScenario(t)
	foreign, err := other.svc.CreateLease(ctx, other.f.AccountID, other.request(other.f.Unit(other.propertyID, "1"), testdb.Date(2025, 5, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, foreign.LeaseNo)

	entries, err := s.outbox.FindByAggregate(ctx, acct, first.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, leasing.EventTypeLeaseCreated, entries[0].EventType)
}

func TestLeaseService_CreateLease_Rejections(t *testing.T) {
	s := newLeaseScenario(t)
	ctx := context.Background()
	acct := s.f.AccountID

	held := s.f.Unit(s.propertyID, "800")
	_, err := s.svc.CreateLease(ctx, acct, s.request(held, testdb.Date(2025, 1, 1)))
	require.NoError(t, err)

	end := testdb.Date(2024, 12, 31)
	badPeriod := s.request(s.f.Unit(s.propertyID, "800"), testdb.Date(2025, 1, 1))
	badPeriod.LeaseEndDate = &end

	unknownTenant := s.request(s.f.Unit(s.propertyID, "800"), testdb.Date(2025, 1, 1))
	unknownTenant.TenantID = uuid.New()

	unknownProperty := s.request(s.f.Unit(s.propertyID, "800"), testdb.Date(2025, 1, 1))
	missing := uuid.New()
	unknownProperty.PropertyID = &missing

	tests := []struct {
		name string
		req  appleasing.CreateLeaseRequest
		kind shared.ErrorKind
		code string
	}{
		{"unit already leased", s.request(held, testdb.Date(2025, 6, 1)), shared.KindInvalidState, "ACTIVE_LEASE_EXISTS"},
		{"end before start", badPeriod, shared.KindValidation, "INVALID_LEASE_PERIOD"},
		{"unknown unit", s.request(uuid.New(), testdb.Date(2025, 1, 1)), shared.KindNotFound, "NOT_FOUND"},
		{"unknown tenant", unknownTenant, shared.KindNotFound, "NOT_FOUND"},
		{"unknown property", unknownProperty, shared.KindNotFound, "NOT_FOUND"},
		{"missing start", s.request(s.f.Unit(s.propertyID, "800"), time.Time{}), shared.KindValidation, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.svc.CreateLease(ctx, acct, tt.req)
			requireDomainError(t, err, tt.kind, tt.code)
		})
	}
}

// The SQLite pool has a single connection, so these transactions run one
// after another. lease_service_postgres_test.go races them on real row locks.
func TestLeaseService_CreateLease_Concurrent(t *testing.T) {
	s := newLeaseScenario(t)
	won, lost, numbers := raceCreateLease(t, s, 5)

	assert.Equal(t, 1, won, "exactly one lease holds the contested unit")
	assert.Equal(t, 4, lost)
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}, numbers,
		"leases on their own units number the year without gaps")
}

// raceCreateLease runs n requests for one contested unit dated 2025 next to n
// requests for fresh units dated 2027. It returns how many contested requests
// won and lost and the lease numbers drawn by the fresh units.
func raceCreateLease(t *testing.T, s *leaseScenario, n int) (won, lost int, numbers map[int]bool) {
	t.Helper()
	ctx := context.Background()

	contested := s.f.Unit(s.propertyID, "800")
	sameUnit := make([]appleasing.CreateLeaseRequest, n)
	ownUnits := make([]appleasing.CreateLeaseRequest, n)
	for i := range n {
		sameUnit[i] = s.request(contested, testdb.Date(2025, 1, 1))
		ownUnits[i] = s.request(s.f.Unit(s.propertyID, "800"), testdb.Date(2027, 2, 1))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	numbers = map[int]bool{}
	for i := range n {
		wg.Add(2)
		go func(req appleasing.CreateLeaseRequest) {
			defer wg.Done()
			_, err := s.svc.CreateLease(ctx, s.f.AccountID, req)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
				return
			}
			if de, ok := shared.AsDomainError(err); ok && de.Code == "ACTIVE_LEASE_EXISTS" {
				lost++
				return
			}
			t.Errorf("contested lease: %v", err)
		}(sameUnit[i])
		go func(req appleasing.CreateLeaseRequest) {
			defer wg.Done()
			resp, err := s.svc.CreateLease(ctx, s.f.AccountID, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.Errorf("lease on own unit: %v", err)
				return
			}
			numbers[resp.LeaseNo] = true
		}(ownUnits[i])
	}
	wg.Wait()
	return won, lost, numbers
}

func TestLeaseService_TerminateLease(t *testing.T) {
	s := newLeaseScenario(t)
	ctx := context.Background()
	acct := s.f.AccountID
	unitID := s.f.Unit(s.propertyID, "800")

	lease, err := s.svc.CreateLease(ctx, acct, s.request(unitID, testdb.Date(2025, 1, 1)))
	require.NoError(t, err)

	out := time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC)
	notes := "moved abroad"
	ended, err := s.svc.TerminateLease(ctx, acct, lease.ID, appleasing.TerminateLeaseRequest{MoveOutDate: &out, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, string(leasing.LeaseStatusTerminated), ended.Status)
	require.NotNil(t, ended.MoveOutDate)
	assert.True(t, ended.MoveOutDate.Equal(testdb.Date(2025, 6, 30)))
	assert.Equal(t, notes, ended.Notes)
	assert.Equal(t, leasing.UnitStatusVacant, s.f.UnitStatus(unitID))

	_, err = s.svc.TerminateLease(ctx, acct, lease.ID, appleasing.TerminateLeaseRequest{})
	requireDomainError(t, err, shared.KindInvalidState, "LEASE_NOT_ACTIVE")

	// the vacated unit can be leased again
	again, err := s.svc.CreateLease(ctx, acct, s.request(unitID, testdb.Date(2025, 7, 1)))
	require.NoError(t, err)
	assert.Equal(t, 2, again.LeaseNo)
	assert.Equal(t, leasing.UnitStatusOccupied, s.f.UnitStatus(unitID))

	_, err = s.svc.TerminateLease(ctx, acct, uuid.New(), appleasing.TerminateLeaseRequest{})
	requireDomainError(t, err, shared.KindNotFound, "NOT_FOUND")
}

func TestLeaseService_HardDeleteLease(t *testing.T) {
	s := newLeaseScenario(t)
	ctx := context.Background()
	acct := s.f.AccountID
	unitID := s.f.Unit(s.propertyID, "800")

	t.Run("active lease vacates the unit", func(t *testing.T) {
		lease, err := s.svc.CreateLease(ctx, acct, s.request(unitID, testdb.Date(2025, 1, 1)))
		require.NoError(t, err)

		require.NoError(t, s.svc.HardDeleteLease(ctx, acct, lease.ID))
		assert.Equal(t, leasing.UnitStatusVacant, s.f.UnitStatus(unitID))

		_, err = s.svc.GetLeaseByID(ctx, acct, lease.ID)
		requireDomainError(t, err, shared.KindNotFound, "NOT_FOUND")

		entries, err := s.outbox.FindByAggregate(ctx, acct, lease.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, leasing.EventTypeLeaseDeleted, entries[1].EventType)
	})

	t.Run("old lease leaves the current tenant in place", func(t *testing.T) {
		old, err := s.svc.CreateLease(ctx, acct, s.request(unitID, testdb.Date(2024, 1, 1)))
		require.NoError(t, err)
		_, err = s.svc.TerminateLease(ctx, acct, old.ID, appleasing.TerminateLeaseRequest{})
		require.NoError(t, err)
		_, err = s.svc.CreateLease(ctx, acct, s.request(unitID, testdb.Date(2025, 2, 1)))
		require.NoError(t, err)

		require.NoError(t, s.svc.HardDeleteLease(ctx, acct, old.ID))
		assert.Equal(t, leasing.UnitStatusOccupied, s.f.UnitStatus(unitID))
	})

	t.Run("unknown lease", func(t *testing.T) {
		requireDomainError(t, s.svc.HardDeleteLease(ctx, acct, uuid.New()), shared.KindNotFound, "NOT_FOUND")
	})
}

func TestLeaseService_GetAllLeases(t *testing.T) {
	s := newLeaseScenario(t)
	ctx := context.Background()
	acct := s.f.AccountID

	a, err := s.svc.CreateLease(ctx, acct, s.request(s.f.Unit(s.propertyID, "1"), testdb.Date(2024, 1, 1)))
	require.NoError(t, err)
	_, err = s.svc.TerminateLease(ctx, acct, a.ID, appleasing.TerminateLeaseRequest{})
	require.NoError(t, err)
	_, err = s.svc.CreateLease(ctx, acct, s.request(s.f.Unit(s.propertyID, "1"), testdb.Date(2025, 1, 1)))
	require.NoError(t, err)

	year := 2025
	tests := []struct {
		name   string
		filter appleasing.LeaseListFilter
		want   int64
	}{
		{"all", appleasing.LeaseListFilter{}, 2},
		{"active", appleasing.LeaseListFilter{Status: "active"}, 1},
		{"terminated", appleasing.LeaseListFilter{Status: "terminated"}, 1},
		{"by year", appleasing.LeaseListFilter{Year: &year}, 1},
		{"by unit", appleasing.LeaseListFilter{UnitID: &a.UnitID}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.svc.GetAllLeases(ctx, acct, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.TotalResults)
		})
	}

	_, err = s.svc.GetAllLeases(ctx, acct, appleasing.LeaseListFilter{Status: "expired"})
	requireDomainError(t, err, shared.KindValidation, "INVALID_INPUT")
}
