package persistence_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"github.com/propledger/backend/internal/infrastructure/persistence/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leaseFixture struct {
	f          *testdb.Fixtures
	repo       *persistence.GormLeaseRepository
	propertyID uuid.UUID
	tenantID   uuid.UUID
}

func newLeaseFixture(t *testing.T) *leaseFixture {
	db := testdb.NewSQLite(t)
	f := testdb.NewFixtures(t, db)
	return &leaseFixture{
		f:          f,
		repo:       persistence.NewGormLeaseRepository(db),
		propertyID: f.Property(),
		tenantID:   f.Tenant(),
	}
}

func (lf *leaseFixture) lease(t *testing.T, unitID uuid.UUID, no int, start time.Time) *leasing.Lease {
	t.Helper()
	l, err := leasing.NewLease(lf.f.AccountID, unitID, lf.tenantID, lf.propertyID, no, leasing.LeaseTerms{
		LeaseStartDate:      start,
		StartedMeterReading: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	return l
}

func TestGormLeaseRepository_SaveAndFind(t *testing.T) {
	lf := newLeaseFixture(t)
	ctx := context.Background()
	unitID := lf.f.Unit(lf.propertyID, "900")

	l := lf.lease(t, unitID, 1, testdb.Date(2025, 3, 1))
	require.NoError(t, lf.repo.Save(ctx, l))

	got, err := lf.repo.FindByIDForAccount(ctx, lf.f.AccountID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.UnitID, got.UnitID)
	assert.Equal(t, 2025, got.LeaseYear)
	assert.Equal(t, 1, got.LeaseNo)
	assert.Equal(t, leasing.LeaseStatusActive, got.Status)
	assert.True(t, got.StartedMeterReading.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.LeaseStartDate.Equal(testdb.Date(2025, 3, 1)))

	_, err = lf.repo.FindByIDForAccount(ctx, uuid.New(), l.ID)
	requireDomainError(t, err, shared.KindNotFound, "NOT_FOUND")
}

func TestGormLeaseRepository_SecondActiveLeaseRejected(t *testing.T) {
	lf := newLeaseFixture(t)
	ctx := context.Background()
	unitID := lf.f.Unit(lf.propertyID, "900")

	require.NoError(t, lf.repo.Save(ctx, lf.lease(t, unitID, 1, testdb.Date(2025, 1, 1))))

	err := lf.repo.Save(ctx, lf.lease(t, unitID, 2, testdb.Date(2025, 2, 1)))
	requireDomainError(t, err, shared.KindInvalidState, "ACTIVE_LEASE_EXISTS")
}

func TestGormLeaseRepository_TerminatedLeaseFreesUnit(t *testing.T) {
	lf := newLeaseFixture(t)
	ctx := context.Background()
	unitID := lf.f.Unit(lf.propertyID, "900")

	first := lf.lease(t, unitID, 1, testdb.Date(2025, 1, 1))
	require.NoError(t, lf.repo.Save(ctx, first))
	moveOut := testdb.Date(2025, 1, 31)
	require.NoError(t, first.Terminate(&moveOut, nil))
	require.NoError(t, lf.repo.Save(ctx, first))

	active, err := lf.repo.ExistsActiveForUnit(ctx, lf.f.AccountID, unitID, nil)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, lf.repo.Save(ctx, lf.lease(t, unitID, 2, testdb.Date(2025, 2, 1))))
}

func TestGormLeaseRepository_DuplicateNumberIsConflict(t *testing.T) {
	lf := newLeaseFixture(t)
	ctx := context.Background()

	require.NoError(t, lf.repo.Save(ctx, lf.lease(t, lf.f.Unit(lf.propertyID, "900"), 1, testdb.Date(2025, 1, 1))))

	err := lf.repo.Save(ctx, lf.lease(t, lf.f.Unit(lf.propertyID, "900"), 1, testdb.Date(2025, 6, 1)))
	requireDomainError(t, err, shared.KindConcurrencyConflict, "LEASE_NO_TAKEN")

	// numbering restarts every year
	require.NoError(t, lf.repo.Save(ctx, lf.lease(t, lf.f.Unit(lf.propertyID, "900"), 1, testdb.Date(2026, 1, 1))))
}

func TestGormLeaseRepository_MaxLeaseNo(t *testing.T) {
	lf := newLeaseFixture(t)
	ctx := context.Background()

	n, err := lf.repo.MaxLeaseNo(ctx, lf.f.AccountID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, lf.repo.Save(ctx, lf.lease(t, lf.f.Unit(lf.propertyID, "1"), 1, testdb.Date(2025, 1, 1))))
	require.NoError(t, lf.repo.Save(ctx, lf.lease(t, lf.f.Unit(lf.propertyID, "1"), 4, testdb.Date(2025, 5, 1))))
	require.NoError(t, lf.repo.Save(ctx, lf.lease(t, lf.f.Unit(lf.propertyID, "1"), 9, testdb.Date(2024, 5, 1))))

	n, err = lf.repo.MaxLeaseNo(ctx, lf.f.AccountID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = lf.repo.MaxLeaseNo(ctx, uuid.New(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "numbering is per account")
}

func TestGormLeaseRepository_LockNumbering(t *testing.T) {
	db := testdb.NewSQLite(t)
	repo := persistence.NewGormLeaseRepository(db)
	ctx := context.Background()
	accountID := uuid.New()

	require.NoError(t, repo.LockNumbering(ctx, accountID, 2025))
	require.NoError(t, repo.LockNumbering(ctx, accountID, 2025), "taking the lock again reuses the row")
	require.NoError(t, repo.LockNumbering(ctx, accountID, 2026))

	var rows int64
	require.NoError(t, db.Model(&models.LeaseYearLockModel{}).Where("account_id = ?", accountID).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestGormLeaseRepository_LockNumbering_Upserts(t *testing.T) {
	db, mock := testdb.NewMockDB(t)
	repo := persistence.NewGormLeaseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "lease_year_locks"`) + ".*" + regexp.QuoteMeta(`ON CONFLICT ("account_id","lease_year") DO UPDATE SET "locked_at"="excluded"."locked_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LockNumbering(context.Background(), uuid.New(), 2025))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLeaseRepository_FindAllFilters(t *testing.T) {
	lf := newLeaseFixture(t)
	ctx := context.Background()
	unitA := lf.f.Unit(lf.propertyID, "1")
	unitB := lf.f.Unit(lf.propertyID, "1")

	a := lf.lease(t, unitA, 1, testdb.Date(2024, 1, 1))
	require.NoError(t, lf.repo.Save(ctx, a))
	require.NoError(t, a.Terminate(nil, nil))
	require.NoError(t, lf.repo.Save(ctx, a))
	require.NoError(t, lf.repo.Save(ctx, lf.lease(t, unitA, 1, testdb.Date(2025, 1, 1))))
	require.NoError(t, lf.repo.Save(ctx, lf.lease(t, unitB, 2, testdb.Date(2025, 2, 1))))

	active := leasing.LeaseStatusActive
	year := 2025
	tests := []struct {
		name   string
		filter leasing.LeaseFilter
		want   int
	}{
		{"all", leasing.LeaseFilter{}, 3},
		{"by unit", leasing.LeaseFilter{UnitID: &unitA}, 2},
		{"active", leasing.LeaseFilter{Status: &active}, 2},
		{"by year", leasing.LeaseFilter{Year: &year}, 2},
		{"unit and year", leasing.LeaseFilter{UnitID: &unitA, Year: &year}, 1},
		{"by tenant", leasing.LeaseFilter{TenantID: &lf.tenantID}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leases, err := lf.repo.FindAllForAccount(ctx, lf.f.AccountID, tt.filter)
			require.NoError(t, err)
			assert.Len(t, leases, tt.want)

			count, err := lf.repo.CountForAccount(ctx, lf.f.AccountID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(tt.want), count)
		})
	}
}

func TestGormLeaseRepository_Delete(t *testing.T) {
	lf := newLeaseFixture(t)
	ctx := context.Background()
	l := lf.lease(t, lf.f.Unit(lf.propertyID, "1"), 1, testdb.Date(2025, 1, 1))
	require.NoError(t, lf.repo.Save(ctx, l))

	requireDomainError(t, lf.repo.Delete(ctx, uuid.New(), l.ID), shared.KindNotFound, "NOT_FOUND")
	require.NoError(t, lf.repo.Delete(ctx, lf.f.AccountID, l.ID))
	requireDomainError(t, lf.repo.Delete(ctx, lf.f.AccountID, l.ID), shared.KindNotFound, "NOT_FOUND")
}

func TestGormUnitRepository_Occupancy(t *testing.T) {
	db := testdb.NewSQLite(t)
	f := testdb.NewFixtures(t, db)
	repo := persistence.NewGormUnitRepository(db)
	ctx := context.Background()
	unitID := f.Unit(f.Property(), "750.50")

	unit, err := repo.FindByIDForUpdate(ctx, f.AccountID, unitID)
	require.NoError(t, err)
	assert.True(t, unit.RentAmount.Equal(decimal.RequireFromString("750.50")))
	assert.False(t, unit.IsOccupied())

	unit.MarkOccupied()
	require.NoError(t, repo.Save(ctx, unit))
	assert.Equal(t, leasing.UnitStatusOccupied, f.UnitStatus(unitID))

	_, err = repo.FindByIDForAccount(ctx, uuid.New(), unitID)
	requireDomainError(t, err, shared.KindNotFound, "NOT_FOUND")
}
