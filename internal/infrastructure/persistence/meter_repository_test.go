package persistence_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/metering"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/infrastructure/persistence/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readingFixture struct {
	f       *testdb.Fixtures
	repo    *persistence.GormMeterReadingRepository
	meterID uuid.UUID
}

func newReadingFixture(t *testing.T) *readingFixture {
	db := testdb.NewSQLite(t)
	f := testdb.NewFixtures(t, db)
	return &readingFixture{f: f, repo: persistence.NewGormMeterReadingRepository(db), meterID: f.Meter()}
}

func (rf *readingFixture) save(t *testing.T, submeterID *uuid.UUID, value string, date time.Time) *metering.MeterReading {
	t.Helper()
	r, err := metering.NewMeterReading(rf.f.AccountID, metering.ReadingFields{
		MeterID:      rf.meterID,
		SubmeterID:   submeterID,
		ReadingValue: decimal.RequireFromString(value),
		ReadingDate:  date,
	}, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, rf.repo.Save(context.Background(), r))
	return r
}

func TestGormMeterReadingRepository_Neighbours(t *testing.T) {
	rf := newReadingFixture(t)
	ctx := context.Background()
	key := metering.SeriesKey{MeterID: rf.meterID}

	jan := rf.save(t, nil, "100", testdb.Date(2025, 1, 1))
	feb := rf.save(t, nil, "150", testdb.Date(2025, 2, 1))
	mar := rf.save(t, nil, "210.5", testdb.Date(2025, 3, 1))

	prev, err := rf.repo.FindPrevious(ctx, rf.f.AccountID, key, testdb.Date(2025, 2, 15), nil)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, feb.ID, prev.ID)

	prev, err = rf.repo.FindPrevious(ctx, rf.f.AccountID, key, testdb.Date(2025, 2, 1), nil)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, jan.ID, prev.ID, "a reading on the same day is not its own predecessor")

	next, err := rf.repo.FindNext(ctx, rf.f.AccountID, key, testdb.Date(2025, 2, 1), nil)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mar.ID, next.ID)
	assert.True(t, next.ReadingValue.Equal(decimal.RequireFromString("210.5")))

	next, err = rf.repo.FindNext(ctx, rf.f.AccountID, key, testdb.Date(2025, 1, 15), &feb.ID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, mar.ID, next.ID, "excluded reading is skipped")

	none, err := rf.repo.FindPrevious(ctx, rf.f.AccountID, key, testdb.Date(2025, 1, 1), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGormMeterReadingRepository_NeighbourOrderBreaksDateTies(t *testing.T) {
	accountID := uuid.New()
	key := metering.SeriesKey{MeterID: uuid.New()}
	day := testdb.Date(2025, 2, 1)

	tests := []struct {
		name  string
		order string
		find  func(ctx context.Context, repo *persistence.GormMeterReadingRepository) (*metering.MeterReading, error)
	}{
		{"previous", "ORDER BY reading_date DESC, created_at DESC", func(ctx context.Context, repo *persistence.GormMeterReadingRepository) (*metering.MeterReading, error) {
			return repo.FindPrevious(ctx, accountID, key, day, nil)
		}},
		{"next", "ORDER BY reading_date ASC, created_at ASC", func(ctx context.Context, repo *persistence.GormMeterReadingRepository) (*metering.MeterReading, error) {
			return repo.FindNext(ctx, accountID, key, day, nil)
		}},
		{"earliest in range", "ORDER BY reading_date ASC, created_at ASC", func(ctx context.Context, repo *persistence.GormMeterReadingRepository) (*metering.MeterReading, error) {
			return repo.FindEarliestInRange(ctx, accountID, key, day, day.AddDate(0, 1, 0))
		}},
		{"latest in range", "ORDER BY reading_date DESC, created_at DESC", func(ctx context.Context, repo *persistence.GormMeterReadingRepository) (*metering.MeterReading, error) {
			return repo.FindLatestInRange(ctx, accountID, key, day, day.AddDate(0, 1, 0))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := testdb.NewMockDB(t)
			repo := persistence.NewGormMeterReadingRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta(tt.order)).
				WillReturnRows(sqlmock.NewRows([]string{"id"}))

			got, err := tt.find(context.Background(), repo)
			require.NoError(t, err)
			assert.Nil(t, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormMeterReadingRepository_Range(t *testing.T) {
	rf := newReadingFixture(t)
	ctx := context.Background()
	key := metering.SeriesKey{MeterID: rf.meterID}

	rf.save(t, nil, "100", testdb.Date(2025, 1, 1))
	first := rf.save(t, nil, "120", testdb.Date(2025, 1, 10))
	last := rf.save(t, nil, "170", testdb.Date(2025, 1, 20))
	rf.save(t, nil, "200", testdb.Date(2025, 2, 1))

	earliest, err := rf.repo.FindEarliestInRange(ctx, rf.f.AccountID, key, testdb.Date(2025, 1, 5), testdb.Date(2025, 1, 25))
	require.NoError(t, err)
	require.NotNil(t, earliest)
	assert.Equal(t, first.ID, earliest.ID)

	latest, err := rf.repo.FindLatestInRange(ctx, rf.f.AccountID, key, testdb.Date(2025, 1, 5), testdb.Date(2025, 1, 20))
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, last.ID, latest.ID, "range end is inclusive")

	empty, err := rf.repo.FindEarliestInRange(ctx, rf.f.AccountID, key, testdb.Date(2025, 3, 1), testdb.Date(2025, 3, 31))
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestGormMeterReadingRepository_OnePerDay(t *testing.T) {
	rf := newReadingFixture(t)
	ctx := context.Background()
	day := testdb.Date(2025, 1, 1)
	key := metering.SeriesKey{MeterID: rf.meterID}

	first := rf.save(t, nil, "100", day)

	exists, err := rf.repo.ExistsOnDate(ctx, rf.f.AccountID, key, day, nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = rf.repo.ExistsOnDate(ctx, rf.f.AccountID, key, day, &first.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	dup, err := metering.NewMeterReading(rf.f.AccountID, metering.ReadingFields{
		MeterID: rf.meterID, ReadingValue: decimal.NewFromInt(101), ReadingDate: day,
	}, decimal.Zero)
	require.NoError(t, err)
	requireDomainError(t, rf.repo.Save(ctx, dup), shared.KindInvalidState, "DUPLICATE_READING")

	// a submeter is its own series
	submeterID := rf.f.Submeter(rf.meterID)
	rf.save(t, &submeterID, "5", day)

	// deleting frees the day
	require.NoError(t, first.SoftDelete())
	require.NoError(t, rf.repo.Save(ctx, first))
	rf.save(t, nil, "100", day)

	_, err = rf.repo.FindByIDForAccount(ctx, rf.f.AccountID, first.ID)
	requireDomainError(t, err, shared.KindNotFound, "NOT_FOUND")
}

func TestGormMeterReadingRepository_SeriesIsolation(t *testing.T) {
	rf := newReadingFixture(t)
	ctx := context.Background()
	submeterID := rf.f.Submeter(rf.meterID)

	rf.save(t, nil, "1000", testdb.Date(2025, 1, 1))
	sub := rf.save(t, &submeterID, "10", testdb.Date(2025, 1, 2))

	prev, err := rf.repo.FindPrevious(ctx, rf.f.AccountID,
		metering.SeriesKey{MeterID: rf.meterID}, testdb.Date(2025, 2, 1), nil)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Nil(t, prev.SubmeterID, "meter series ignores submeter readings")

	prev, err = rf.repo.FindPrevious(ctx, rf.f.AccountID,
		metering.SeriesKey{MeterID: rf.meterID, SubmeterID: &submeterID}, testdb.Date(2025, 2, 1), nil)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, sub.ID, prev.ID)

	other, err := rf.repo.FindPrevious(ctx, uuid.New(),
		metering.SeriesKey{MeterID: rf.meterID}, testdb.Date(2025, 2, 1), nil)
	require.NoError(t, err)
	assert.Nil(t, other, "readings are scoped to the account")
}

func TestGormMeterReadingRepository_FindAllFilters(t *testing.T) {
	rf := newReadingFixture(t)
	ctx := context.Background()
	submeterID := rf.f.Submeter(rf.meterID)

	rf.save(t, nil, "100", testdb.Date(2025, 1, 1))
	rf.save(t, nil, "110", testdb.Date(2025, 2, 1))
	rf.save(t, &submeterID, "5", testdb.Date(2025, 2, 1))

	from := testdb.Date(2025, 1, 15)
	tests := []struct {
		name   string
		filter metering.MeterReadingFilter
		want   int
	}{
		{"all", metering.MeterReadingFilter{}, 3},
		{"by meter", metering.MeterReadingFilter{MeterID: &rf.meterID}, 3},
		{"by submeter", metering.MeterReadingFilter{SubmeterID: &submeterID}, 1},
		{"from date", metering.MeterReadingFilter{FromDate: &from}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings, err := rf.repo.FindAllForAccount(ctx, rf.f.AccountID, tt.filter)
			require.NoError(t, err)
			assert.Len(t, readings, tt.want)

			count, err := rf.repo.CountForAccount(ctx, rf.f.AccountID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(tt.want), count)
		})
	}

	readings, err := rf.repo.FindAllForAccount(ctx, rf.f.AccountID, metering.MeterReadingFilter{})
	require.NoError(t, err)
	assert.True(t, readings[0].ReadingDate.Equal(testdb.Date(2025, 2, 1)), "newest first")
}

func TestGormMeterRepository_FindByIDForUpdate_LocksRow(t *testing.T) {
	db, mock := testdb.NewMockDB(t)
	repo := persistence.NewGormMeterRepository(db)
	accountID, meterID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "meters" WHERE .*account_id = \$1.* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "serial_number", "utility_type", "created_at", "updated_at"}).
			AddRow(meterID.String(), accountID.String(), "M-1", "water", time.Now(), time.Now()))

	meter, err := repo.FindByIDForUpdate(context.Background(), accountID, meterID)
	require.NoError(t, err)
	assert.Equal(t, metering.UtilityTypeWater, meter.UtilityType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormMeterRepository_NotFound(t *testing.T) {
	db, mock := testdb.NewMockDB(t)
	repo := persistence.NewGormMeterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "meters"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByIDForAccount(context.Background(), uuid.New(), uuid.New())
	requireDomainError(t, err, shared.KindNotFound, "NOT_FOUND")
}
