package metering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
)

// MeterRepository reads the meter lookup table
type MeterRepository interface {
	// FindByIDForAccount finds a meter by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*Meter, error)

	// FindByIDForUpdate finds a meter and locks its row, serialising writers of its readings
	FindByIDForUpdate(ctx context.Context, accountID, id uuid.UUID) (*Meter, error)
}

// SubmeterRepository reads the submeter lookup table
type SubmeterRepository interface {
	// FindByIDForAccount finds a submeter by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*Submeter, error)
}

// MeterReadingFilter defines filtering options for reading queries
type MeterReadingFilter struct {
	shared.Filter
	MeterID    *uuid.UUID
	SubmeterID *uuid.UUID
	FromDate   *time.Time
	ToDate     *time.Time
}

// MeterReadingRepository defines the interface for reading persistence.
// Every finder ignores soft-deleted readings. A nil SubmeterID in a key
// matches only readings taken on the meter itself.
type MeterReadingRepository interface {
	// FindByIDForAccount finds a live reading by ID
	FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*MeterReading, error)

	// ExistsOnDate reports whether the series already has a live reading on date
	ExistsOnDate(ctx context.Context, accountID uuid.UUID, key SeriesKey, date time.Time, excludeID *uuid.UUID) (bool, error)

	// FindPrevious returns the latest reading strictly before date (nil if none),
	// newest reading_date first, then newest created_at
	FindPrevious(ctx context.Context, accountID uuid.UUID, key SeriesKey, date time.Time, excludeID *uuid.UUID) (*MeterReading, error)

	// FindNext returns the earliest reading strictly after date (nil if none)
	FindNext(ctx context.Context, accountID uuid.UUID, key SeriesKey, date time.Time, excludeID *uuid.UUID) (*MeterReading, error)

	// FindEarliestInRange returns the first reading with from <= reading_date <= to (nil if none)
	FindEarliestInRange(ctx context.Context, accountID uuid.UUID, key SeriesKey, from, to time.Time) (*MeterReading, error)

	// FindLatestInRange returns the last reading with from <= reading_date <= to (nil if none)
	FindLatestInRange(ctx context.Context, accountID uuid.UUID, key SeriesKey, from, to time.Time) (*MeterReading, error)

	// FindAllForAccount lists live readings, newest first
	FindAllForAccount(ctx context.Context, accountID uuid.UUID, filter MeterReadingFilter) ([]MeterReading, error)

	// CountForAccount counts live readings matching the filter
	CountForAccount(ctx context.Context, accountID uuid.UUID, filter MeterReadingFilter) (int64, error)

	// Save creates or updates a reading
	Save(ctx context.Context, reading *MeterReading) error
}
