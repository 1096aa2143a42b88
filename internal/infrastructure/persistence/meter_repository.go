package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/metering"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence/account"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMeterRepository implements MeterRepository using GORM
type GormMeterRepository struct {
	db *gorm.DB
}

// NewGormMeterRepository creates a new GormMeterRepository
func NewGormMeterRepository(db *gorm.DB) *GormMeterRepository {
	return &GormMeterRepository{db: db}
}

// FindByIDForAccount finds a meter by ID
func (r *GormMeterRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*metering.Meter, error) {
	return r.find(r.db.WithContext(ctx), accountID, id)
}

// FindByIDForUpdate finds a meter and locks its row until the transaction ends.
// Every reading writer on the meter serializes on this lock.
func (r *GormMeterRepository) FindByIDForUpdate(ctx context.Context, accountID, id uuid.UUID) (*metering.Meter, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), accountID, id)
}

func (r *GormMeterRepository) find(db *gorm.DB, accountID, id uuid.UUID) (*metering.Meter, error) {
	var model models.MeterModel
	if err := db.Scopes(account.Scope(accountID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Meter", id)
	}
	return model.ToDomain(), nil
}

// GormSubmeterRepository implements SubmeterRepository using GORM
type GormSubmeterRepository struct {
	db *gorm.DB
}

// NewGormSubmeterRepository creates a new GormSubmeterRepository
func NewGormSubmeterRepository(db *gorm.DB) *GormSubmeterRepository {
	return &GormSubmeterRepository{db: db}
}

// FindByIDForAccount finds a submeter by ID
func (r *GormSubmeterRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*metering.Submeter, error) {
	var model models.SubmeterModel
	if err := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Submeter", id)
	}
	return model.ToDomain(), nil
}

// GormMeterReadingRepository implements MeterReadingRepository using GORM.
// Every finder ignores soft-deleted readings.
type GormMeterReadingRepository struct {
	db *gorm.DB
}

// NewGormMeterReadingRepository creates a new GormMeterReadingRepository
func NewGormMeterReadingRepository(db *gorm.DB) *GormMeterReadingRepository {
	return &GormMeterReadingRepository{db: db}
}

// FindByIDForAccount finds a live reading by ID
func (r *GormMeterReadingRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*metering.MeterReading, error) {
	var model models.MeterReadingModel
	if err := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "MeterReading", id)
	}
	return model.ToDomain(), nil
}

// ExistsOnDate reports whether the series already has a live reading on date
func (r *GormMeterReadingRepository) ExistsOnDate(ctx context.Context, accountID uuid.UUID, key metering.SeriesKey, date time.Time, excludeID *uuid.UUID) (bool, error) {
	var count int64
	err := r.series(ctx, accountID, key, excludeID).
		Where("reading_date = ?", shared.DateOnly(date)).
		Count(&count).Error
	return count > 0, err
}

// FindPrevious returns the latest reading strictly before date, or nil
func (r *GormMeterReadingRepository) FindPrevious(ctx context.Context, accountID uuid.UUID, key metering.SeriesKey, date time.Time, excludeID *uuid.UUID) (*metering.MeterReading, error) {
	return r.first(r.series(ctx, accountID, key, excludeID).
		Where("reading_date < ?", shared.DateOnly(date)).
		Order("reading_date DESC, created_at DESC"))
}

// FindNext returns the earliest reading strictly after date, or nil
func (r *GormMeterReadingRepository) FindNext(ctx context.Context, accountID uuid.UUID, key metering.SeriesKey, date time.Time, excludeID *uuid.UUID) (*metering.MeterReading, error) {
	return r.first(r.series(ctx, accountID, key, excludeID).
		Where("reading_date > ?", shared.DateOnly(date)).
		Order("reading_date ASC, created_at ASC"))
}

// FindEarliestInRange returns the first reading in [from, to], or nil
func (r *GormMeterReadingRepository) FindEarliestInRange(ctx context.Context, accountID uuid.UUID, key metering.SeriesKey, from, to time.Time) (*metering.MeterReading, error) {
	return r.first(r.series(ctx, accountID, key, nil).
		Where("reading_date BETWEEN ? AND ?", shared.DateOnly(from), shared.DateOnly(to)).
		Order("reading_date ASC, created_at ASC"))
}

// FindLatestInRange returns the last reading in [from, to], or nil
func (r *GormMeterReadingRepository) FindLatestInRange(ctx context.Context, accountID uuid.UUID, key metering.SeriesKey, from, to time.Time) (*metering.MeterReading, error) {
	return r.first(r.series(ctx, accountID, key, nil).
		Where("reading_date BETWEEN ? AND ?", shared.DateOnly(from), shared.DateOnly(to)).
		Order("reading_date DESC, created_at DESC"))
}

// FindAllForAccount lists live readings, newest first by default
func (r *GormMeterReadingRepository) FindAllForAccount(ctx context.Context, accountID uuid.UUID, filter metering.MeterReadingFilter) ([]metering.MeterReading, error) {
	var rows []models.MeterReadingModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.MeterReadingModel{}), accountID, filter),
		filter.Filter, MeterReadingSortFields, "reading_date")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	readings := make([]metering.MeterReading, len(rows))
	for i := range rows {
		readings[i] = *rows[i].ToDomain()
	}
	return readings, nil
}

// CountForAccount counts live readings matching the filter
func (r *GormMeterReadingRepository) CountForAccount(ctx context.Context, accountID uuid.UUID, filter metering.MeterReadingFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.MeterReadingModel{}), accountID, filter).
		Count(&count).Error
	return count, err
}

// Save creates or updates a reading. A second live reading on the same day
// of a series is rejected.
func (r *GormMeterReadingRepository) Save(ctx context.Context, reading *metering.MeterReading) error {
	err := r.db.WithContext(ctx).Save(models.MeterReadingModelFromDomain(reading)).Error
	if isUniqueViolation(r.db, err) {
		return metering.NewDuplicateReadingError(reading.ReadingDate)
	}
	return err
}

func (r *GormMeterReadingRepository) series(ctx context.Context, accountID uuid.UUID, key metering.SeriesKey, excludeID *uuid.UUID) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.MeterReadingModel{}).
		Scopes(account.Scope(accountID)).
		Where("meter_id = ? AND is_deleted = ?", key.MeterID, false)
	if key.SubmeterID == nil {
		query = query.Where("submeter_id IS NULL")
	} else {
		query = query.Where("submeter_id = ?", *key.SubmeterID)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	return query
}

func (r *GormMeterReadingRepository) first(query *gorm.DB) (*metering.MeterReading, error) {
	var rows []models.MeterReadingModel
	if err := query.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

func (r *GormMeterReadingRepository) applyFilter(query *gorm.DB, accountID uuid.UUID, filter metering.MeterReadingFilter) *gorm.DB {
	query = query.Scopes(account.Scope(accountID)).Where("is_deleted = ?", false)
	if filter.MeterID != nil {
		query = query.Where("meter_id = ?", *filter.MeterID)
	}
	if filter.SubmeterID != nil {
		query = query.Where("submeter_id = ?", *filter.SubmeterID)
	}
	if filter.FromDate != nil {
		query = query.Where("reading_date >= ?", shared.DateOnly(*filter.FromDate))
	}
	if filter.ToDate != nil {
		query = query.Where("reading_date <= ?", shared.DateOnly(*filter.ToDate))
	}
	return query
}

var (
	_ metering.MeterRepository        = (*GormMeterRepository)(nil)
	_ metering.SubmeterRepository     = (*GormSubmeterRepository)(nil)
	_ metering.MeterReadingRepository = (*GormMeterReadingRepository)(nil)
)
