package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence/account"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLeaseRepository implements LeaseRepository using GORM
type GormLeaseRepository struct {
	db *gorm.DB
}

// NewGormLeaseRepository creates a new GormLeaseRepository
func NewGormLeaseRepository(db *gorm.DB) *GormLeaseRepository {
	return &GormLeaseRepository{db: db}
}

// FindByIDForAccount finds a lease by ID
func (r *GormLeaseRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*leasing.Lease, error) {
	var model models.LeaseModel
	if err := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Lease", id)
	}
	return model.ToDomain(), nil
}

// FindAllForAccount lists leases matching the filter
func (r *GormLeaseRepository) FindAllForAccount(ctx context.Context, accountID uuid.UUID, filter leasing.LeaseFilter) ([]leasing.Lease, error) {
	var rows []models.LeaseModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.LeaseModel{}), accountID, filter),
		filter.Filter, LeaseSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	leases := make([]leasing.Lease, len(rows))
	for i := range rows {
		leases[i] = *rows[i].ToDomain()
	}
	return leases, nil
}

// CountForAccount counts leases matching the filter
func (r *GormLeaseRepository) CountForAccount(ctx context.Context, accountID uuid.UUID, filter leasing.LeaseFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.LeaseModel{}), accountID, filter).
		Count(&count).Error
	return count, err
}

// ExistsActiveForUnit reports whether the unit has an active lease other than excludeID
func (r *GormLeaseRepository) ExistsActiveForUnit(ctx context.Context, accountID, unitID uuid.UUID, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.LeaseModel{}).
		Scopes(account.Scope(accountID)).
		Where("unit_id = ? AND status = ?", unitID, leasing.LeaseStatusActive)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LockNumbering takes the account's lock row for year, creating it on first
// use. The row stays locked until the transaction ends, so a MaxLeaseNo read
// afterwards sees every lease committed by the previous holder.
func (r *GormLeaseRepository) LockNumbering(ctx context.Context, accountID uuid.UUID, year int) error {
	row := models.LeaseYearLockModel{AccountID: accountID, LeaseYear: year, LockedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "lease_year"}},
		DoUpdates: clause.AssignmentColumns([]string{"locked_at"}),
	}).Create(&row).Error
}

// MaxLeaseNo returns the highest lease number issued in year, or 0
func (r *GormLeaseRepository) MaxLeaseNo(ctx context.Context, accountID uuid.UUID, year int) (int, error) {
	var maxNo int
	err := r.db.WithContext(ctx).Model(&models.LeaseModel{}).
		Scopes(account.Scope(accountID)).
		Where("lease_year = ?", year).
		Select("COALESCE(MAX(lease_no), 0)").
		Scan(&maxNo).Error
	return maxNo, err
}

// Save creates or updates a lease. The active-lease index rejects a second
// active lease on a unit and the numbering index rejects a reused number.
func (r *GormLeaseRepository) Save(ctx context.Context, lease *leasing.Lease) error {
	err := r.db.WithContext(ctx).Save(models.LeaseModelFromDomain(lease)).Error
	if !isUniqueViolation(r.db, err) {
		return err
	}
	if violates(err, IndexActiveLease, "leases.unit_id") {
		return leasing.NewActiveLeaseExistsError(lease.UnitID)
	}
	if violates(err, IndexLeaseNo, "leases.account_id", "leases.lease_year", "leases.lease_no") {
		return shared.NewDomainError(shared.KindConcurrencyConflict, "LEASE_NO_TAKEN",
			"Lease number "+lease.FullLeaseNo()+" was taken concurrently")
	}
	return err
}

// Delete removes a lease row
func (r *GormLeaseRepository) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ?", id).
		Delete(&models.LeaseModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Lease", id)
	}
	return nil
}

func (r *GormLeaseRepository) applyFilter(query *gorm.DB, accountID uuid.UUID, filter leasing.LeaseFilter) *gorm.DB {
	query = query.Scopes(account.Scope(accountID))
	if filter.UnitID != nil {
		query = query.Where("unit_id = ?", *filter.UnitID)
	}
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Year != nil {
		query = query.Where("lease_year = ?", *filter.Year)
	}
	return query
}

var _ leasing.LeaseRepository = (*GormLeaseRepository)(nil)
