package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/infrastructure/persistence/account"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// FindByIDForAccount finds a live bill by ID
func (r *GormBillRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*billing.Bill, error) {
	return r.find(r.db.WithContext(ctx), accountID, id)
}

// FindByIDForUpdate finds a live bill and locks its row until the transaction ends
func (r *GormBillRepository) FindByIDForUpdate(ctx context.Context, accountID, id uuid.UUID) (*billing.Bill, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), accountID, id)
}

func (r *GormBillRepository) find(db *gorm.DB, accountID, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := db.Scopes(account.Scope(accountID)).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Bill", id)
	}
	return model.ToDomain(), nil
}

// FindAllForAccount lists live bills matching the filter
func (r *GormBillRepository) FindAllForAccount(ctx context.Context, accountID uuid.UUID, filter billing.BillFilter) ([]billing.Bill, error) {
	var rows []models.BillModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.BillModel{}), accountID, filter),
		filter.Filter, BillSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	bills := make([]billing.Bill, len(rows))
	for i := range rows {
		bills[i] = *rows[i].ToDomain()
	}
	return bills, nil
}

// CountForAccount counts live bills matching the filter
func (r *GormBillRepository) CountForAccount(ctx context.Context, accountID uuid.UUID, filter billing.BillFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.BillModel{}), accountID, filter).
		Count(&count).Error
	return count, err
}

// Save creates or updates a bill
func (r *GormBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	return r.db.WithContext(ctx).Save(models.BillModelFromDomain(bill)).Error
}

func (r *GormBillRepository) applyFilter(query *gorm.DB, accountID uuid.UUID, filter billing.BillFilter) *gorm.DB {
	query = query.Scopes(account.Scope(accountID)).Where("is_deleted = ?", false)
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.UnitID != nil {
		query = query.Where("unit_id = ?", *filter.UnitID)
	}
	if filter.Status != nil {
		query = query.Where("payment_status = ?", *filter.Status)
	}
	if filter.PeriodFrom != nil {
		query = query.Where("billing_period_end >= ?", *filter.PeriodFrom)
	}
	if filter.PeriodTo != nil {
		query = query.Where("billing_period_start <= ?", *filter.PeriodTo)
	}
	return query
}

var _ billing.BillRepository = (*GormBillRepository)(nil)
