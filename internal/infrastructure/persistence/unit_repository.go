package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/leasing"
	"github.com/propledger/backend/internal/infrastructure/persistence/account"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUnitRepository implements UnitRepository using GORM
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// FindByIDForAccount finds a unit by ID
func (r *GormUnitRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*leasing.Unit, error) {
	return r.find(r.db.WithContext(ctx), accountID, id)
}

// FindByIDForUpdate finds a unit and locks its row until the transaction ends
func (r *GormUnitRepository) FindByIDForUpdate(ctx context.Context, accountID, id uuid.UUID) (*leasing.Unit, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), accountID, id)
}

func (r *GormUnitRepository) find(db *gorm.DB, accountID, id uuid.UUID) (*leasing.Unit, error) {
	var model models.UnitModel
	if err := db.Scopes(account.Scope(accountID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Unit", id)
	}
	return model.ToDomain(), nil
}

// Save writes the unit's occupancy status
func (r *GormUnitRepository) Save(ctx context.Context, unit *leasing.Unit) error {
	return r.db.WithContext(ctx).Model(&models.UnitModel{}).
		Scopes(account.Scope(unit.AccountID)).
		Where("id = ?", unit.ID).
		Updates(map[string]any{
			"status":     unit.Status,
			"updated_at": unit.UpdatedAt,
		}).Error
}

// GormTenantRepository reads the renter lookup table
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByIDForAccount finds a tenant by ID
func (r *GormTenantRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*leasing.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Tenant", id)
	}
	return model.ToDomain(), nil
}

// GormPropertyRepository reads the property lookup table
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// FindByIDForAccount finds a property by ID
func (r *GormPropertyRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*leasing.Property, error) {
	var model models.PropertyModel
	if err := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Property", id)
	}
	return model.ToDomain(), nil
}

var (
	_ leasing.UnitRepository     = (*GormUnitRepository)(nil)
	_ leasing.TenantRepository   = (*GormTenantRepository)(nil)
	_ leasing.PropertyRepository = (*GormPropertyRepository)(nil)
)
