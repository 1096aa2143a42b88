package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence/account"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByIDForAccount finds an expense by ID
func (r *GormExpenseRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*billing.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Expense", id)
	}
	return model.ToDomain(), nil
}

// FindLinkable returns the unit's tenant charges in a tenant-chargeable
// category dated inside the period that no other bill holds. The rows stay
// locked until the transaction ends.
func (r *GormExpenseRepository) FindLinkable(ctx context.Context, accountID uuid.UUID, q billing.LinkableQuery) ([]billing.Expense, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Joins("JOIN expense_categories ON expense_categories.id = expenses.category_id").
		Scopes(account.TableScope("expenses", accountID)).
		Where("expenses.unit_id = ?", q.UnitID).
		Where("expenses.expense_type = ?", billing.ExpenseTypeTenantCharge).
		Where("expense_categories.type = ?", billing.CategoryTypeTenantChargeable).
		Where("expenses.expense_date BETWEEN ? AND ?", shared.DateOnly(q.PeriodStart), shared.DateOnly(q.PeriodEnd))
	if q.ExcludeBillID != nil {
		query = query.Where("(expenses.bill_id IS NULL OR expenses.bill_id = ?)", *q.ExcludeBillID)
	} else {
		query = query.Where("expenses.bill_id IS NULL")
	}

	var rows []models.ExpenseModel
	if err := query.
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "expenses"}}).
		Order("expenses.expense_date ASC, expenses.created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toExpenses(rows), nil
}

// FindByBill returns the expenses currently linked to a bill
func (r *GormExpenseRepository) FindByBill(ctx context.Context, accountID, billID uuid.UUID) ([]billing.Expense, error) {
	var rows []models.ExpenseModel
	if err := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("bill_id = ?", billID).
		Order("expense_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toExpenses(rows), nil
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *billing.Expense) error {
	return r.db.WithContext(ctx).Save(models.ExpenseModelFromDomain(expense)).Error
}

// LinkToBill attributes unlinked tenant charges to a bill. Fewer updated
// rows than ids means another bill claimed one first.
func (r *GormExpenseRepository) LinkToBill(ctx context.Context, accountID, billID uuid.UUID, expenseIDs []uuid.UUID) error {
	if len(expenseIDs) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).
		Scopes(account.Scope(accountID)).
		Where("id IN ? AND bill_id IS NULL AND expense_type = ?", expenseIDs, billing.ExpenseTypeTenantCharge).
		Updates(map[string]any{
			"bill_id":    billID,
			"version":    gorm.Expr("version + 1"),
			"updated_at": r.db.NowFunc(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(expenseIDs)) {
		return shared.NewDomainError(shared.KindConcurrencyConflict, "EXPENSE_ALREADY_LINKED",
			"An expense was linked to another bill concurrently")
	}
	return nil
}

// UnlinkFromBill releases the given expenses from a bill
func (r *GormExpenseRepository) UnlinkFromBill(ctx context.Context, accountID, billID uuid.UUID, expenseIDs []uuid.UUID) error {
	if len(expenseIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.ExpenseModel{}).
		Scopes(account.Scope(accountID)).
		Where("id IN ? AND bill_id = ?", expenseIDs, billID).
		Updates(map[string]any{
			"bill_id":    nil,
			"version":    gorm.Expr("version + 1"),
			"updated_at": r.db.NowFunc(),
		}).Error
}

func toExpenses(rows []models.ExpenseModel) []billing.Expense {
	expenses := make([]billing.Expense, len(rows))
	for i := range rows {
		expenses[i] = *rows[i].ToDomain()
	}
	return expenses
}

// GormExpenseCategoryRepository reads the expense category lookup table
type GormExpenseCategoryRepository struct {
	db *gorm.DB
}

// NewGormExpenseCategoryRepository creates a new GormExpenseCategoryRepository
func NewGormExpenseCategoryRepository(db *gorm.DB) *GormExpenseCategoryRepository {
	return &GormExpenseCategoryRepository{db: db}
}

// FindByIDForAccount finds a category by ID
func (r *GormExpenseCategoryRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*billing.ExpenseCategory, error) {
	var model models.ExpenseCategoryModel
	if err := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "ExpenseCategory", id)
	}
	return model.ToDomain(), nil
}

var (
	_ billing.ExpenseRepository         = (*GormExpenseRepository)(nil)
	_ billing.ExpenseCategoryRepository = (*GormExpenseCategoryRepository)(nil)
)
