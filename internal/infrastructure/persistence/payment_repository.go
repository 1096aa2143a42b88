package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence/account"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForAccount finds a payment by ID
func (r *GormPaymentRepository) FindByIDForAccount(ctx context.Context, accountID, id uuid.UUID) (*billing.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateNotFound(err, "Payment", id)
	}
	return model.ToDomain(), nil
}

// FindByBill lists a bill's payments
func (r *GormPaymentRepository) FindByBill(ctx context.Context, accountID, billID uuid.UUID, filter shared.Filter) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	query := paginate(r.db.WithContext(ctx).Scopes(account.Scope(accountID)).Where("bill_id = ?", billID),
		filter, PaymentSortFields, "payment_date")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]billing.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

// CountByBill counts a bill's payments
func (r *GormPaymentRepository) CountByBill(ctx context.Context, accountID, billID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Scopes(account.Scope(accountID)).
		Where("bill_id = ?", billID).
		Count(&count).Error
	return count, err
}

// TotalsForBill sums a bill's payments, optionally leaving one out. Amounts
// are summed as decimals rather than in SQL so SQLite's float arithmetic
// never leaks into money.
func (r *GormPaymentRepository) TotalsForBill(ctx context.Context, accountID, billID uuid.UUID, excludePaymentID *uuid.UUID) (billing.PaymentTotals, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Scopes(account.Scope(accountID)).
		Where("bill_id = ?", billID)
	if excludePaymentID != nil {
		query = query.Where("id <> ?", *excludePaymentID)
	}

	var rows []struct {
		Amount      decimal.Decimal
		PaymentDate time.Time
	}
	if err := query.Select("amount", "payment_date").Find(&rows).Error; err != nil {
		return billing.PaymentTotals{}, err
	}

	totals := billing.PaymentTotals{Sum: decimal.Zero, Count: int64(len(rows))}
	for _, row := range rows {
		totals.Sum = totals.Sum.Add(row.Amount)
		if totals.LatestPaymentDate == nil || row.PaymentDate.After(*totals.LatestPaymentDate) {
			d := shared.DateOnly(row.PaymentDate)
			totals.LatestPaymentDate = &d
		}
	}
	return totals, nil
}

// Save creates or updates a payment. A reused transaction id is rejected.
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	err := r.db.WithContext(ctx).Save(models.PaymentModelFromDomain(payment)).Error
	if isUniqueViolation(r.db, err) && violates(err, IndexPaymentTxn, "payments.account_id", "payments.transaction_id") {
		return billing.NewDuplicateTransactionError(payment.TransactionID)
	}
	return err
}

// Delete removes a payment row
func (r *GormPaymentRepository) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Scopes(account.Scope(accountID)).
		Where("id = ?", id).
		Delete(&models.PaymentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Payment", id)
	}
	return nil
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
