package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/billing"
	"github.com/propledger/backend/internal/domain/shared"
)

// ExpenseLinker attributes unbilled tenant charges of a unit to a bill.
// It works on the transaction-bound expense repository handed to it, so
// selection, linking and the bill write commit or roll back together.
type ExpenseLinker struct{}

// NewExpenseLinker creates a new ExpenseLinker
func NewExpenseLinker() *ExpenseLinker {
	return &ExpenseLinker{}
}

// LinkableExpenses selects the tenant-chargeable expenses of the unit dated
// inside [periodStart, periodEnd] that are unlinked or already on
// excludeBillID. The selected rows stay locked until the transaction ends.
func (l *ExpenseLinker) LinkableExpenses(
	ctx context.Context,
	repo billing.ExpenseRepository,
	accountID, unitID uuid.UUID,
	periodStart, periodEnd time.Time,
	excludeBillID *uuid.UUID,
) ([]billing.Expense, error) {
	expenses, err := repo.FindLinkable(ctx, accountID, billing.LinkableQuery{
		UnitID:        unitID,
		PeriodStart:   shared.DateOnly(periodStart),
		PeriodEnd:     shared.DateOnly(periodEnd),
		ExcludeBillID: excludeBillID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select linkable expenses: %w", err)
	}
	return expenses, nil
}

// Link attaches the selected expenses that are not yet on billID
func (l *ExpenseLinker) Link(ctx context.Context, repo billing.ExpenseRepository, accountID, billID uuid.UUID, selected []billing.Expense) error {
	ids := make([]uuid.UUID, 0, len(selected))
	for i := range selected {
		e := &selected[i]
		if e.IsLinkedTo(billID) {
			continue
		}
		if err := e.LinkTo(billID); err != nil {
			return err
		}
		ids = append(ids, e.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := repo.LinkToBill(ctx, accountID, billID, ids); err != nil {
		return fmt.Errorf("failed to link expenses: %w", err)
	}
	return nil
}

// Release unlinks the expenses currently on billID that are not in keep
// and returns how many were released
func (l *ExpenseLinker) Release(ctx context.Context, repo billing.ExpenseRepository, accountID, billID uuid.UUID, keep []billing.Expense) (int, error) {
	current, err := repo.FindByBill(ctx, accountID, billID)
	if err != nil {
		return 0, fmt.Errorf("failed to load linked expenses: %w", err)
	}

	kept := make(map[uuid.UUID]struct{}, len(keep))
	for _, e := range keep {
		kept[e.ID] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(current))
	for _, e := range current {
		if _, ok := kept[e.ID]; !ok {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := repo.UnlinkFromBill(ctx, accountID, billID, ids); err != nil {
		return 0, fmt.Errorf("failed to unlink expenses: %w", err)
	}
	return len(ids), nil
}
