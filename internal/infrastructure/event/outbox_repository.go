package event

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOutboxRepository implements OutboxRepository using GORM
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewGormOutboxRepository creates a new GORM-based outbox repository
func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// Save persists one or more outbox entries
func (r *GormOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.OutboxEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.OutboxEntryModelFromDomain(e)
	}
	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		return fmt.Errorf("failed to save outbox entries: %w", err)
	}
	return nil
}

// FindPending retrieves the oldest pending entries of an account
func (r *GormOutboxRepository) FindPending(ctx context.Context, accountID uuid.UUID, limit int) ([]*shared.OutboxEntry, error) {
	var rows []models.OutboxEntryModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, shared.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// FindByAggregate retrieves every entry raised by one aggregate, oldest first
func (r *GormOutboxRepository) FindByAggregate(ctx context.Context, accountID, aggregateID uuid.UUID) ([]*shared.OutboxEntry, error) {
	var rows []models.OutboxEntryModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND aggregate_id = ?", accountID, aggregateID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// MarkSent flags entries as delivered and returns how many changed
func (r *GormOutboxRepository) MarkSent(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.OutboxEntryModel{}).
		Where("account_id = ? AND id IN ? AND status = ?", accountID, ids, shared.OutboxStatusPending).
		Update("status", shared.OutboxStatusSent)
	return result.RowsAffected, result.Error
}

// CountByStatus counts an account's entries per status
func (r *GormOutboxRepository) CountByStatus(ctx context.Context, accountID uuid.UUID) (map[shared.OutboxStatus]int64, error) {
	var rows []struct {
		Status shared.OutboxStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.OutboxEntryModel{}).
		Select("status, COUNT(*) AS count").
		Where("account_id = ?", accountID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count outbox entries: %w", err)
	}
	counts := make(map[shared.OutboxStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func toEntries(rows []models.OutboxEntryModel) []*shared.OutboxEntry {
	entries := make([]*shared.OutboxEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries
}

var _ shared.OutboxRepository = (*GormOutboxRepository)(nil)
