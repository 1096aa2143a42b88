package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultPendingLimit = 50
	maxPendingLimit     = 500
)

// OutboxService lets the notification layer drain recorded domain events
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxService{repo: repo, logger: logger}
}

// OutboxEntryDTO is an outbox entry with its payload left as raw JSON
type OutboxEntryDTO struct {
	ID            uuid.UUID       `json:"id"`
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Status        string          `json:"status"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OutboxStatsDTO counts an account's entries per status
type OutboxStatsDTO struct {
	Pending int64 `json:"pending"`
	Sent    int64 `json:"sent"`
	Total   int64 `json:"total"`
}

// ListPending returns the oldest undelivered entries. A limit below 1 uses
// the default; larger limits are capped.
func (s *OutboxService) ListPending(ctx context.Context, accountID uuid.UUID, limit int) ([]OutboxEntryDTO, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = defaultPendingLimit
	}
	if limit > maxPendingLimit {
		limit = maxPendingLimit
	}

	entries, err := s.repo.FindPending(ctx, accountID, limit)
	if err != nil {
		s.logger.Error("Failed to find pending outbox entries", zap.Error(err))
		return nil, err
	}
	return toOutboxEntryDTOs(entries), nil
}

// ListForAggregate returns every event one aggregate raised, oldest first
func (s *OutboxService) ListForAggregate(ctx context.Context, accountID, aggregateID uuid.UUID) ([]OutboxEntryDTO, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	entries, err := s.repo.FindByAggregate(ctx, accountID, aggregateID)
	if err != nil {
		s.logger.Error("Failed to find outbox entries",
			zap.Error(err), zap.String("aggregate_id", aggregateID.String()))
		return nil, err
	}
	return toOutboxEntryDTOs(entries), nil
}

// Acknowledge marks delivered entries as sent. Entries of other accounts and
// entries already sent are left alone and not counted.
func (s *OutboxService) Acknowledge(ctx context.Context, accountID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, shared.NewValidationError("NO_EVENTS", "at least one event id is required")
	}

	n, err := s.repo.MarkSent(ctx, accountID, ids)
	if err != nil {
		s.logger.Error("Failed to acknowledge outbox entries", zap.Error(err))
		return 0, err
	}
	s.logger.Info("Outbox entries acknowledged",
		zap.String("account_id", accountID.String()),
		zap.Int("requested", len(ids)),
		zap.Int64("acknowledged", n),
	)
	return n, nil
}

// GetStats returns outbox statistics
func (s *OutboxService) GetStats(ctx context.Context, accountID uuid.UUID) (*OutboxStatsDTO, error) {
	if err := shared.RequireAccount(accountID); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx, accountID)
	if err != nil {
		s.logger.Error("Failed to get outbox stats", zap.Error(err))
		return nil, err
	}

	stats := &OutboxStatsDTO{
		Pending: counts[shared.OutboxStatusPending],
		Sent:    counts[shared.OutboxStatusSent],
	}
	for _, count := range counts {
		stats.Total += count
	}
	return stats, nil
}

func toOutboxEntryDTOs(entries []*shared.OutboxEntry) []OutboxEntryDTO {
	dtos := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = OutboxEntryDTO{
			ID:            entry.ID,
			EventID:       entry.EventID,
			EventType:     entry.EventType,
			AggregateID:   entry.AggregateID,
			AggregateType: entry.AggregateType,
			Status:        string(entry.Status),
			Payload:       json.RawMessage(entry.Payload),
			CreatedAt:     entry.CreatedAt,
		}
	}
	return dtos
}
