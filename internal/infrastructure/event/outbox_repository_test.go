package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntryAt(accountID, aggregateID uuid.UUID, at time.Time) *shared.OutboxEntry {
	entry := shared.NewOutboxEntry(newTestEvent(accountID, aggregateID), []byte(`{"note":"hello"}`))
	entry.CreatedAt = at
	return entry
}

func TestGormOutboxRepository_SaveAndFindPending(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	accountID := uuid.New()
	otherAccount := uuid.New()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	first := newEntryAt(accountID, uuid.New(), base)
	second := newEntryAt(accountID, uuid.New(), base.Add(time.Minute))
	foreign := newEntryAt(otherAccount, uuid.New(), base)

	require.NoError(t, repo.Save(ctx, second, first, foreign))

	pending, err := repo.FindPending(ctx, accountID, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
	assert.Equal(t, shared.OutboxStatusPending, pending[0].Status)

	limited, err := repo.FindPending(ctx, accountID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, first.ID, limited[0].ID)
}

func TestGormOutboxRepository_Save_Empty(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)

	assert.NoError(t, repo.Save(context.Background()))
}

func TestGormOutboxRepository_FindByAggregate(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	accountID := uuid.New()
	aggregateID := uuid.New()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx,
		newEntryAt(accountID, aggregateID, base),
		newEntryAt(accountID, aggregateID, base.Add(time.Second)),
		newEntryAt(accountID, uuid.New(), base),
		newEntryAt(uuid.New(), aggregateID, base),
	))

	entries, err := repo.FindByAggregate(ctx, accountID, aggregateID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, aggregateID, e.AggregateID)
		assert.Equal(t, accountID, e.AccountID)
	}
	assert.True(t, entries[0].CreatedAt.Before(entries[1].CreatedAt))
}

func TestGormOutboxRepository_MarkSent(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	accountID := uuid.New()
	entry := newEntryAt(accountID, uuid.New(), time.Now().UTC())
	require.NoError(t, repo.Save(ctx, entry))

	n, err := repo.MarkSent(ctx, uuid.New(), []uuid.UUID{entry.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "another account cannot acknowledge the entry")

	n, err = repo.MarkSent(ctx, accountID, []uuid.UUID{entry.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	pending, err := repo.FindPending(ctx, accountID, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err = repo.MarkSent(ctx, accountID, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGormOutboxRepository_CountByStatus(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	accountID := uuid.New()
	now := time.Now().UTC()
	first := newEntryAt(accountID, uuid.New(), now)
	require.NoError(t, repo.Save(ctx,
		first,
		newEntryAt(accountID, uuid.New(), now.Add(time.Second)),
		newEntryAt(uuid.New(), uuid.New(), now),
	))
	_, err := repo.MarkSent(ctx, accountID, []uuid.UUID{first.ID})
	require.NoError(t, err)

	counts, err := repo.CountByStatus(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, map[shared.OutboxStatus]int64{
		shared.OutboxStatusPending: 1,
		shared.OutboxStatusSent:    1,
	}, counts)
}
