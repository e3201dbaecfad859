package queries

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/cache"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) (*persistence.MemoryStore, *persistence.Snapshot) {
	t.Helper()
	snap := &persistence.Snapshot{Timeline: domain.Timeline{
		ID:    uuid.New(),
		Event: domain.Event{ID: uuid.New(), Date: domain.Date(2026, 7, 1)},
	}}
	block := domain.Block{ID: uuid.New(), TimelineID: snap.Timeline.ID, Key: "6-8m", Order: 1}
	snap.Blocks = []domain.Block{block}
	snap.Tasks = []domain.Task{
		{ID: uuid.New(), TimelineID: snap.Timeline.ID, BlockID: block.ID, Title: "Zoo", Weight: 9},
		{ID: uuid.New(), TimelineID: snap.Timeline.ID, BlockID: block.ID, Title: "Apple", Weight: 1},
	}

	store := persistence.NewMemoryStore()
	require.NoError(t, store.Import(context.Background(), snap))
	return store, snap
}

func TestPreviewRecalculation(t *testing.T) {
	ctx := context.Background()
	store, snap := seedStore(t)
	h := NewPreviewRecalculationHandler(store, nil)

	res, err := h.Handle(ctx, PreviewRecalculationQuery{
		TimelineID: snap.Timeline.ID,
		Options:    domain.Options{RespectLocks: true, Distribution: domain.DistributionEven},
		Today:      domain.Date(2026, 1, 2),
	})
	require.NoError(t, err)

	assert.False(t, res.Persisted)
	assert.Equal(t, domain.DistributionEven, res.Distribution)
	assert.Equal(t, []domain.BlockDates{{ID: snap.Blocks[0].ID, StartDate: "2026-03-01", EndDate: "2026-03-29"}}, res.Blocks)
	assert.Equal(t, []domain.TaskDueDate{
		{ID: snap.Tasks[1].ID, DueDate: "2026-03-01"},
		{ID: snap.Tasks[0].ID, DueDate: "2026-03-15"},
	}, res.Tasks)

	// Nothing was written.
	block, _ := store.Block(snap.Blocks[0].ID)
	assert.Nil(t, block.StartDate)
	task, _ := store.Task(snap.Tasks[0].ID)
	assert.Nil(t, task.DueDate)
	assert.Empty(t, store.AuditEntries())
}

func TestPreviewRecalculation_Errors(t *testing.T) {
	store, _ := seedStore(t)
	h := NewPreviewRecalculationHandler(store, nil)

	_, err := h.Handle(context.Background(), PreviewRecalculationQuery{TimelineID: uuid.New()})
	assert.Equal(t, domain.ErrorKindNotFound, domain.KindOf(err))

	_, err = h.Handle(context.Background(), PreviewRecalculationQuery{})
	assert.Equal(t, domain.ErrorKindInvalid, domain.KindOf(err))
}

type failingCache struct{}

func (failingCache) Get(ctx context.Context, id uuid.UUID) (*domain.Summary, error) {
	return nil, errors.New("redis down")
}

func (failingCache) Put(ctx context.Context, s domain.Summary) error {
	return errors.New("redis down")
}

func TestGetLastRecalculation(t *testing.T) {
	ctx := context.Background()
	timelineID := uuid.New()
	summary := domain.Summary{
		TimelineID:     timelineID,
		Distribution:   domain.DistributionBalanced,
		LeadTimeMonths: 4,
		ScaleFactor:    4.0 / 12,
		RecalculatedAt: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
		Persisted:      true,
	}
	details, err := json.Marshal(summary)
	require.NoError(t, err)

	t.Run("falls back to the audit trail and fills the cache", func(t *testing.T) {
		store := persistence.NewMemoryStore()
		require.NoError(t, store.Append(ctx, domain.AuditEntry{TimelineID: timelineID, Action: domain.AuditActionRecalculate, Details: details}))
		c := cache.NewMemorySummaryCache()

		got, err := NewGetLastRecalculationHandler(store, c, nil).Handle(ctx, GetLastRecalculationQuery{TimelineID: timelineID})
		require.NoError(t, err)
		assert.Equal(t, summary, *got)

		cached, err := c.Get(ctx, timelineID)
		require.NoError(t, err)
		assert.Equal(t, summary, *cached)
	})

	t.Run("serves from the cache", func(t *testing.T) {
		c := cache.NewMemorySummaryCache()
		require.NoError(t, c.Put(ctx, summary))

		got, err := NewGetLastRecalculationHandler(persistence.NewMemoryStore(), c, nil).Handle(ctx, GetLastRecalculationQuery{TimelineID: timelineID})
		require.NoError(t, err)
		assert.Equal(t, summary, *got)
	})

	t.Run("survives a broken cache", func(t *testing.T) {
		store := persistence.NewMemoryStore()
		require.NoError(t, store.Append(ctx, domain.AuditEntry{TimelineID: timelineID, Action: domain.AuditActionRecalculate, Details: details}))

		got, err := NewGetLastRecalculationHandler(store, failingCache{}, nil).Handle(ctx, GetLastRecalculationQuery{TimelineID: timelineID})
		require.NoError(t, err)
		assert.Equal(t, 4, got.LeadTimeMonths)
	})

	t.Run("never recalculated", func(t *testing.T) {
		_, err := NewGetLastRecalculationHandler(persistence.NewMemoryStore(), nil, nil).Handle(ctx, GetLastRecalculationQuery{TimelineID: timelineID})
		assert.ErrorIs(t, err, domain.ErrNoRecalculation)
		assert.Equal(t, domain.ErrorKindNotFound, domain.KindOf(err))
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := NewGetLastRecalculationHandler(persistence.NewMemoryStore(), nil, nil).Handle(ctx, GetLastRecalculationQuery{})
		assert.Equal(t, domain.ErrorKindInvalid, domain.KindOf(err))
	})
}
