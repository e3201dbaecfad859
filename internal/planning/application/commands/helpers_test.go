package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/cache"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/persistence"
	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var today = domain.Date(2026, 1, 2)

type stubUnitOfWork struct{}

func (s stubUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (s stubUnitOfWork) Commit(ctx context.Context) error                   { return nil }
func (s stubUnitOfWork) Rollback(ctx context.Context) error                 { return nil }

// flakyStore fails selected calls of an otherwise working MemoryStore.
type flakyStore struct {
	*persistence.MemoryStore
	goneTasks     map[uuid.UUID]bool
	failBlocksFor uuid.UUID
	failAuditWith error
}

func (s *flakyStore) UpdateTaskDueDate(ctx context.Context, id uuid.UUID, due time.Time) error {
	if s.goneTasks[id] {
		return domain.ErrRecordGone
	}
	return s.MemoryStore.UpdateTaskDueDate(ctx, id, due)
}

func (s *flakyStore) FindBlocks(ctx context.Context, timelineID uuid.UUID) ([]domain.Block, error) {
	if timelineID == s.failBlocksFor {
		return nil, errors.New("blocks table unavailable")
	}
	return s.MemoryStore.FindBlocks(ctx, timelineID)
}

func (s *flakyStore) Append(ctx context.Context, entry domain.AuditEntry) error {
	if s.failAuditWith != nil {
		return s.failAuditWith
	}
	return s.MemoryStore.Append(ctx, entry)
}

type fixture struct {
	store   *flakyStore
	outbox  *outbox.InMemoryRepository
	cache   *cache.MemorySummaryCache
	metrics *observability.InMemoryMetrics
	handler *RecalculateTimelineHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   &flakyStore{MemoryStore: persistence.NewMemoryStore(), goneTasks: map[uuid.UUID]bool{}},
		outbox:  outbox.NewInMemoryRepository(),
		cache:   cache.NewMemorySummaryCache(),
		metrics: observability.NewInMemoryMetrics(),
	}
	f.handler = NewRecalculateTimelineHandler(f.store, f.store, f.outbox, stubUnitOfWork{}, nil, f.cache, nil, f.metrics)
	f.handler.now = func() time.Time { return time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC) }
	return f
}

// seed stores a timeline with two tasks per block. The second task of each
// block depends on the first.
func (f *fixture) seed(t *testing.T, eventDate time.Time, keys ...string) *persistence.Snapshot {
	t.Helper()
	snap := &persistence.Snapshot{Timeline: domain.Timeline{
		ID:          uuid.New(),
		Title:       "Plan",
		ScaleFactor: 1,
		Event:       domain.Event{ID: uuid.New(), Name: "Party", Date: eventDate},
	}}
	snap.Timeline.EventID = snap.Timeline.Event.ID

	for i, key := range keys {
		b := domain.Block{ID: uuid.New(), TimelineID: snap.Timeline.ID, Key: key, Title: key, Order: i + 1}
		snap.Blocks = append(snap.Blocks, b)

		first := domain.Task{ID: uuid.New(), TimelineID: snap.Timeline.ID, BlockID: b.ID, Title: key + " first", Weight: 1, IsSkeleton: true, Order: 1}
		second := domain.Task{ID: uuid.New(), TimelineID: snap.Timeline.ID, BlockID: b.ID, Title: key + " second", Weight: 5, Order: 2, DependsOn: []uuid.UUID{first.ID}}
		snap.Tasks = append(snap.Tasks, first, second)
	}
	require.NoError(t, f.store.Import(context.Background(), snap))
	return snap
}

func (f *fixture) run(t *testing.T, timelineID uuid.UUID, opts domain.Options) *domain.Result {
	t.Helper()
	res, err := f.handler.Handle(context.Background(), RecalculateTimelineCommand{
		TimelineID: timelineID,
		Options:    opts,
		Today:      today,
		Actor:      "admin",
	})
	require.NoError(t, err)
	return res
}
