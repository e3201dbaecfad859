package persistence

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_MatchesSQLOrdering(t *testing.T) {
	ctx := context.Background()
	snap := loadWedding(t)
	mem := NewMemoryStore()
	require.NoError(t, mem.Import(ctx, snap))

	blocks, err := mem.FindBlocks(ctx, snap.Timeline.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	assert.Equal(t, snap.Blocks[0].ID, blocks[0].ID)

	tasks, err := mem.FindTasks(ctx, snap.Timeline.ID)
	require.NoError(t, err)
	for i := range tasks {
		assert.Equal(t, snap.Tasks[i].ID, tasks[i].ID)
	}

	ids, err := mem.ListUpcoming(ctx, domain.Date(2026, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{snap.Timeline.ID}, ids)
}

func TestMemoryStore_UpdatesAndAudit(t *testing.T) {
	ctx := context.Background()
	snap := loadWedding(t)
	mem := NewMemoryStore()
	require.NoError(t, mem.Import(ctx, snap))

	task := snap.Tasks[0]
	require.NoError(t, mem.UpdateTaskDueDate(ctx, task.ID, domain.Date(2026, 2, 2)))
	got, ok := mem.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, domain.Date(2026, 2, 2), *got.DueDate)

	mem.DeleteTask(task.ID)
	assert.ErrorIs(t, mem.UpdateTaskDueDate(ctx, task.ID, domain.Date(2026, 2, 2)), domain.ErrRecordGone)

	require.NoError(t, mem.Append(ctx, domain.AuditEntry{TimelineID: snap.Timeline.ID, Action: domain.AuditActionRecalculate, Details: []byte(`{}`)}))
	latest, err := mem.Latest(ctx, snap.Timeline.ID, domain.AuditActionRecalculate)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.NotEqual(t, uuid.Nil, latest.ID)
	assert.Len(t, mem.AuditEntries(), 1)
}
