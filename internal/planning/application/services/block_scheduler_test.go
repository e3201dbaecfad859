package services

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlock(key string, order int) domain.Block {
	return domain.Block{ID: uuid.New(), Key: key, Title: key, Order: order}
}

func TestBlockScheduler_SixMonthsOut(t *testing.T) {
	today := domain.Date(2026, 1, 2)
	event := domain.Date(2026, 7, 1)
	s := NewBlockScheduler(nil, time.Sunday)

	// 8 and 6 canonical months at scale 0.5 are 4 and 3 months out.
	assert.Equal(t, domain.Date(2026, 3, 1), domain.SubtractMonths(event, 8*0.5))
	assert.Equal(t, domain.Date(2026, 4, 1), domain.SubtractMonths(event, 6*0.5))

	b := newBlock("6-8m", 1)
	got := s.Schedule(event, []domain.Block{b}, 0.5, today)

	require.Len(t, got.Windows, 1)
	w := got.Windows[0]
	assert.Equal(t, b.ID, w.BlockID)
	assert.Equal(t, domain.Date(2026, 3, 1), w.Start)
	assert.Equal(t, domain.Date(2026, 3, 29), w.End)
	assert.Equal(t, 28, w.Days())
	assert.Empty(t, got.Skipped)
}

func TestBlockScheduler_UnknownKeyIsSkipped(t *testing.T) {
	s := NewBlockScheduler(nil, time.Sunday)
	bad := newBlock("99x", 2)

	got := s.Schedule(domain.Date(2026, 7, 1), []domain.Block{newBlock("6-8m", 1), bad}, 0.5, domain.Date(2026, 1, 2))

	require.Len(t, got.Windows, 1)
	assert.Equal(t, []uuid.UUID{bad.ID}, got.Skipped)
	require.Len(t, got.Diagnostics, 1)
	assert.Equal(t, domain.DiagnosticBlockSkipped, got.Diagnostics[0].Kind)
	assert.Equal(t, bad.ID, *got.Diagnostics[0].SubjectID)
}

func TestBlockScheduler_FloorsBeforeToday(t *testing.T) {
	today := domain.Date(2026, 1, 2)
	s := NewBlockScheduler(nil, time.Sunday)

	// A 12 month block against a 2 month lead time at full scale lies
	// entirely in the past.
	got := s.Schedule(domain.Date(2026, 3, 1), []domain.Block{newBlock("12m", 1)}, 1, today)

	require.Len(t, got.Windows, 1)
	assert.Equal(t, domain.Date(2026, 1, 4), got.Windows[0].Start)
	assert.Equal(t, domain.Date(2026, 1, 5), got.Windows[0].End)
}

func TestBlockScheduler_CeilingAndConsistency(t *testing.T) {
	today := domain.Date(2026, 1, 2)
	event := domain.Date(2026, 1, 20)
	s := NewBlockScheduler(nil, time.Sunday)

	got := s.Schedule(event, []domain.Block{newBlock("2w", 1)}, 1.0/12, today)

	require.Len(t, got.Windows, 1)
	w := got.Windows[0]
	assert.True(t, w.Start.Before(w.End))
	assert.False(t, w.End.After(event))
}

func TestBlockScheduler_Monotonic(t *testing.T) {
	today := domain.Date(2026, 1, 2)
	event := domain.Date(2026, 7, 1)
	s := NewBlockScheduler(nil, time.Sunday)

	// Same range twice: the second window must start where the first ends.
	first, second := newBlock("4-6m", 1), newBlock("4-6m", 2)
	got := s.Schedule(event, []domain.Block{second, first}, 0.5, today)

	require.Len(t, got.Windows, 2)
	assert.Equal(t, first.ID, got.Windows[0].BlockID)
	assert.Equal(t, got.Windows[0].End, got.Windows[1].Start)
	assert.True(t, got.Windows[1].Start.Before(got.Windows[1].End))
}

func TestBlockScheduler_WeekStartMonday(t *testing.T) {
	s := NewBlockScheduler(nil, time.Monday)
	got := s.Schedule(domain.Date(2026, 7, 1), []domain.Block{newBlock("6-8m", 1)}, 0.5, domain.Date(2026, 1, 2))

	require.Len(t, got.Windows, 1)
	assert.Equal(t, time.Monday, got.Windows[0].Start.Weekday())
	assert.Equal(t, domain.Date(2026, 2, 23), got.Windows[0].Start)
	assert.Equal(t, domain.Date(2026, 3, 30), got.Windows[0].End)
}
