package services

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(title string, weight int, skeleton bool) domain.Task {
	return domain.Task{ID: uuid.New(), Title: title, Weight: weight, IsSkeleton: skeleton}
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func dueByTitle(tasks []domain.Task, got []Assignment) map[string]time.Time {
	titles := make(map[uuid.UUID]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}
	out := make(map[string]time.Time, len(got))
	for _, a := range got {
		out[titles[a.TaskID]] = a.DueDate
	}
	return out
}

func marchWindow() BlockWindow {
	return BlockWindow{BlockID: uuid.New(), Start: domain.Date(2026, 3, 1), End: domain.Date(2026, 3, 29)}
}

func TestTaskDistributor_Strategies(t *testing.T) {
	tasks := []domain.Task{
		newTask("Venue", 1, true),
		newTask("Catering", 5, false),
		newTask("Band", 1, false),
		newTask("Budget", 3, true),
	}
	d := NewTaskDistributor()

	tests := []struct {
		strategy domain.Distribution
		want     map[string]int
	}{
		{domain.DistributionFrontload, map[string]int{"Budget": 1, "Venue": 5, "Catering": 15, "Band": 22}},
		{domain.DistributionBalanced, map[string]int{"Budget": 1, "Venue": 8, "Catering": 15, "Band": 22}},
		{domain.DistributionEven, map[string]int{"Band": 1, "Budget": 8, "Catering": 15, "Venue": 22}},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			got := d.Distribute(tasks, marchWindow(), tt.strategy, true)
			require.Len(t, got, 4)

			due := dueByTitle(tasks, got)
			for title, day := range tt.want {
				assert.Equal(t, domain.Date(2026, 3, day), due[title], title)
			}
		})
	}
}

func TestTaskDistributor_FrontloadSkeletonFirst(t *testing.T) {
	skeleton := newTask("Zebra", 1, true)
	plain := newTask("Alpha", 1, false)
	tasks := []domain.Task{plain, skeleton}

	got := NewTaskDistributor().Distribute(tasks, marchWindow(), domain.DistributionFrontload, true)
	due := dueByTitle(tasks, got)

	assert.False(t, due["Zebra"].After(due["Alpha"]))
}

func TestTaskDistributor_SingleDayWindow(t *testing.T) {
	window := BlockWindow{Start: domain.Date(2026, 3, 1), End: domain.Date(2026, 3, 2)}
	tasks := []domain.Task{newTask("A", 1, false), newTask("B", 2, true), newTask("C", 3, false)}

	got := NewTaskDistributor().Distribute(tasks, window, domain.DistributionFrontload, true)

	require.Len(t, got, 3)
	for _, a := range got {
		assert.Equal(t, window.Start, a.DueDate)
	}
}

func TestTaskDistributor_Locks(t *testing.T) {
	stored := domain.Date(2026, 2, 14)
	lockedDated := newTask("Locked dated", 1, false)
	lockedDated.Locked = true
	lockedDated.DueDate = datePtr(stored)
	lockedUndated := newTask("Locked undated", 1, false)
	lockedUndated.Locked = true
	free := newTask("Free", 1, false)
	tasks := []domain.Task{lockedDated, lockedUndated, free}

	t.Run("respected", func(t *testing.T) {
		got := NewTaskDistributor().Distribute(tasks, marchWindow(), domain.DistributionFrontload, true)
		require.Len(t, got, 2)

		byID := map[uuid.UUID]Assignment{}
		for _, a := range got {
			byID[a.TaskID] = a
		}
		assert.Equal(t, stored, byID[lockedDated.ID].DueDate)
		assert.True(t, byID[lockedDated.ID].Locked)
		assert.False(t, byID[lockedDated.ID].Changed())
		assert.NotContains(t, byID, lockedUndated.ID)
		assert.Equal(t, domain.Date(2026, 3, 1), byID[free.ID].DueDate)
	})

	t.Run("ignored", func(t *testing.T) {
		got := NewTaskDistributor().Distribute(tasks, marchWindow(), domain.DistributionFrontload, false)
		require.Len(t, got, 3)
		for _, a := range got {
			assert.False(t, a.Locked)
			assert.False(t, a.DueDate.Before(domain.Date(2026, 3, 1)))
		}
	})
}

func TestTaskDistributor_StaysInWindow(t *testing.T) {
	w := BlockWindow{Start: domain.Date(2026, 3, 1), End: domain.Date(2026, 3, 4)}
	var tasks []domain.Task
	for i := 0; i < 10; i++ {
		tasks = append(tasks, newTask(string(rune('A'+i)), i, i%2 == 0))
	}

	for _, strategy := range []domain.Distribution{domain.DistributionFrontload, domain.DistributionBalanced, domain.DistributionEven} {
		for _, a := range NewTaskDistributor().Distribute(tasks, w, strategy, true) {
			assert.False(t, a.DueDate.Before(w.Start), strategy)
			assert.False(t, a.DueDate.After(w.End), strategy)
		}
	}
}

func TestAssignment_Changed(t *testing.T) {
	d := domain.Date(2026, 3, 1)
	assert.True(t, Assignment{DueDate: d}.Changed())
	assert.True(t, Assignment{DueDate: d, Previous: datePtr(domain.Date(2026, 3, 2))}.Changed())
	assert.False(t, Assignment{DueDate: d, Previous: datePtr(d.Add(9 * time.Hour))}.Changed())
}
