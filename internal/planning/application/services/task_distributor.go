package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
)

// skeletonPull compresses skeleton offsets under frontload.
const skeletonPull = 0.7

// Assignment is a task's proposed due date.
type Assignment struct {
	TaskID   uuid.UUID
	BlockID  uuid.UUID
	DueDate  time.Time
	Previous *time.Time
	Locked   bool
}

// Changed reports whether the due date differs from the stored one.
func (a Assignment) Changed() bool {
	return a.Previous == nil || !domain.Day(*a.Previous).Equal(a.DueDate)
}

// TaskDistributor spreads a block's tasks over its window.
type TaskDistributor struct{}

func NewTaskDistributor() *TaskDistributor {
	return &TaskDistributor{}
}

// Distribute assigns due dates to tasks inside window. With respectLocks,
// locked tasks keep their stored date and are only reported when they have
// one. The rest are ordered by strategy and placed at floor(stride*i) days
// from the window start, where stride is the window length divided by the
// number of tasks.
func (d *TaskDistributor) Distribute(tasks []domain.Task, window BlockWindow, strategy domain.Distribution, respectLocks bool) []Assignment {
	var (
		out      []Assignment
		unlocked []domain.Task
	)
	for _, t := range tasks {
		if respectLocks && t.Locked {
			if t.HasDueDate() {
				out = append(out, Assignment{
					TaskID:   t.ID,
					BlockID:  t.BlockID,
					DueDate:  domain.Day(*t.DueDate),
					Previous: t.DueDate,
					Locked:   true,
				})
			}
			continue
		}
		unlocked = append(unlocked, t)
	}
	if len(unlocked) == 0 {
		return out
	}

	sortTasks(unlocked, strategy)

	totalDays := window.Days()
	if totalDays <= 1 {
		for _, t := range unlocked {
			out = append(out, assignment(t, window.Start))
		}
		return out
	}

	stride := float64(totalDays) / float64(len(unlocked))
	for i, t := range unlocked {
		pos := stride * float64(i)
		if strategy == domain.DistributionFrontload && t.IsSkeleton {
			pos *= skeletonPull
		}
		due := domain.AddDays(window.Start, int(math.Floor(pos)))
		if due.After(window.End) {
			due = window.End
		}
		out = append(out, assignment(t, due))
	}
	return out
}

func assignment(t domain.Task, due time.Time) Assignment {
	return Assignment{TaskID: t.ID, BlockID: t.BlockID, DueDate: due, Previous: t.DueDate}
}

// sortTasks orders tasks for placement. Frontload and balanced put skeleton
// tasks first, then heavier tasks, then by title. Even sorts by title only.
// Order and ID break remaining ties so the output is deterministic.
func sortTasks(tasks []domain.Task, strategy domain.Distribution) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if strategy != domain.DistributionEven {
			if a.IsSkeleton != b.IsSkeleton {
				return a.IsSkeleton
			}
			if a.Weight != b.Weight {
				return a.Weight > b.Weight
			}
		}
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c < 0
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID.String() < b.ID.String()
	})
}
