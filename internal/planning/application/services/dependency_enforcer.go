package services

import (
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
)

// Violation is a dependency edge that still does not hold after enforcement.
type Violation struct {
	TaskID    uuid.UUID
	DependsOn uuid.UUID
	Pinned    bool
}

// EnforcementResult is the outcome of dependency enforcement.
type EnforcementResult struct {
	Assignments []Assignment
	Passes      int
	Converged   bool
	Violations  []Violation
}

// DependencyEnforcer pushes dependent tasks after their dependencies.
type DependencyEnforcer struct {
	maxPasses int
}

// NewDependencyEnforcer creates an enforcer that gives up after maxPasses.
func NewDependencyEnforcer(maxPasses int) *DependencyEnforcer {
	if maxPasses <= 0 {
		maxPasses = DefaultEngineConfig().MaxDependencyPasses
	}
	return &DependencyEnforcer{maxPasses: maxPasses}
}

// Enforce iterates to a fixed point where every assigned task with
// dependencies is due at least one day after the latest of them. Locked
// assignments are pinned when respectLocks is set and are never moved.
// Tasks without an assignment take part only through their stored due date.
// Cycles cannot converge; the result then carries Converged=false and the
// state reached at the pass limit.
func (e *DependencyEnforcer) Enforce(assignments []Assignment, tasks []domain.Task, respectLocks bool) EnforcementResult {
	out := make([]Assignment, len(assignments))
	copy(out, assignments)

	index := make(map[uuid.UUID]int, len(out))
	for i, a := range out {
		index[a.TaskID] = i
	}

	deps := make(map[uuid.UUID][]uuid.UUID)
	stored := make(map[uuid.UUID]time.Time)
	for _, t := range tasks {
		if len(t.DependsOn) > 0 {
			deps[t.ID] = t.DependsOn
		}
		if t.DueDate != nil {
			stored[t.ID] = domain.Day(*t.DueDate)
		}
	}

	dueOf := func(id uuid.UUID) (time.Time, bool) {
		if i, ok := index[id]; ok {
			return out[i].DueDate, true
		}
		d, ok := stored[id]
		return d, ok
	}
	minAllowed := func(id uuid.UUID) (time.Time, bool) {
		var latest time.Time
		found := false
		for _, dep := range deps[id] {
			if d, ok := dueOf(dep); ok && (!found || d.After(latest)) {
				latest, found = d, true
			}
		}
		return domain.AddDays(latest, 1), found
	}

	res := EnforcementResult{}
	for res.Passes < e.maxPasses {
		res.Passes++
		changed := false
		for i := range out {
			if respectLocks && out[i].Locked {
				continue
			}
			floor, ok := minAllowed(out[i].TaskID)
			if ok && out[i].DueDate.Before(floor) {
				out[i].DueDate = floor
				changed = true
			}
		}
		if !changed {
			res.Converged = true
			break
		}
	}

	for _, a := range out {
		for _, dep := range deps[a.TaskID] {
			if d, ok := dueOf(dep); ok && !a.DueDate.After(d) {
				res.Violations = append(res.Violations, Violation{
					TaskID:    a.TaskID,
					DependsOn: dep,
					Pinned:    respectLocks && a.Locked,
				})
			}
		}
	}

	res.Assignments = out
	return res
}
