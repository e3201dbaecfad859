package domain

import "github.com/google/uuid"

// BlockDates is a block's window as returned to callers.
type BlockDates struct {
	ID        uuid.UUID `json:"id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
}

// TaskDueDate is a task's due date as returned to callers.
type TaskDueDate struct {
	ID      uuid.UUID `json:"id"`
	DueDate string    `json:"due_date"`
}

// Result is the outcome of a recalculation or a preview. Diagnostics list
// what was skipped or degraded; they never make the run fail.
type Result struct {
	TimelineID     uuid.UUID     `json:"timeline_id"`
	Blocks         []BlockDates  `json:"blocks"`
	Tasks          []TaskDueDate `json:"tasks"`
	ScaleFactor    float64       `json:"scale_factor"`
	LeadTimeMonths int           `json:"lead_time_months"`
	Distribution   Distribution  `json:"distribution"`
	RespectLocks   bool          `json:"respect_locks"`
	Converged      bool          `json:"converged"`
	Passes         int           `json:"passes"`
	Persisted      bool          `json:"persisted"`
	Diagnostics    []Diagnostic  `json:"diagnostics"`
}
