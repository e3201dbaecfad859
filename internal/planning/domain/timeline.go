package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is the dated occasion a timeline plans towards. It is owned
// elsewhere and only read here.
type Event struct {
	ID   uuid.UUID
	Name string
	Date time.Time
}

// Timeline is the plan for one event.
type Timeline struct {
	ID                 uuid.UUID
	EventID            uuid.UUID
	Title              string
	ScaleFactor        float64
	LastRecalculatedAt *time.Time
	Event              Event
}

// Block is a phase of the timeline identified by a symbolic key such as
// "6-8m" or "2w".
type Block struct {
	ID         uuid.UUID
	TimelineID uuid.UUID
	Key        string
	Title      string
	Order      int
	StartDate  *time.Time
	EndDate    *time.Time
}

// Task is a unit of work inside a block.
type Task struct {
	ID         uuid.UUID
	TimelineID uuid.UUID
	BlockID    uuid.UUID
	Title      string
	Weight     int
	IsSkeleton bool
	Locked     bool
	Done       bool
	DoneAt     *time.Time
	DueDate    *time.Time
	DependsOn  []uuid.UUID
	Order      int
}

// HasDueDate reports whether the task carries a due date.
func (t Task) HasDueDate() bool {
	return t.DueDate != nil
}

// AuditEntry is an append-only record of an operation on a timeline.
type AuditEntry struct {
	ID         uuid.UUID
	TimelineID uuid.UUID
	Action     string
	Details    []byte
	CreatedAt  time.Time
}

// AuditActionRecalculate marks entries written by a recalculation.
const AuditActionRecalculate = "timeline.recalculate"
