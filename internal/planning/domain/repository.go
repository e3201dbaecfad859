package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TimelineRepository loads and updates the records a recalculation touches.
// Update methods return ErrRecordGone when the row no longer exists.
type TimelineRepository interface {
	// FindTimeline returns the timeline with its event populated.
	FindTimeline(ctx context.Context, id uuid.UUID) (*Timeline, error)
	// FindBlocks returns the blocks ordered by Order.
	FindBlocks(ctx context.Context, timelineID uuid.UUID) ([]Block, error)
	// FindTasks returns the tasks ordered by Order, dependencies populated.
	FindTasks(ctx context.Context, timelineID uuid.UUID) ([]Task, error)
	// ListUpcoming returns timelines whose event date is on or after from.
	ListUpcoming(ctx context.Context, from time.Time) ([]uuid.UUID, error)

	UpdateBlockDates(ctx context.Context, blockID uuid.UUID, start, end time.Time) error
	UpdateTaskDueDate(ctx context.Context, taskID uuid.UUID, due time.Time) error
	UpdateCalibration(ctx context.Context, timelineID uuid.UUID, scaleFactor float64, at time.Time) error
}

// AuditRepository stores audit entries.
type AuditRepository interface {
	Append(ctx context.Context, entry AuditEntry) error
	// Latest returns the newest entry for action, or nil when none exists.
	Latest(ctx context.Context, timelineID uuid.UUID, action string) (*AuditEntry, error)
}

// SummaryCache keeps the latest Summary per timeline. Get returns nil on a
// miss.
type SummaryCache interface {
	Get(ctx context.Context, timelineID uuid.UUID) (*Summary, error)
	Put(ctx context.Context, summary Summary) error
}
