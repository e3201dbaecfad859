package domain

import (
	shared "github.com/felixgeelhaar/eventline/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Timeline"

	RoutingKeyRecalculated = "planning.timeline.recalculated"
)

// TimelineRecalculated is emitted once a recalculation has been persisted.
type TimelineRecalculated struct {
	shared.BaseEvent
	TimelineID     uuid.UUID    `json:"timeline_id"`
	PlannedEventID uuid.UUID    `json:"event_id"`
	Distribution   Distribution `json:"distribution"`
	RespectLocks   bool         `json:"respect_locks"`
	ScaleFactor    float64      `json:"scale_factor"`
	LeadTimeMonths int          `json:"lead_time_months"`
	BlocksUpdated  int          `json:"blocks_updated"`
	TasksUpdated   int          `json:"tasks_updated"`
	Converged      bool         `json:"converged"`
}

// NewTimelineRecalculated creates the event from a persisted summary.
func NewTimelineRecalculated(eventID uuid.UUID, s Summary) *TimelineRecalculated {
	return &TimelineRecalculated{
		BaseEvent:      shared.NewBaseEvent(s.TimelineID, AggregateType, RoutingKeyRecalculated),
		TimelineID:     s.TimelineID,
		PlannedEventID: eventID,
		Distribution:   s.Distribution,
		RespectLocks:   s.RespectLocks,
		ScaleFactor:    s.ScaleFactor,
		LeadTimeMonths: s.LeadTimeMonths,
		BlocksUpdated:  s.Blocks,
		TasksUpdated:   s.Tasks,
		Converged:      s.Converged,
	}
}
