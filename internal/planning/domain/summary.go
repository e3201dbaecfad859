package domain

import (
	"time"

	"github.com/google/uuid"
)

// Summary describes a finished recalculation. It is written as the audit
// entry details and cached as the timeline's latest run.
type Summary struct {
	TimelineID     uuid.UUID    `json:"timeline_id"`
	Distribution   Distribution `json:"distribution"`
	RespectLocks   bool         `json:"respect_locks"`
	LeadTimeMonths int          `json:"lead_time_months"`
	ScaleFactor    float64      `json:"scale_factor"`
	Today          string       `json:"today"`
	RecalculatedAt time.Time    `json:"recalculated_at"`
	Blocks         int          `json:"blocks"`
	Tasks          int          `json:"tasks"`
	SkippedBlocks  int          `json:"skipped_blocks"`
	Diagnostics    int          `json:"diagnostics"`
	Converged      bool         `json:"converged"`
	Persisted      bool         `json:"persisted"`
}
