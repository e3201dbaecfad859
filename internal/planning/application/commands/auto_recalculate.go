package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/eventline/internal/shared/application"
	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/google/uuid"
)

// AutoRecalculateCommand recalculates every timeline whose event has not
// happened yet.
type AutoRecalculateCommand struct {
	Today time.Time
}

func (AutoRecalculateCommand) CommandName() string { return "planning.auto_recalculate" }

// AutoRecalculateResult contains the sweep outcome.
type AutoRecalculateResult struct {
	Recalculated int         `json:"recalculated"`
	Degraded     int         `json:"degraded"`
	Failed       []uuid.UUID `json:"failed"`
}

// AutoRecalculateHandler handles the AutoRecalculateCommand.
type AutoRecalculateHandler struct {
	timelineRepo domain.TimelineRepository
	recalculate  *RecalculateTimelineHandler
	logger       *slog.Logger
	metrics      observability.Metrics
}

var _ sharedApplication.CommandHandler[AutoRecalculateCommand, *AutoRecalculateResult] = (*AutoRecalculateHandler)(nil)

// NewAutoRecalculateHandler creates a new AutoRecalculateHandler.
func NewAutoRecalculateHandler(
	timelineRepo domain.TimelineRepository,
	recalculate *RecalculateTimelineHandler,
	logger *slog.Logger,
	metrics observability.Metrics,
) *AutoRecalculateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &AutoRecalculateHandler{
		timelineRepo: timelineRepo,
		recalculate:  recalculate,
		logger:       logger.With("component", "auto_recalculate"),
		metrics:      metrics,
	}
}

// Handle executes the AutoRecalculateCommand with locks respected and
// frontload distribution. A failing timeline is logged and the sweep moves
// on; only listing the timelines can fail the command.
func (h *AutoRecalculateHandler) Handle(ctx context.Context, cmd AutoRecalculateCommand) (*AutoRecalculateResult, error) {
	today := cmd.Today
	if today.IsZero() {
		today = time.Now()
	}
	today = domain.Day(today)

	ids, err := h.timelineRepo.ListUpcoming(ctx, today)
	if err != nil {
		return nil, err
	}

	result := &AutoRecalculateResult{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, err := h.recalculate.Handle(ctx, RecalculateTimelineCommand{
			TimelineID: id,
			Options:    domain.DefaultOptions(),
			Today:      today,
			Actor:      "auto-recalculate",
		})
		if err != nil {
			h.logger.WarnContext(ctx, "timeline recalculation failed", "timeline_id", id, "error", err)
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Recalculated++
		if !res.Persisted || !res.Converged {
			result.Degraded++
		}
	}

	h.metrics.Counter(observability.MetricSweepTimelines, int64(result.Recalculated))
	h.metrics.Counter(observability.MetricSweepFailures, int64(len(result.Failed)))
	h.logger.InfoContext(ctx, "auto recalculation finished",
		"timelines", len(ids),
		"recalculated", result.Recalculated,
		"degraded", result.Degraded,
		"failed", len(result.Failed),
	)
	return result, nil
}
