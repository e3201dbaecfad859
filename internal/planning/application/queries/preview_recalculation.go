package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/application/services"
	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/eventline/internal/shared/application"
	"github.com/google/uuid"
)

// PreviewRecalculationQuery computes a recalculation without writing it.
type PreviewRecalculationQuery struct {
	TimelineID uuid.UUID
	Options    domain.Options
	Today      time.Time
}

func (PreviewRecalculationQuery) QueryName() string { return "planning.preview_recalculation" }

// PreviewRecalculationHandler handles the PreviewRecalculationQuery.
type PreviewRecalculationHandler struct {
	loader *services.TimelineLoader
	engine *services.Engine
}

var _ sharedApplication.QueryHandler[PreviewRecalculationQuery, *domain.Result] = (*PreviewRecalculationHandler)(nil)

// NewPreviewRecalculationHandler creates a new PreviewRecalculationHandler.
func NewPreviewRecalculationHandler(timelineRepo domain.TimelineRepository, engine *services.Engine) *PreviewRecalculationHandler {
	if engine == nil {
		engine = services.NewEngine(services.DefaultEngineConfig())
	}
	return &PreviewRecalculationHandler{
		loader: services.NewTimelineLoader(timelineRepo),
		engine: engine,
	}
}

// Handle executes the PreviewRecalculationQuery. The result always has
// Persisted set to false.
func (h *PreviewRecalculationHandler) Handle(ctx context.Context, query PreviewRecalculationQuery) (*domain.Result, error) {
	opts, err := services.ValidateRequest(query.TimelineID, query.Options)
	if err != nil {
		return nil, err
	}
	today := query.Today
	if today.IsZero() {
		today = time.Now()
	}

	in, err := h.loader.Load(ctx, query.TimelineID, opts, today)
	if err != nil {
		return nil, err
	}
	return h.engine.Plan(in).Result(query.TimelineID, opts), nil
}
