package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/eventline/internal/shared/application"
	"github.com/google/uuid"
)

// GetLastRecalculationQuery asks for a timeline's most recent run.
type GetLastRecalculationQuery struct {
	TimelineID uuid.UUID
}

func (GetLastRecalculationQuery) QueryName() string { return "planning.get_last_recalculation" }

// GetLastRecalculationHandler handles the GetLastRecalculationQuery.
type GetLastRecalculationHandler struct {
	auditRepo domain.AuditRepository
	cache     domain.SummaryCache
	logger    *slog.Logger
}

var _ sharedApplication.QueryHandler[GetLastRecalculationQuery, *domain.Summary] = (*GetLastRecalculationHandler)(nil)

// NewGetLastRecalculationHandler creates a new GetLastRecalculationHandler.
// cache may be nil.
func NewGetLastRecalculationHandler(auditRepo domain.AuditRepository, cache domain.SummaryCache, logger *slog.Logger) *GetLastRecalculationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetLastRecalculationHandler{auditRepo: auditRepo, cache: cache, logger: logger}
}

// Handle executes the GetLastRecalculationQuery. The cache is consulted
// first and the newest audit entry is the fallback; cache errors only cost
// the fallback. ErrNoRecalculation is returned when neither has a record.
func (h *GetLastRecalculationHandler) Handle(ctx context.Context, query GetLastRecalculationQuery) (*domain.Summary, error) {
	if query.TimelineID == uuid.Nil {
		return nil, domain.NewInvalidInputError(domain.ErrInvalidTimelineID)
	}

	if h.cache != nil {
		s, err := h.cache.Get(ctx, query.TimelineID)
		if err != nil {
			h.logger.WarnContext(ctx, "summary cache read failed", "timeline_id", query.TimelineID, "error", err)
		} else if s != nil {
			return s, nil
		}
	}

	entry, err := h.auditRepo.Latest(ctx, query.TimelineID, domain.AuditActionRecalculate)
	if err != nil {
		return nil, fmt.Errorf("read audit trail: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoRecalculation, query.TimelineID)
	}

	var s domain.Summary
	if err := json.Unmarshal(entry.Details, &s); err != nil {
		return nil, fmt.Errorf("decode audit entry %s: %w", entry.ID, err)
	}
	if s.TimelineID == uuid.Nil {
		s.TimelineID = query.TimelineID
	}

	if h.cache != nil {
		if err := h.cache.Put(ctx, s); err != nil {
			h.logger.WarnContext(ctx, "summary cache write failed", "timeline_id", query.TimelineID, "error", err)
		}
	}
	return &s, nil
}
