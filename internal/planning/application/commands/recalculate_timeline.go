package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/application/services"
	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	sharedApplication "github.com/felixgeelhaar/eventline/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/eventline/internal/shared/domain"
	"github.com/felixgeelhaar/eventline/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/google/uuid"
)

// RecalculateTimelineCommand asks for a timeline's dates to be recomputed
// and written back.
type RecalculateTimelineCommand struct {
	TimelineID uuid.UUID
	Options    domain.Options
	// Today anchors the run. Zero means the current local date.
	Today time.Time
	Actor string
}

func (RecalculateTimelineCommand) CommandName() string { return "planning.recalculate_timeline" }

// RecalculateTimelineHandler handles the RecalculateTimelineCommand.
type RecalculateTimelineHandler struct {
	timelineRepo domain.TimelineRepository
	auditRepo    domain.AuditRepository
	outboxRepo   outbox.Repository
	uow          sharedApplication.UnitOfWork
	engine       *services.Engine
	loader       *services.TimelineLoader
	cache        domain.SummaryCache
	logger       *slog.Logger
	metrics      observability.Metrics
	now          func() time.Time
}

var _ sharedApplication.CommandHandler[RecalculateTimelineCommand, *domain.Result] = (*RecalculateTimelineHandler)(nil)

// NewRecalculateTimelineHandler creates a new RecalculateTimelineHandler.
// cache may be nil.
func NewRecalculateTimelineHandler(
	timelineRepo domain.TimelineRepository,
	auditRepo domain.AuditRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	engine *services.Engine,
	cache domain.SummaryCache,
	logger *slog.Logger,
	metrics observability.Metrics,
) *RecalculateTimelineHandler {
	if engine == nil {
		engine = services.NewEngine(services.DefaultEngineConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &RecalculateTimelineHandler{
		timelineRepo: timelineRepo,
		auditRepo:    auditRepo,
		outboxRepo:   outboxRepo,
		uow:          uow,
		engine:       engine,
		loader:       services.NewTimelineLoader(timelineRepo),
		cache:        cache,
		logger:       logger.With("component", "recalculator"),
		metrics:      metrics,
		now:          time.Now,
	}
}

// Handle executes the RecalculateTimelineCommand. Only invalid input and
// loading failures return an error. Anything that goes wrong later is
// reported through the result's diagnostics.
func (h *RecalculateTimelineHandler) Handle(ctx context.Context, cmd RecalculateTimelineCommand) (*domain.Result, error) {
	timer := observability.StartTimer("eventline.recalculations").
		WithLogger(h.logger).
		WithMetrics(h.metrics)

	result, err := h.run(ctx, cmd)
	timer.StopWithError(ctx, err)
	return result, err
}

func (h *RecalculateTimelineHandler) run(ctx context.Context, cmd RecalculateTimelineCommand) (*domain.Result, error) {
	logger := h.logger.With("timeline_id", cmd.TimelineID)

	opts, err := services.ValidateRequest(cmd.TimelineID, cmd.Options)
	if err != nil {
		return nil, err
	}
	today := cmd.Today
	if today.IsZero() {
		today = h.now()
	}
	today = domain.Day(today)

	phase := func(p domain.Phase) {
		logger.DebugContext(ctx, "recalculation phase", "phase", p)
	}

	phase(domain.PhaseLoading)
	in, err := h.loader.Load(ctx, cmd.TimelineID, opts, today)
	if err != nil {
		phase(domain.PhaseFailed)
		return nil, err
	}

	phase(domain.PhaseScheduling)
	lead, schedule := h.engine.Schedule(in)
	for _, id := range schedule.Skipped {
		logger.WarnContext(ctx, "block skipped", "block_id", id)
	}

	phase(domain.PhaseDistributing)
	assignments := h.engine.Distribute(schedule.Windows, in.Tasks, opts)

	phase(domain.PhaseEnforcing)
	enforced := h.engine.Enforce(assignments, in.Tasks, opts)
	if !enforced.Converged {
		logger.WarnContext(ctx, "dependency ordering did not converge", "passes", enforced.Passes)
	}

	plan := &services.Plan{
		LeadTime:    lead,
		Windows:     schedule.Windows,
		Skipped:     schedule.Skipped,
		Assignments: enforced.Assignments,
		Passes:      enforced.Passes,
		Converged:   enforced.Converged,
		Diagnostics: append(schedule.Diagnostics, services.EnforcementDiagnostics(enforced, h.engine.Config().MaxDependencyPasses)...),
	}
	result := plan.Result(cmd.TimelineID, opts)

	phase(domain.PhasePersisting)
	recalculatedAt := h.now().UTC()
	summary := domain.Summary{
		TimelineID:     cmd.TimelineID,
		Distribution:   opts.Distribution,
		RespectLocks:   opts.RespectLocks,
		LeadTimeMonths: lead.Months,
		ScaleFactor:    lead.ScaleFactor,
		Today:          domain.FormatDate(today),
		RecalculatedAt: recalculatedAt,
		Blocks:         len(plan.Windows),
		Tasks:          len(plan.Assignments),
		SkippedBlocks:  len(plan.Skipped),
		Converged:      plan.Converged,
	}

	diags, err := h.persist(ctx, cmd, in, plan, summary)
	result.Diagnostics = append(result.Diagnostics, diags...)
	if err != nil {
		logger.WarnContext(ctx, "recalculation not persisted", "error", err)
		result.Diagnostics = append(result.Diagnostics, domain.NewDiagnostic(
			domain.DiagnosticPersistenceFailed, cmd.TimelineID, err.Error(),
		))
	} else {
		result.Persisted = true
	}

	summary.Persisted = result.Persisted
	summary.Diagnostics = len(result.Diagnostics)
	if result.Persisted && h.cache != nil {
		if err := h.cache.Put(ctx, summary); err != nil {
			logger.WarnContext(ctx, "failed to cache recalculation summary", "error", err)
		}
	}

	h.metrics.Counter(observability.MetricBlocksSkipped, int64(len(plan.Skipped)))
	if !plan.Converged {
		h.metrics.Counter(observability.MetricDependenciesUnconverged, 1)
	}

	phase(domain.PhaseDone)
	logger.InfoContext(ctx, "timeline recalculated",
		"scale_factor", lead.ScaleFactor,
		"lead_time_months", lead.Months,
		"blocks", len(result.Blocks),
		"tasks", len(result.Tasks),
		"diagnostics", len(result.Diagnostics),
		"persisted", result.Persisted,
	)
	return result, nil
}

// persist writes the plan, the audit entry and the outbox message in one
// unit of work. Rows that disappeared since loading become diagnostics;
// any other failure rolls everything back.
func (h *RecalculateTimelineHandler) persist(ctx context.Context, cmd RecalculateTimelineCommand, in services.PlanInput, plan *services.Plan, summary domain.Summary) ([]domain.Diagnostic, error) {
	var diags []domain.Diagnostic

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		for _, w := range plan.Windows {
			err := h.timelineRepo.UpdateBlockDates(txCtx, w.BlockID, w.Start, w.End)
			if errors.Is(err, domain.ErrRecordGone) {
				diags = append(diags, domain.NewDiagnostic(domain.DiagnosticBlockNotUpdated, w.BlockID, "block no longer exists"))
				continue
			}
			if err != nil {
				return fmt.Errorf("update block %s: %w", w.BlockID, err)
			}
		}

		tasksUpdated := 0
		for _, a := range plan.Assignments {
			if a.Locked || !a.Changed() {
				continue
			}
			err := h.timelineRepo.UpdateTaskDueDate(txCtx, a.TaskID, a.DueDate)
			if errors.Is(err, domain.ErrRecordGone) {
				diags = append(diags, domain.NewDiagnostic(domain.DiagnosticTaskNotUpdated, a.TaskID, "task no longer exists"))
				continue
			}
			if err != nil {
				return fmt.Errorf("update task %s: %w", a.TaskID, err)
			}
			tasksUpdated++
		}

		if err := h.timelineRepo.UpdateCalibration(txCtx, cmd.TimelineID, summary.ScaleFactor, summary.RecalculatedAt); err != nil {
			return fmt.Errorf("update timeline: %w", err)
		}

		audited := summary
		audited.Persisted = true
		audited.Diagnostics = len(plan.Diagnostics) + len(diags)
		details, err := json.Marshal(audited)
		if err != nil {
			return err
		}
		if err := h.auditRepo.Append(txCtx, domain.AuditEntry{
			ID:         uuid.New(),
			TimelineID: cmd.TimelineID,
			Action:     domain.AuditActionRecalculate,
			Details:    details,
			CreatedAt:  summary.RecalculatedAt,
		}); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}

		event := domain.NewTimelineRecalculated(in.Timeline.Event.ID, audited)
		event.TasksUpdated = tasksUpdated
		sharedApplication.ApplyEventMetadata(
			[]sharedDomain.DomainEvent{event},
			sharedApplication.NewEventMetadata(observability.CorrelationUUID(ctx), cmd.Actor),
		)
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		return h.outboxRepo.Save(txCtx, msg)
	})
	return diags, err
}
