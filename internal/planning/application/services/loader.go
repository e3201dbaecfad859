package services

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
)

// TimelineLoader gathers the records a run works on.
type TimelineLoader struct {
	repo domain.TimelineRepository
}

func NewTimelineLoader(repo domain.TimelineRepository) *TimelineLoader {
	return &TimelineLoader{repo: repo}
}

// Load fetches the timeline with its event, blocks and tasks. Every failure
// comes back as a *domain.RecalculationError from the loading phase.
func (l *TimelineLoader) Load(ctx context.Context, timelineID uuid.UUID, opts domain.Options, today time.Time) (PlanInput, error) {
	timeline, err := l.repo.FindTimeline(ctx, timelineID)
	if err != nil {
		return PlanInput{}, domain.NewLoadError(fmt.Errorf("load timeline %s: %w", timelineID, err))
	}
	if timeline == nil {
		return PlanInput{}, domain.NewLoadError(fmt.Errorf("%w: %s", domain.ErrTimelineNotFound, timelineID))
	}
	if timeline.Event.Date.IsZero() {
		return PlanInput{}, domain.NewLoadError(fmt.Errorf("%w: timeline %s", domain.ErrEventNotFound, timelineID))
	}

	blocks, err := l.repo.FindBlocks(ctx, timelineID)
	if err != nil {
		return PlanInput{}, domain.NewLoadError(fmt.Errorf("load blocks: %w", err))
	}
	tasks, err := l.repo.FindTasks(ctx, timelineID)
	if err != nil {
		return PlanInput{}, domain.NewLoadError(fmt.Errorf("load tasks: %w", err))
	}

	return PlanInput{
		Timeline: *timeline,
		Blocks:   blocks,
		Tasks:    tasks,
		Options:  opts,
		Today:    domain.Day(today),
	}, nil
}

// ValidateRequest checks the caller's timeline ID and options before any
// loading happens.
func ValidateRequest(timelineID uuid.UUID, opts domain.Options) (domain.Options, error) {
	if timelineID == uuid.Nil {
		return opts, domain.NewInvalidInputError(domain.ErrInvalidTimelineID)
	}
	dist, err := domain.ParseDistribution(string(opts.Distribution))
	if err != nil {
		return opts, domain.NewInvalidInputError(err)
	}
	opts.Distribution = dist
	return opts, nil
}

// Result renders the plan for callers.
func (p *Plan) Result(timelineID uuid.UUID, opts domain.Options) *domain.Result {
	res := &domain.Result{
		TimelineID:     timelineID,
		Blocks:         make([]domain.BlockDates, 0, len(p.Windows)),
		Tasks:          make([]domain.TaskDueDate, 0, len(p.Assignments)),
		ScaleFactor:    p.LeadTime.ScaleFactor,
		LeadTimeMonths: p.LeadTime.Months,
		Distribution:   opts.Distribution,
		RespectLocks:   opts.RespectLocks,
		Converged:      p.Converged,
		Passes:         p.Passes,
		Diagnostics:    append([]domain.Diagnostic(nil), p.Diagnostics...),
	}
	for _, w := range p.Windows {
		res.Blocks = append(res.Blocks, domain.BlockDates{
			ID:        w.BlockID,
			StartDate: domain.FormatDate(w.Start),
			EndDate:   domain.FormatDate(w.End),
		})
	}
	for _, a := range p.Assignments {
		res.Tasks = append(res.Tasks, domain.TaskDueDate{ID: a.TaskID, DueDate: domain.FormatDate(a.DueDate)})
	}
	return res
}
