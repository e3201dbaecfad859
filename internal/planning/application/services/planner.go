package services

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
)

// PlanInput is everything the engine needs for one run.
type PlanInput struct {
	Timeline domain.Timeline
	Blocks   []domain.Block
	Tasks    []domain.Task
	Options  domain.Options
	Today    time.Time
}

// Plan is the computed schedule. Nothing in it has been persisted.
type Plan struct {
	LeadTime    LeadTime
	Windows     []BlockWindow
	Skipped     []uuid.UUID
	Assignments []Assignment
	Passes      int
	Converged   bool
	Diagnostics []domain.Diagnostic
}

// WindowFor returns the window computed for blockID.
func (p *Plan) WindowFor(blockID uuid.UUID) (BlockWindow, bool) {
	for _, w := range p.Windows {
		if w.BlockID == blockID {
			return w, true
		}
	}
	return BlockWindow{}, false
}

// Engine runs the scheduling, distributing and enforcing phases.
type Engine struct {
	config      EngineConfig
	scheduler   *BlockScheduler
	distributor *TaskDistributor
	enforcer    *DependencyEnforcer
}

// NewEngine creates an engine. Zero config values fall back to defaults.
func NewEngine(config EngineConfig) *Engine {
	config = config.withDefaults()
	return &Engine{
		config:      config,
		scheduler:   NewBlockScheduler(NewBlockResolver(), config.WeekStart),
		distributor: NewTaskDistributor(),
		enforcer:    NewDependencyEnforcer(config.MaxDependencyPasses),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Schedule computes the lead time and the block windows.
func (e *Engine) Schedule(in PlanInput) (LeadTime, BlockSchedule) {
	today := domain.Day(in.Today)
	eventDate := domain.Day(in.Timeline.Event.Date)

	lead := CalculateLeadTime(eventDate, today, e.config.CanonicalHorizonMonths)
	return lead, e.scheduler.Schedule(eventDate, in.Blocks, lead.ScaleFactor, today)
}

// Distribute assigns due dates block by block. Tasks of skipped blocks get
// no assignment.
func (e *Engine) Distribute(windows []BlockWindow, tasks []domain.Task, opts domain.Options) []Assignment {
	byBlock := make(map[uuid.UUID][]domain.Task, len(windows))
	for _, t := range tasks {
		byBlock[t.BlockID] = append(byBlock[t.BlockID], t)
	}

	var out []Assignment
	for _, w := range windows {
		out = append(out, e.distributor.Distribute(byBlock[w.BlockID], w, opts.Distribution, opts.RespectLocks)...)
	}
	return out
}

// Enforce applies dependency ordering over all assignments.
func (e *Engine) Enforce(assignments []Assignment, tasks []domain.Task, opts domain.Options) EnforcementResult {
	return e.enforcer.Enforce(assignments, tasks, opts.RespectLocks)
}

// Plan runs all phases in sequence.
func (e *Engine) Plan(in PlanInput) *Plan {
	lead, schedule := e.Schedule(in)
	assignments := e.Distribute(schedule.Windows, in.Tasks, in.Options)
	enforced := e.Enforce(assignments, in.Tasks, in.Options)

	return &Plan{
		LeadTime:    lead,
		Windows:     schedule.Windows,
		Skipped:     schedule.Skipped,
		Assignments: enforced.Assignments,
		Passes:      enforced.Passes,
		Converged:   enforced.Converged,
		Diagnostics: append(schedule.Diagnostics, EnforcementDiagnostics(enforced, e.config.MaxDependencyPasses)...),
	}
}

// EnforcementDiagnostics reports non-convergence and edges left violated.
func EnforcementDiagnostics(res EnforcementResult, maxPasses int) []domain.Diagnostic {
	var out []domain.Diagnostic
	if !res.Converged {
		out = append(out, domain.NewDiagnostic(
			domain.DiagnosticDependencyUnconverged, uuid.Nil,
			fmt.Sprintf("dependency ordering did not settle after %d passes", maxPasses),
		))
	}
	for _, v := range res.Violations {
		if !v.Pinned {
			continue
		}
		out = append(out, domain.NewDiagnostic(
			domain.DiagnosticPinnedViolation, v.TaskID,
			fmt.Sprintf("locked task is not after dependency %s", v.DependsOn),
		))
	}
	return out
}
