package mcp

import (
	"context"

	"github.com/felixgeelhaar/eventline/adapter/cli"
	"github.com/felixgeelhaar/eventline/internal/planning/application/commands"
	"github.com/felixgeelhaar/eventline/internal/planning/application/queries"
	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type timelineRunInput struct {
	TimelineID   string `json:"timeline_id" jsonschema:"required"`
	RespectLocks *bool  `json:"respect_locks,omitempty"`
	Distribution string `json:"distribution,omitempty"`
	Today        string `json:"today,omitempty"`
}

type timelineIDInput struct {
	TimelineID string `json:"timeline_id" jsonschema:"required"`
}

type sweepInput struct {
	Today string `json:"today,omitempty"`
}

// timelineTools holds the tool handlers so they can be exercised without a
// transport.
type timelineTools struct {
	app *cli.App
}

func registerTimelineTools(srv *mcp.Server, deps ToolDependencies) error {
	tools := &timelineTools{app: deps.App}

	srv.Tool("timeline.recalculate").
		Description("Recalculate a timeline against today's date and save the new block and task dates. distribution is frontload (default), balanced or even.").
		Handler(tools.recalculate)

	srv.Tool("timeline.preview").
		Description("Compute what timeline.recalculate would produce without saving anything").
		Handler(tools.preview)

	srv.Tool("timeline.last").
		Description("Show the summary of the timeline's last saved recalculation").
		Handler(tools.last)

	srv.Tool("timeline.sweep").
		Description("Recalculate every timeline whose event is still ahead").
		Handler(tools.sweep)

	return nil
}

func (t *timelineTools) recalculate(ctx context.Context, input timelineRunInput) (*domain.Result, error) {
	if t.app == nil || t.app.RecalculateTimelineHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.TimelineID)
	if err != nil {
		return nil, err
	}
	today, err := parseDate(input.Today, domain.Day(timeNow()))
	if err != nil {
		return nil, err
	}

	return t.app.RecalculateTimelineHandler.Handle(ctx, commands.RecalculateTimelineCommand{
		TimelineID: id,
		Options:    options(input.RespectLocks, input.Distribution),
		Today:      today,
		Actor:      "mcp",
	})
}

func (t *timelineTools) preview(ctx context.Context, input timelineRunInput) (*domain.Result, error) {
	if t.app == nil || t.app.PreviewRecalculationHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.TimelineID)
	if err != nil {
		return nil, err
	}
	today, err := parseDate(input.Today, domain.Day(timeNow()))
	if err != nil {
		return nil, err
	}

	return t.app.PreviewRecalculationHandler.Handle(ctx, queries.PreviewRecalculationQuery{
		TimelineID: id,
		Options:    options(input.RespectLocks, input.Distribution),
		Today:      today,
	})
}

func (t *timelineTools) last(ctx context.Context, input timelineIDInput) (*domain.Summary, error) {
	if t.app == nil || t.app.GetLastRecalculationHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.TimelineID)
	if err != nil {
		return nil, err
	}
	return t.app.GetLastRecalculationHandler.Handle(ctx, queries.GetLastRecalculationQuery{TimelineID: id})
}

func (t *timelineTools) sweep(ctx context.Context, input sweepInput) (*commands.AutoRecalculateResult, error) {
	if t.app == nil || t.app.AutoRecalculateHandler == nil {
		return nil, errNoDatabase
	}
	today, err := parseDate(input.Today, domain.Day(timeNow()))
	if err != nil {
		return nil, err
	}
	return t.app.AutoRecalculateHandler.Handle(ctx, commands.AutoRecalculateCommand{Today: today})
}
