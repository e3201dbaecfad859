package timeline

import (
	"fmt"

	"github.com/felixgeelhaar/eventline/adapter/cli"
	"github.com/felixgeelhaar/eventline/internal/planning/application/commands"
	"github.com/spf13/cobra"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc <timeline-id>",
	Short: "Recalculate a timeline and save the new dates",
	Long: `Rescale every block of the timeline to the time left before the event,
spread the tasks across their block and save the new dates.

Examples:
  eventline timeline recalc 7f9c...                       # Front-load, keep locks
  eventline timeline recalc 7f9c... --distribution even   # Evenly spaced tasks
  eventline timeline recalc 7f9c... --respect-locks=false # Move locked tasks too
  eventline timeline recalc 7f9c... --today 2026-01-02    # Plan as of a given day`,
	Aliases: []string{"recalculate"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTimelineID(args[0])
		if err != nil {
			return err
		}
		opts, day, err := runOptions()
		if err != nil {
			return err
		}

		app, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		if app.RecalculateTimelineHandler == nil {
			return cli.ErrAppNotInitialized
		}

		res, err := app.RecalculateTimelineHandler.Handle(cmd.Context(), commands.RecalculateTimelineCommand{
			TimelineID: id,
			Options:    opts,
			Today:      day,
			Actor:      "cli",
		})
		if err != nil {
			return fmt.Errorf("failed to recalculate timeline: %w", err)
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

func init() {
	addRunFlags(recalcCmd)
}
