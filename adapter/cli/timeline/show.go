package timeline

import (
	"fmt"

	"github.com/felixgeelhaar/eventline/adapter/cli"
	"github.com/felixgeelhaar/eventline/internal/planning/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <timeline-id>",
	Short: "Show the last saved recalculation of a timeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTimelineID(args[0])
		if err != nil {
			return err
		}

		app, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		if app.GetLastRecalculationHandler == nil {
			return cli.ErrAppNotInitialized
		}

		summary, err := app.GetLastRecalculationHandler.Handle(cmd.Context(), queries.GetLastRecalculationQuery{TimelineID: id})
		if err != nil {
			return fmt.Errorf("failed to load last recalculation: %w", err)
		}
		return printSummary(cmd.OutOrStdout(), summary)
	},
}
