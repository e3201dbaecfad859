package timeline

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/eventline/adapter/cli"
	"github.com/felixgeelhaar/eventline/internal/planning/application/commands"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Recalculate every timeline whose event is still ahead",
	Long: `Recalculate all timelines of upcoming events with the default options.
The worker runs the same sweep on its cron schedule.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseToday()
		if err != nil {
			return err
		}

		app, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		if app.AutoRecalculateHandler == nil {
			return cli.ErrAppNotInitialized
		}

		res, err := app.AutoRecalculateHandler.Handle(cmd.Context(), commands.AutoRecalculateCommand{Today: day})
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}

		if outputJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recalculated %d timelines (%d degraded, %d failed)\n",
			res.Recalculated, res.Degraded, len(res.Failed))
		for _, id := range res.Failed {
			fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", id)
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&today, "today", "", "plan as of this date (YYYY-MM-DD), defaults to the current date")
}
