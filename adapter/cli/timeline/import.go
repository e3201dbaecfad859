package timeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/felixgeelhaar/eventline/adapter/cli"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/persistence"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <fixture.yaml>",
	Short: "Create a timeline from a YAML fixture",
	Long: `Create an event, its timeline, blocks and tasks from a YAML fixture.

The fixture format is:

  event:
    name: Wedding
    date: 2026-07-01
  timeline:
    title: Wedding plan
  blocks:
    - key: 6-8m
      title: Six to eight months out
      tasks:
        - ref: venue
          title: Book venue
          weight: 4
        - title: Send save-the-dates
          depends_on: [venue]`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open fixture: %w", err)
		}
		defer f.Close()

		snap, err := persistence.LoadFixture(f)
		if err != nil {
			return err
		}

		app, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}
		if app.Importer == nil {
			return cli.ErrAppNotInitialized
		}
		if err := app.Importer.Import(cmd.Context(), snap); err != nil {
			return fmt.Errorf("failed to import timeline: %w", err)
		}

		if outputJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
				"timeline_id": snap.Timeline.ID,
				"event_id":    snap.Timeline.Event.ID,
				"blocks":      len(snap.Blocks),
				"tasks":       len(snap.Tasks),
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported timeline %s (%d blocks, %d tasks)\n",
			snap.Timeline.ID, len(snap.Blocks), len(snap.Tasks))
		return nil
	},
}
