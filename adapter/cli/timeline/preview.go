package timeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/eventline/adapter/cli"
	internalApp "github.com/felixgeelhaar/eventline/internal/app"
	"github.com/felixgeelhaar/eventline/internal/planning/application/queries"
	"github.com/felixgeelhaar/eventline/internal/planning/application/services"
	"github.com/felixgeelhaar/eventline/internal/planning/infrastructure/persistence"
	"github.com/felixgeelhaar/eventline/pkg/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var fixturePath string

var previewCmd = &cobra.Command{
	Use:   "preview [timeline-id]",
	Short: "Show what a recalculation would produce without saving it",
	Long: `Run a recalculation and print the result without writing anything.

With --fixture the timeline is read from a YAML file instead of the
database, so no database is needed.

Examples:
  eventline timeline preview 7f9c... --distribution balanced
  eventline timeline preview --fixture wedding.yaml --today 2026-01-02`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, day, err := runOptions()
		if err != nil {
			return err
		}

		var (
			handler *queries.PreviewRecalculationHandler
			id      uuid.UUID
		)
		if fixturePath != "" {
			handler, id, err = fixtureHandler(cmd.Context(), fixturePath)
			if err != nil {
				return err
			}
		} else {
			if len(args) == 0 {
				return errors.New("a timeline id or --fixture is required")
			}
			if id, err = parseTimelineID(args[0]); err != nil {
				return err
			}
			app, err := cli.RequireApp(cmd)
			if err != nil {
				return err
			}
			if app.PreviewRecalculationHandler == nil {
				return cli.ErrAppNotInitialized
			}
			handler = app.PreviewRecalculationHandler
		}

		res, err := handler.Handle(cmd.Context(), queries.PreviewRecalculationQuery{
			TimelineID: id,
			Options:    opts,
			Today:      day,
		})
		if err != nil {
			return fmt.Errorf("failed to preview timeline: %w", err)
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

// fixtureHandler loads a YAML timeline into memory and returns a preview
// handler over it.
func fixtureHandler(ctx context.Context, path string) (*queries.PreviewRecalculationHandler, uuid.UUID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()

	snap, err := persistence.LoadFixture(f)
	if err != nil {
		return nil, uuid.Nil, err
	}
	store := persistence.NewMemoryStore()
	if err := store.Import(ctx, snap); err != nil {
		return nil, uuid.Nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, uuid.Nil, err
	}
	if configFile := cli.ConfigFile(); configFile != "" {
		if err := cfg.ApplyFile(configFile); err != nil {
			return nil, uuid.Nil, err
		}
	}

	engine := services.NewEngine(internalApp.EngineConfig(cfg))
	return queries.NewPreviewRecalculationHandler(store, engine), snap.Timeline.ID, nil
}

func init() {
	addRunFlags(previewCmd)
	previewCmd.Flags().StringVar(&fixturePath, "fixture", "", "read the timeline from a YAML fixture instead of the database")
}
