// Package serve runs the HTTP API.
package serve

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/eventline/adapter/api"
	"github.com/felixgeelhaar/eventline/adapter/cli"
	"github.com/spf13/cobra"
)

var (
	addr            string
	shutdownTimeout time.Duration
)

// Cmd starts the HTTP API and blocks until the command context is canceled.
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timeline recalculation HTTP API",
	Long: `Serve the HTTP API:

  POST /api/v1/timelines/:id/recalculate
  POST /api/v1/timelines/:id/preview
  GET  /api/v1/timelines/:id/recalculations/last
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp(cmd)
		if err != nil {
			return err
		}

		cfg := api.DefaultServerConfig()
		if app.Config != nil && app.Config.HTTPAddr != "" {
			cfg.Addr = app.Config.HTTPAddr
		}
		if addr != "" {
			cfg.Addr = addr
		}

		handler := api.NewTimelineHandler(
			app.RecalculateTimelineHandler,
			app.PreviewRecalculationHandler,
			app.GetLastRecalculationHandler,
		)
		server := api.NewServer(cfg, handler, app.Health, cli.Logger())

		// Without a separate worker the API drains its own outbox.
		if app.Container != nil && app.Config.Outbox.Enabled {
			app.Container.OutboxProcessor.Start(cmd.Context())
			defer app.Container.OutboxProcessor.Stop()
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	},
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	Cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests")
}
