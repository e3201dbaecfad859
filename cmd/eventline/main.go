package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/eventline/adapter/cli"
	"github.com/felixgeelhaar/eventline/adapter/cli/mcp"
	"github.com/felixgeelhaar/eventline/adapter/cli/serve"
	"github.com/felixgeelhaar/eventline/adapter/cli/timeline"
	"github.com/felixgeelhaar/eventline/internal/app"
	"github.com/felixgeelhaar/eventline/pkg/config"
	"github.com/felixgeelhaar/eventline/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cli.SetLogger(logger)

	// The container is built on first use so that --config is already
	// parsed and commands like "timeline preview --fixture" need no database.
	cli.SetAppFactory(func(ctx context.Context, configFile string) (*cli.App, error) {
		if configFile != "" {
			if err := cfg.ApplyFile(configFile); err != nil {
				return nil, err
			}
		}
		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return cli.NewApp(container), nil
	})

	// Register commands
	cli.AddCommand(timeline.Cmd)
	cli.AddCommand(serve.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.ExecuteContext(ctx)
}
