package mcp

import (
	"context"

	"github.com/felixgeelhaar/eventline/pkg/observability"
	"github.com/felixgeelhaar/mcp-go"
)

type emptyInput struct{}

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("cli.health").
		Description("Report database, cache and broker health").
		Handler(func(ctx context.Context, input emptyInput) (observability.OverallHealth, error) {
			if app.Health == nil {
				return observability.OverallHealth{Status: observability.HealthStatusHealthy}, nil
			}
			return app.Health.Check(ctx), nil
		})

	return nil
}
