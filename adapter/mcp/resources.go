package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/eventline/internal/app"
	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that describe the planning setup.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Resource("eventline://planning/distributions").
		Name("Distribution Strategies").
		Description("How each distribution strategy places tasks inside a block").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonResource(uri, distributionDocs())
		})

	srv.Resource("eventline://planning/config").
		Name("Planning Configuration").
		Description("Engine settings used by every recalculation").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if deps.App == nil || deps.App.Config == nil {
				return nil, fmt.Errorf("configuration not loaded")
			}
			cfg := app.EngineConfig(deps.App.Config)
			return jsonResource(uri, map[string]any{
				"canonical_horizon_months": cfg.CanonicalHorizonMonths,
				"max_dependency_passes":    cfg.MaxDependencyPasses,
				"week_start":               cfg.WeekStart.String(),
				"auto_recalc_cron":         deps.App.Config.Planning.AutoRecalcCron,
			})
		})

	return nil
}

func distributionDocs() []map[string]string {
	return []map[string]string{
		{
			"name":        string(domain.DistributionFrontload),
			"description": "Heaviest and skeleton tasks first, packed toward the start of the block.",
		},
		{
			"name":        string(domain.DistributionBalanced),
			"description": "Tasks spread across the block in proportion to their weight.",
		},
		{
			"name":        string(domain.DistributionEven),
			"description": "Tasks evenly spaced across the block in title order.",
		},
	}
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
