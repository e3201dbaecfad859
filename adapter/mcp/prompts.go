package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common planning workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("timeline_review").
		Description("Review a timeline's schedule before saving a recalculation.").
		Argument("timeline_id", "ID of the timeline to review", true).
		Argument("distribution", "frontload, balanced or even (default: frontload)", false).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Timeline Review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: reviewPromptText(args["timeline_id"], args["distribution"]),
						},
					},
				},
			}, nil
		})

	return nil
}

func reviewPromptText(timelineID, distribution string) string {
	if timelineID == "" {
		timelineID = "[Please provide the timeline ID]"
	}
	if distribution == "" {
		distribution = "frontload"
	}
	return fmt.Sprintf(`Help me review the planning timeline %s.

1. Call timeline.preview with distribution %q to see the proposed dates
2. Call timeline.last to compare against the last saved recalculation
3. Point out blocks that were skipped and tasks whose dependencies could not be satisfied
4. Flag locked tasks that now fall outside their block

If the plan looks right, call timeline.recalculate with the same options to save it.`, timelineID, distribution)
}
