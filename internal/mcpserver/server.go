package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/lottery"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
	"github.com/Billy-Davies-2/lottery-draft/internal/pubsub"
)

const (
	ServerName    = "lottery-draft-mcp"
	ServerVersion = "0.1.0"
)

type EmptyArgs struct{}

type RenameArgs struct {
	OriginalName string `json:"original_name" jsonschema:"Original name of the team (its identity, required)"`
	NewName      string `json:"new_name" jsonschema:"New display name (required, not blank)"`
}

// NewServer exposes the draft engine as MCP tools. Mutating tools publish
// the same events as the HTTP and gRPC surfaces.
func NewServer(engine *lottery.Engine, ps pubsub.Publisher) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_state",
		Description: "Remaining teams with lottery odds, the draft order so far and whether the draft is complete",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(engine.State())
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_pick",
		Description: "Draw the next lottery pick, weighted by the remaining teams' odds",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		result, err := engine.DrawPick()
		if err != nil {
			logger.Info("MCP: Pick rejected", "reason", err)
			return toolError(err), nil, nil
		}
		ps.Publish(pubsub.PickEvent(result))
		return toolJSON(result)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_team_name",
		Description: "Change a team's display name, looked up by its original name",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RenameArgs) (*mcp.CallToolResult, any, error) {
		if args.OriginalName == "" {
			return toolError(fmt.Errorf("original_name is required")), nil, nil
		}
		key := models.TeamKey(args.OriginalName)
		if err := engine.Rename(key, args.NewName); err != nil {
			return toolError(err), nil, nil
		}
		ps.Publish(pubsub.RenameEvent(key, args.NewName))
		return toolJSON(map[string]any{
			"success": true,
			"state":   engine.State(),
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_draft",
		Description: "Reload the team list and clear the draft order",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		logger.Info("MCP: Resetting draft")
		state := engine.Reset(ctx)
		ps.Publish(pubsub.ResetEvent(state))
		return toolJSON(state)
	})

	return server
}

// Handler serves server over streamable HTTP
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
