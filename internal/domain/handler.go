package domain

import (
	"context"
)

// ToolHandler processes requests for a family of tools sharing a name prefix.
type ToolHandler interface {
	// Handle processes an MCP tool call request.
	// Failures are returned as *Error so the server can forward the code as-is.
	Handle(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

	// ListTools returns the tools served by this handler.
	ListTools() []ToolDefinition

	// ToolName returns the prefix used to route tool names to this handler
	// (e.g. "oura" for "oura_sleep").
	ToolName() string
}
