package application

import (
	"context"
	"fmt"
	"strings"

	"oura-mcp-server/internal/domain"
)

// RequestRouter dispatches MCP tool requests to the ToolHandler owning the
// tool name's prefix.
type RequestRouter struct {
	order    []string
	handlers map[string]domain.ToolHandler
}

// NewRequestRouter creates a new RequestRouter with the provided handlers.
// Handlers are registered by their ToolName() identifier; the first one wins.
func NewRequestRouter(handlers ...domain.ToolHandler) *RequestRouter {
	router := &RequestRouter{
		handlers: make(map[string]domain.ToolHandler),
	}

	for _, handler := range handlers {
		name := handler.ToolName()
		if _, exists := router.handlers[name]; exists {
			continue
		}
		router.order = append(router.order, name)
		router.handlers[name] = handler
	}

	return router
}

// Route dispatches a tool request to the appropriate handler based on the tool name.
// Tool names follow the pattern <handler>_<operation> (e.g. oura_sleep).
// Names with no registered prefix fail with MethodNotFound.
func (r *RequestRouter) Route(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	handler, exists := r.handlers[extractHandlerName(req.Name)]
	if !exists {
		return nil, domain.NewError(domain.MethodNotFound, fmt.Sprintf("Unknown tool: %s", req.Name))
	}

	return handler.Handle(ctx, req)
}

// ListAllTools aggregates tool definitions in handler registration order.
func (r *RequestRouter) ListAllTools() []domain.ToolDefinition {
	allTools := []domain.ToolDefinition{}
	for _, name := range r.order {
		allTools = append(allTools, r.handlers[name].ListTools()...)
	}
	return allTools
}

// HasTool reports whether a tool name appears in any handler's catalog.
func (r *RequestRouter) HasTool(name string) bool {
	handler, exists := r.handlers[extractHandlerName(name)]
	if !exists {
		return false
	}
	for _, tool := range handler.ListTools() {
		if tool.Name == name {
			return true
		}
	}
	return false
}

// GetHandler returns the handler registered under a prefix.
func (r *RequestRouter) GetHandler(handlerName string) (domain.ToolHandler, bool) {
	handler, exists := r.handlers[handlerName]
	return handler, exists
}

// extractHandlerName returns the text before the first underscore, or "".
func extractHandlerName(toolName string) string {
	idx := strings.Index(toolName, "_")
	if idx == -1 {
		return ""
	}
	return toolName[:idx]
}
