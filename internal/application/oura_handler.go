package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"oura-mcp-server/internal/domain"
	"oura-mcp-server/internal/logger"
)

// Tool name constants for Oura operations
const (
	ToolOuraSleep     = "oura_sleep"
	ToolOuraReadiness = "oura_readiness"
	ToolOuraActivity  = "oura_activity"
	ToolOuraHeartRate = "oura_heartrate"
)

type fetchFunc func(ctx context.Context, startDate, endDate string) (json.RawMessage, error)

type summarizeFunc func(raw json.RawMessage, dateRange DateRange) string

// ouraTool binds one catalog entry to its upstream call and summary.
type ouraTool struct {
	definition domain.ToolDefinition
	fetch      fetchFunc
	summarize  summarizeFunc
}

// OuraHandler is the tool gateway for the Oura API.
// The catalog is fixed at construction; the handler holds no per-call state
// and is safe for concurrent use.
type OuraHandler struct {
	catalog []domain.ToolDefinition
	tools   map[string]ouraTool
}

// NewOuraHandler creates the gateway over an Oura API client.
// client may be nil when only the catalog is needed.
func NewOuraHandler(client domain.OuraAPI) *OuraHandler {
	bind := func(pick func(domain.OuraAPI) fetchFunc) fetchFunc {
		if client == nil {
			return func(context.Context, string, string) (json.RawMessage, error) {
				return nil, fmt.Errorf("oura client is not configured")
			}
		}
		return pick(client)
	}

	tools := []ouraTool{
		{
			definition: dateRangeTool(ToolOuraSleep, "Get sleep data from Oura Ring"),
			fetch:      bind(func(c domain.OuraAPI) fetchFunc { return c.GetDailySleep }),
			summarize:  SummarizeSleep,
		},
		{
			definition: dateRangeTool(ToolOuraReadiness, "Get readiness score from Oura Ring"),
			fetch:      bind(func(c domain.OuraAPI) fetchFunc { return c.GetDailyReadiness }),
			summarize:  SummarizeReadiness,
		},
		{
			definition: dateRangeTool(ToolOuraActivity, "Get activity data from Oura Ring"),
			fetch:      bind(func(c domain.OuraAPI) fetchFunc { return c.GetDailyActivity }),
			summarize:  SummarizeActivity,
		},
		{
			definition: dateRangeTool(ToolOuraHeartRate, "Get heart rate data from Oura Ring"),
			fetch:      bind(func(c domain.OuraAPI) fetchFunc { return c.GetHeartRate }),
			summarize:  SummarizeHeartRate,
		},
	}

	handler := &OuraHandler{
		catalog: make([]domain.ToolDefinition, 0, len(tools)),
		tools:   make(map[string]ouraTool, len(tools)),
	}
	for _, tool := range tools {
		handler.catalog = append(handler.catalog, tool.definition)
		handler.tools[tool.definition.Name] = tool
	}
	return handler
}

func dateRangeTool(name, description string) domain.ToolDefinition {
	return domain.ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: dateRangeSchema,
	}
}

// ToolName returns the identifier for this handler.
func (h *OuraHandler) ToolName() string {
	return "oura"
}

// ListTools returns the four Oura tool definitions in catalog order.
func (h *OuraHandler) ListTools() []domain.ToolDefinition {
	return append([]domain.ToolDefinition(nil), h.catalog...)
}

// Handle validates the arguments, makes one upstream call and summarizes it.
// Failures are *domain.Error: MethodNotFound, InvalidParams, InvalidRequest
// (rejected token) or InternalError.
func (h *OuraHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	tool, ok := h.tools[req.Name]
	if !ok {
		return nil, domain.NewError(domain.MethodNotFound, fmt.Sprintf("Unknown tool: %s", req.Name))
	}

	dateRange, err := parseDateRange(req.Arguments)
	if err != nil {
		return nil, err
	}

	raw, err := tool.fetch(ctx, dateRange.StartDate, dateRange.EndDate)
	if err != nil {
		mapped := domain.MapUpstreamError(err)
		slog.WarnContext(ctx, "oura request failed",
			"tool", req.Name,
			"trace_id", logger.GetTraceID(ctx),
			"kind", domain.ErrorKind(mapped.Code),
			"error", err,
		)
		return nil, mapped
	}

	slog.DebugContext(ctx, "oura request succeeded",
		"tool", req.Name,
		"trace_id", logger.GetTraceID(ctx),
		"bytes", len(raw),
	)
	return domain.NewTextResponse(tool.summarize(raw, dateRange)), nil
}
