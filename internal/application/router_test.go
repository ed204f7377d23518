package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oura-mcp-server/internal/domain"
)

// stubHandler is a minimal ToolHandler for routing tests.
type stubHandler struct {
	prefix string
	tools  []string
	calls  []string
}

func (s *stubHandler) ToolName() string { return s.prefix }

func (s *stubHandler) ListTools() []domain.ToolDefinition {
	defs := make([]domain.ToolDefinition, 0, len(s.tools))
	for _, name := range s.tools {
		defs = append(defs, domain.ToolDefinition{Name: name})
	}
	return defs
}

func (s *stubHandler) Handle(_ context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	s.calls = append(s.calls, req.Name)
	return domain.NewTextResponse(s.prefix + ":" + req.Name), nil
}

func TestRequestRouter_Route(t *testing.T) {
	oura := &stubHandler{prefix: "oura", tools: []string{"oura_sleep"}}
	other := &stubHandler{prefix: "garmin", tools: []string{"garmin_steps"}}
	router := NewRequestRouter(oura, other)

	resp, err := router.Route(context.Background(), &domain.ToolRequest{Name: "oura_sleep"})
	require.NoError(t, err)
	assert.Equal(t, "oura:oura_sleep", resp.Content[0].Text)
	assert.Equal(t, []string{"oura_sleep"}, oura.calls)
	assert.Empty(t, other.calls)
}

func TestRequestRouter_UnknownPrefix(t *testing.T) {
	router := NewRequestRouter(&stubHandler{prefix: "oura"})

	for _, name := range []string{"fitbit_sleep", "nounderscore", ""} {
		_, err := router.Route(context.Background(), &domain.ToolRequest{Name: name})
		require.Error(t, err)

		rpcErr, ok := err.(*domain.Error)
		require.True(t, ok)
		assert.Equal(t, domain.MethodNotFound, rpcErr.Code)
		assert.Equal(t, "Unknown tool: "+name, rpcErr.Message)
	}
}

func TestRequestRouter_ListAllToolsKeepsOrder(t *testing.T) {
	router := NewRequestRouter(
		&stubHandler{prefix: "b", tools: []string{"b_one", "b_two"}},
		&stubHandler{prefix: "a", tools: []string{"a_one"}},
		&stubHandler{prefix: "b", tools: []string{"b_dup"}},
	)

	names := []string{}
	for _, tool := range router.ListAllTools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"b_one", "b_two", "a_one"}, names)
}

func TestRequestRouter_HasTool(t *testing.T) {
	router := NewRequestRouter(NewOuraHandler(nil))

	assert.True(t, router.HasTool(ToolOuraHeartRate))
	assert.False(t, router.HasTool("oura_weather"))
	assert.False(t, router.HasTool("weather"))

	handler, ok := router.GetHandler("oura")
	assert.True(t, ok)
	assert.Equal(t, "oura", handler.ToolName())
}

func TestExtractHandlerName(t *testing.T) {
	assert.Equal(t, "oura", extractHandlerName("oura_sleep"))
	assert.Equal(t, "oura", extractHandlerName("oura_daily_sleep"))
	assert.Equal(t, "", extractHandlerName("oura"))
}
