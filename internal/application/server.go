package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"oura-mcp-server/internal/domain"
	"oura-mcp-server/internal/logger"
	"oura-mcp-server/internal/metrics"
)

const (
	// ProtocolVersion is the MCP revision announced during initialize.
	ProtocolVersion = "2024-11-05"

	// ServerName is reported as serverInfo.name.
	ServerName = "oura-mcp-server"

	unknownToolLabel = "unknown"
)

// Version is reported as serverInfo.version. It is overridden at build time.
var Version = "1.0.0"

// Server is the main MCP server implementation.
// It reads requests from the transport, dispatches each in its own goroutine
// and writes responses back through the same transport.
type Server struct {
	transport domain.Transport
	router    *RequestRouter
	metrics   *metrics.ToolMetrics

	inflight sync.WaitGroup
	done     chan struct{}
	once     sync.Once
}

// NewServer creates a new MCP server instance. recorder may be nil.
func NewServer(transport domain.Transport, router *RequestRouter, recorder *metrics.ToolMetrics) *Server {
	return &Server{
		transport: transport,
		router:    router,
		metrics:   recorder,
		done:      make(chan struct{}),
	}
}

// Start starts the transport and begins processing incoming requests.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		slog.Error("failed to start transport", "error", err)
		return fmt.Errorf("failed to start transport: %w", err)
	}

	slog.Info("server started", "tools", len(s.router.ListAllTools()))

	go s.processRequests(ctx)
	return nil
}

// Done is closed once the request loop has exited and in-flight requests finished.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) processRequests(ctx context.Context) {
	defer func() {
		s.inflight.Wait()
		s.once.Do(func() { close(s.done) })
	}()

	reqChan := s.transport.Receive()
	for {
		select {
		case <-ctx.Done():
			slog.Info("server shutting down")
			return
		case req, ok := <-reqChan:
			if !ok {
				slog.Info("transport closed")
				return
			}

			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				s.handleRequest(ctx, req)
			}()
		}
	}
}

// handleRequest processes a single JSON-RPC request.
func (s *Server) handleRequest(ctx context.Context, req *domain.Request) {
	ctx = logger.WithTraceID(ctx, logger.NewTraceID())
	log := slog.With("trace_id", logger.GetTraceID(ctx), "method", req.Method)

	if req.IsNotification() {
		log.Debug("received notification")
		return
	}
	log.Debug("received request", "request_id", req.ID)

	if err := validateRequest(req); err != nil {
		s.sendError(req, domain.NewError(domain.InvalidRequest, err.Error()))
		return
	}

	var (
		result interface{}
		err    error
	)
	switch req.Method {
	case "initialize":
		result = s.handleInitialize()
	case "ping":
		result = map[string]interface{}{}
	case "tools/list":
		result = map[string]interface{}{"tools": s.router.ListAllTools()}
	case "tools/call":
		result, err = s.handleToolsCall(ctx, req)
	default:
		err = domain.NewError(domain.MethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}

	if err != nil {
		rpcErr := toRPCError(err)
		log.Warn("request failed", "request_id", req.ID, "code", rpcErr.Code, "error", rpcErr.Message)
		s.sendError(req, rpcErr)
		return
	}

	response := &domain.Response{
		JSONRPC:   "2.0",
		ID:        req.ID,
		Result:    result,
		SessionID: req.SessionID,
	}
	if err := s.transport.Send(response); err != nil {
		log.Error("failed to send response", "request_id", req.ID, "error", err)
	}
}

func validateRequest(req *domain.Request) error {
	if req.JSONRPC != "2.0" {
		return fmt.Errorf("invalid jsonrpc version: %s", req.JSONRPC)
	}
	if req.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

func (s *Server) handleInitialize() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    ServerName,
			"version": Version,
		},
	}
}

// handleToolsCall routes a tool call and records its outcome.
func (s *Server) handleToolsCall(ctx context.Context, req *domain.Request) (*domain.ToolResponse, error) {
	toolReq, err := parseToolRequest(req.Params)
	if err != nil {
		return nil, domain.NewError(domain.InvalidParams, err.Error())
	}

	label := toolReq.Name
	if !s.router.HasTool(label) {
		label = unknownToolLabel
	}

	started := time.Now()
	toolResp, err := s.router.Route(ctx, toolReq)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = domain.ErrorKind(toRPCError(err).Code)
	}
	s.metrics.ObserveCall(label, outcome, time.Since(started))

	return toolResp, err
}

// parseToolRequest converts the params field into a ToolRequest.
func parseToolRequest(params interface{}) (*domain.ToolRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required for tools/call")
	}

	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var toolReq domain.ToolRequest
	if err := json.Unmarshal(jsonData, &toolReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool request: %w", err)
	}

	if toolReq.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if toolReq.Arguments == nil {
		toolReq.Arguments = make(map[string]interface{})
	}

	return &toolReq, nil
}

// toRPCError keeps *domain.Error as-is and maps anything else to InternalError.
func toRPCError(err error) *domain.Error {
	var rpcErr *domain.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return domain.NewError(domain.InternalError, err.Error())
}

func (s *Server) sendError(req *domain.Request, rpcErr *domain.Error) {
	response := &domain.Response{
		JSONRPC:   "2.0",
		ID:        req.ID,
		Error:     rpcErr,
		SessionID: req.SessionID,
	}
	if err := s.transport.Send(response); err != nil {
		slog.Error("failed to send error response",
			"request_id", req.ID,
			"error_code", rpcErr.Code,
			"error", err,
		)
	}
}

// Close shuts down the transport, which ends the request loop.
func (s *Server) Close() error {
	slog.Info("closing server")
	return s.transport.Close()
}
