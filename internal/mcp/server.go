package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/state"
	"github.com/cadre-oss/agentmind/internal/telemetry"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "agentmind"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Server is a minimal MCP server that speaks JSON-RPC 2.0 over stdin/stdout.
// It implements initialize, ping, tools/list and tools/call.
type Server struct {
	handler   *ToolHandler
	logger    *telemetry.Logger
	sessionID string
	version   string
	in        io.Reader
	out       io.Writer
	outMu     sync.Mutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithIO replaces stdin/stdout.
func WithIO(in io.Reader, out io.Writer) ServerOption {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

func WithLogger(l *telemetry.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the serverInfo version reported on initialize.
func WithVersion(v string) ServerOption {
	return func(s *Server) { s.version = v }
}

// NewServer creates an MCP server over the registry.
func NewServer(registry *state.Registry, opts ...ServerOption) *Server {
	s := &Server{
		handler:   NewToolHandler(registry),
		logger:    telemetry.NewNopLogger(),
		sessionID: uuid.NewString(),
		version:   "dev",
		in:        os.Stdin,
		out:       os.Stdout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SessionID identifies this server process in logs and traces.
func (s *Server) SessionID() string {
	return s.sessionID
}

// jsonrpcRequest is a JSON-RPC 2.0 request.
type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *jsonrpcError) Error() string {
	return e.Message
}

// Run reads JSON-RPC requests from stdin and writes responses to stdout.
// It blocks until the context is cancelled or stdin is closed.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// MCP messages can be large
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	s.logger.Info("MCP server started", "session_id", s.sessionID)
	defer s.logger.Info("MCP server stopped", "session_id", s.sessionID)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, codeParseError, "parse error")
			continue
		}

		// Notifications (no ID) don't get responses
		if req.ID == nil {
			s.logger.Debug("MCP notification", "method", req.Method)
			continue
		}

		result, err := s.dispatch(ctx, req)
		if err != nil {
			code := codeInternalError
			if rpcErr, ok := err.(*jsonrpcError); ok {
				code = rpcErr.Code
			}
			s.writeError(req.ID, code, err.Error())
			continue
		}

		s.writeResult(req.ID, result)
	}

	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req jsonrpcRequest) (any, error) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.Params)
	case "tools/list":
		return map[string]any{"tools": AllTools()}, nil
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	case "ping":
		return map[string]any{}, nil
	default:
		return nil, &jsonrpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

func (s *Server) handleInitialize(_ json.RawMessage) (any, error) {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": s.version,
		},
	}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, error) {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &jsonrpcError{Code: codeInvalidParams, Message: fmt.Sprintf("parse tool call params: %v", err)}
	}

	var target struct {
		AgentID string `json:"agent_id"`
	}
	_ = json.Unmarshal(call.Arguments, &target)

	tc := telemetry.NewTraceContext(s.sessionID).WithTool(call.Name).WithAgent(target.AgentID)
	ctx = telemetry.ContextWithTrace(ctx, tc)
	log := s.logger.WithTrace(ctx)

	result, err := s.handler.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		log.Warn("Tool call failed", "error", err)
		return toolError(err), nil
	}
	log.Debug("Tool call completed")

	text, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
	}, nil
}

// toolError reports a failed call inside the result, as MCP expects, with the
// error code and suggestion when available.
func toolError(err error) map[string]any {
	text := "Error: " + err.Error()
	if hint := apperrors.Suggestion(err); hint != "" {
		text += "\nSuggestion: " + hint
	}
	result := map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"isError": true,
	}
	if code := apperrors.AsCode(err); code != "" {
		result["errorCode"] = code
	}
	return result
}

func (s *Server) writeResult(id json.RawMessage, result any) {
	s.writeJSON(jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	s.writeJSON(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &jsonrpcError{Code: code, Message: message},
	})
}

func (s *Server) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode response", "error", err)
		return
	}
	data = append(data, '\n')

	s.outMu.Lock()
	defer s.outMu.Unlock()
	_, _ = s.out.Write(data)
}
