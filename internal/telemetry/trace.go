package telemetry

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"
)

type traceKey struct{}

// TraceContext correlates log lines of one MCP session and its tool calls.
type TraceContext struct {
	SessionID string `json:"session_id"`
	TraceID   string `json:"trace_id"`
	SpanID    string `json:"span_id"`
	ParentID  string `json:"parent_id,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`
	Tool      string `json:"tool,omitempty"`
}

// NewTraceContext creates a root trace for a session.
func NewTraceContext(sessionID string) *TraceContext {
	return &TraceContext{
		SessionID: sessionID,
		TraceID:   uuid.NewString(),
		SpanID:    newSpanID(),
	}
}

// ChildSpan creates a child trace context inheriting the TraceID and SessionID.
func (tc *TraceContext) ChildSpan() *TraceContext {
	return &TraceContext{
		SessionID: tc.SessionID,
		TraceID:   tc.TraceID,
		SpanID:    newSpanID(),
		ParentID:  tc.SpanID,
		AgentID:   tc.AgentID,
	}
}

// WithAgent returns a copy with the AgentID set.
func (tc *TraceContext) WithAgent(agentID string) *TraceContext {
	child := *tc
	child.AgentID = agentID
	return &child
}

// WithTool returns a copy with the Tool set.
func (tc *TraceContext) WithTool(name string) *TraceContext {
	child := *tc
	child.Tool = name
	return &child
}

// Fields returns key-value pairs suitable for structured logging.
func (tc *TraceContext) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"session_id": tc.SessionID,
		"trace_id":   tc.TraceID,
		"span_id":    tc.SpanID,
	}
	if tc.ParentID != "" {
		fields["parent_id"] = tc.ParentID
	}
	if tc.AgentID != "" {
		fields["agent"] = tc.AgentID
	}
	if tc.Tool != "" {
		fields["tool"] = tc.Tool
	}
	return fields
}

// ContextWithTrace stores a TraceContext in the context.
func ContextWithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, tc)
}

// TraceFromContext extracts a TraceContext from the context, or nil.
func TraceFromContext(ctx context.Context) *TraceContext {
	tc, _ := ctx.Value(traceKey{}).(*TraceContext)
	return tc
}

// WithTrace returns a logger enriched with trace fields from the context.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	tc := TraceFromContext(ctx)
	if tc == nil {
		return l
	}
	return l.WithFields(tc.Fields())
}

// newSpanID returns the first 16 hex digits of a random UUID.
func newSpanID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:8])
}
