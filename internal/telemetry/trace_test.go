package telemetry

import (
	"context"
	"testing"
)

func TestTraceContext_NewAndChild(t *testing.T) {
	root := NewTraceContext("session-123")

	if root.SessionID != "session-123" {
		t.Errorf("expected SessionID 'session-123', got %q", root.SessionID)
	}
	if root.TraceID == "" {
		t.Error("expected non-empty TraceID")
	}
	if len(root.SpanID) != 16 {
		t.Errorf("expected 16 hex digit SpanID, got %q", root.SpanID)
	}
	if root.ParentID != "" {
		t.Error("expected empty ParentID for root")
	}

	child := root.WithAgent("ada").ChildSpan()
	if child.TraceID != root.TraceID {
		t.Error("child should inherit TraceID")
	}
	if child.ParentID != root.SpanID {
		t.Error("child ParentID should be parent's SpanID")
	}
	if child.SpanID == root.SpanID {
		t.Error("child should have a different SpanID")
	}
	if child.AgentID != "ada" {
		t.Errorf("child should inherit agent, got %q", child.AgentID)
	}
}

func TestTraceContext_WithAgentTool(t *testing.T) {
	tc := NewTraceContext("s-1")
	withAgent := tc.WithAgent("ada")
	withTool := withAgent.WithTool("memory_status")

	if withAgent.AgentID != "ada" {
		t.Errorf("expected agent 'ada', got %q", withAgent.AgentID)
	}
	if withTool.Tool != "memory_status" {
		t.Errorf("expected tool 'memory_status', got %q", withTool.Tool)
	}
	if tc.AgentID != "" {
		t.Error("original should not be modified")
	}
}

func TestTraceContext_ContextPropagation(t *testing.T) {
	tc := NewTraceContext("s-2")
	ctx := ContextWithTrace(context.Background(), tc)

	extracted := TraceFromContext(ctx)
	if extracted == nil {
		t.Fatal("expected trace in context")
	}
	if extracted.SessionID != "s-2" {
		t.Errorf("expected SessionID 's-2', got %q", extracted.SessionID)
	}

	if TraceFromContext(context.Background()) != nil {
		t.Error("expected nil trace from empty context")
	}
}

func TestTraceContext_Fields(t *testing.T) {
	tc := NewTraceContext("s-3").WithAgent("ada").WithTool("memory_get_context")

	fields := tc.Fields()
	if fields["session_id"] != "s-3" {
		t.Error("expected session_id in fields")
	}
	if fields["agent"] != "ada" {
		t.Error("expected agent in fields")
	}
	if fields["tool"] != "memory_get_context" {
		t.Error("expected tool in fields")
	}
	if _, ok := fields["parent_id"]; ok {
		t.Error("root trace should not carry parent_id")
	}
}

func TestLogger_WithTrace(t *testing.T) {
	logger := NewLogger("debug")
	ctx := ContextWithTrace(context.Background(), NewTraceContext("s-4"))

	if logger.WithTrace(ctx) == nil {
		t.Fatal("expected non-nil logger")
	}
	if logger.WithTrace(context.Background()) != logger {
		t.Error("logger without trace should be returned unchanged")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"WARN":    "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for in, want := range cases {
		if got := ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestIsLevel(t *testing.T) {
	for _, ok := range []string{"debug", "INFO", " warn ", "error"} {
		if !IsLevel(ok) {
			t.Errorf("IsLevel(%q) = false", ok)
		}
	}
	if IsLevel("verbose") {
		t.Error("IsLevel(verbose) = true")
	}
}
