package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/event"
	"github.com/cadre-oss/agentmind/internal/memory"
	"github.com/cadre-oss/agentmind/internal/state"
)

func newTestHandler(t *testing.T) (*ToolHandler, *state.Registry) {
	t.Helper()
	reg := state.NewRegistry(state.NewMemoryStore(), memory.DefaultOptions())
	t.Cleanup(func() { reg.Close() })
	return NewToolHandler(reg), reg
}

func call(t *testing.T, h *ToolHandler, name string, args map[string]any) any {
	t.Helper()
	raw, _ := json.Marshal(args)
	out, err := h.Call(context.Background(), name, raw)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func callErr(t *testing.T, h *ToolHandler, name string, args map[string]any) error {
	t.Helper()
	raw, _ := json.Marshal(args)
	_, err := h.Call(context.Background(), name, raw)
	if err == nil {
		t.Fatalf("%s: expected error", name)
	}
	return err
}

func TestAllTools_Complete(t *testing.T) {
	defs := AllTools()
	if len(defs) != len(tools) {
		t.Fatalf("tools/list has %d entries, dispatcher has %d", len(defs), len(tools))
	}
	for _, d := range defs {
		if _, ok := tools[d.Name]; !ok {
			t.Errorf("listed tool %s has no handler", d.Name)
		}
		required, _ := d.InputSchema["required"].([]string)
		if len(required) == 0 || required[0] != "agent_id" {
			t.Errorf("%s must require agent_id", d.Name)
		}
	}
}

func TestCall_UnknownTool(t *testing.T) {
	h, _ := newTestHandler(t)
	err := callErr(t, h, "memory_teleport", map[string]any{"agent_id": "a"})
	if !apperrors.HasCode(err, apperrors.CodeToolNotFound) {
		t.Errorf("expected TOOL_NOT_FOUND, got %v", err)
	}
}

func TestCall_MissingAgentID(t *testing.T) {
	h, _ := newTestHandler(t)
	err := callErr(t, h, "memory_status", map[string]any{})
	if !apperrors.HasCode(err, apperrors.CodeInvalidArguments) {
		t.Errorf("expected INVALID_ARGUMENTS, got %v", err)
	}
}

func TestCall_MalformedArgs(t *testing.T) {
	h, _ := newTestHandler(t)
	_, err := h.Call(context.Background(), "memory_status", json.RawMessage(`[1,2]`))
	if !apperrors.HasCode(err, apperrors.CodeInvalidArguments) {
		t.Errorf("expected INVALID_ARGUMENTS, got %v", err)
	}
}

func TestAddMessage_WriteThrough(t *testing.T) {
	h, reg := newTestHandler(t)
	out := call(t, h, "memory_add_message", map[string]any{"agent_id": "a", "role": "User", "content": "hi"}).(map[string]any)

	msg := out["message"].(memory.Message)
	if msg.Role != memory.RoleUser || msg.Content != "hi" {
		t.Errorf("unexpected message: %+v", msg)
	}

	st, err := reg.Store().Load("a")
	if err != nil {
		t.Fatalf("state should be persisted: %v", err)
	}
	if len(st.RecentMessages) != 1 {
		t.Errorf("persisted %d messages, want 1", len(st.RecentMessages))
	}
	if got := reg.Metrics().GetSummary()["messages_added"]; got != int64(1) {
		t.Errorf("messages_added = %v", got)
	}
}

// failingHook rejects every event it sees.
type failingHook struct{ calls int }

func (h *failingHook) Name() string                 { return "reject" }
func (h *failingHook) Matches(event.EventType) bool { return true }
func (h *failingHook) IsBlocking() bool             { return true }
func (h *failingHook) Handle(event.Event) error {
	h.calls++
	return fmt.Errorf("exit status 1")
}

func TestAddMessage_FailingHookDoesNotDesync(t *testing.T) {
	hook := &failingHook{}
	bus := event.NewBus(nil)
	bus.Register(hook)
	opts := memory.DefaultOptions()
	opts.MinReflectGapTurns = 1
	reg := state.NewRegistry(state.NewMemoryStore(), opts, state.WithBus(bus))
	t.Cleanup(func() { reg.Close() })
	h := NewToolHandler(reg)

	for _, c := range []string{"first", "second"} {
		call(t, h, "memory_add_message", map[string]any{"agent_id": "a", "role": "user", "content": c})
	}
	if hook.calls == 0 {
		t.Fatal("hook was never invoked")
	}

	mgr, _ := reg.Get("a")
	st, err := reg.Store().Load("a")
	if err != nil {
		t.Fatalf("state should be persisted despite hook failures: %v", err)
	}
	if live := mgr.Status().RecentMessages; live != 2 || len(st.RecentMessages) != live {
		t.Errorf("live buffer has %d messages, store has %d", live, len(st.RecentMessages))
	}
}

func TestAddMessage_UnknownRole(t *testing.T) {
	h, reg := newTestHandler(t)
	err := callErr(t, h, "memory_add_message", map[string]any{"agent_id": "a", "role": "narrator", "content": "x"})
	if !apperrors.HasCode(err, apperrors.CodeUnknownRole) {
		t.Errorf("expected UNKNOWN_ROLE, got %v", err)
	}
	if _, err := reg.Store().Load("a"); !apperrors.HasCode(err, apperrors.CodeStateNotFound) {
		t.Error("failed call must not persist")
	}
}

func TestContextLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)
	agent := map[string]any{"agent_id": "a"}

	call(t, h, "memory_set_base_prompt", map[string]any{"agent_id": "a", "text": "You are Ada."})
	call(t, h, "memory_set_normative", map[string]any{"agent_id": "a", "text": "Be honest."})
	for i := 0; i < 6; i++ {
		call(t, h, "memory_add_message", map[string]any{"agent_id": "a", "role": "user", "content": "question"})
	}

	slice := call(t, h, "memory_lane_for_summarization", map[string]any{"agent_id": "a", "lane": "user"}).(map[string]any)
	if text := slice["text"].(string); strings.Count(text, "- USER: question") != 2 {
		t.Errorf("expected the two oldest user messages, got %q", text)
	}

	call(t, h, "memory_apply_lane_summary", map[string]any{"agent_id": "a", "lane": "user", "summary": "asked questions"})

	ctx := call(t, h, "memory_get_context", agent).(map[string]any)
	text := ctx["context"].(string)
	for _, want := range []string{"[BASE IDENTITY]", "You are Ada.", "Be honest.", "[USER LANE SUMMARY]\nasked questions"} {
		if !strings.Contains(text, want) {
			t.Errorf("context missing %q:\n%s", want, text)
		}
	}

	st := call(t, h, "memory_status", agent).(memory.Status)
	if st.RecentMessages != 4 || !st.HasLaneSummaries {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestLaneForSummarization_UnknownLane(t *testing.T) {
	h, _ := newTestHandler(t)
	err := callErr(t, h, "memory_lane_for_summarization", map[string]any{"agent_id": "a", "lane": "tool"})
	if !apperrors.HasCode(err, apperrors.CodeUnknownLane) {
		t.Errorf("expected UNKNOWN_LANE, got %v", err)
	}
}

func TestPersonaUpdate(t *testing.T) {
	h, reg := newTestHandler(t)
	out := call(t, h, "memory_apply_persona_update", map[string]any{
		"agent_id":   "a",
		"friction":   0.2,
		"confidence": 0.9,
		"persona": map[string]any{
			"style": []map[string]any{{"text": "concise", "weight": 0.8}},
		},
	}).(map[string]any)

	persona := out["persona"].(memory.PersonaModel)
	if persona.Version != 1 || len(persona.Style) != 1 {
		t.Errorf("unexpected persona: %+v", persona)
	}
	st, _ := reg.Store().Load("a")
	if st.Persona.Version != 1 {
		t.Errorf("persisted persona version = %d", st.Persona.Version)
	}
}

func TestRecentForReflection(t *testing.T) {
	h, _ := newTestHandler(t)
	for _, c := range []string{"one", "two", "three"} {
		call(t, h, "memory_add_message", map[string]any{"agent_id": "a", "role": "assistant", "content": c})
	}
	out := call(t, h, "memory_recent_for_reflection", map[string]any{"agent_id": "a", "max_messages": 2}).(map[string]any)
	msgs := out["messages"].([]memory.Message)
	if len(msgs) != 2 || msgs[0].Content != "two" || msgs[1].Content != "three" {
		t.Errorf("unexpected window: %+v", msgs)
	}
}

func TestReset(t *testing.T) {
	h, reg := newTestHandler(t)
	call(t, h, "memory_set_base_prompt", map[string]any{"agent_id": "a", "text": "x"})
	call(t, h, "memory_reset", map[string]any{"agent_id": "a"})

	if _, err := reg.Store().Load("a"); !apperrors.HasCode(err, apperrors.CodeStateNotFound) {
		t.Errorf("expected state deleted, got %v", err)
	}
	st := call(t, h, "memory_status", map[string]any{"agent_id": "a"}).(memory.Status)
	if st.RecentMessages != 0 || st.PersonaVersion != 0 {
		t.Errorf("expected empty status after reset: %+v", st)
	}
}
