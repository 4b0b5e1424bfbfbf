package event

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestShellHook_Matches(t *testing.T) {
	hook := NewShellHook("test", "true", []EventType{StateSaved, StateReset}, false)

	if !hook.Matches(StateSaved) || !hook.Matches(StateReset) {
		t.Error("should match configured events")
	}
	if hook.Matches(MessageAdded) {
		t.Error("should not match MessageAdded")
	}
}

func TestShellHook_Environment(t *testing.T) {
	var out bytes.Buffer
	hook := NewShellHook("env", `printf '%s|%s' "$AGENTMIND_EVENT_TYPE" "$AGENTMIND_EVENT_AGENT"`, nil, true)
	hook.Stderr = &out

	if err := hook.Handle(NewEvent(PersonaUpdated, "agent-7", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := out.String(), "memory.persona.updated|agent-7"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestShellHook_Failure(t *testing.T) {
	hook := NewShellHook("test", "false", nil, true)
	hook.Stderr = io.Discard

	if err := hook.Handle(NewEvent(StateSaved, "a", nil)); err == nil {
		t.Fatal("expected error from failed shell command")
	}
}

func TestWebhookHook_Execute(t *testing.T) {
	var received struct {
		mu     sync.Mutex
		body   []byte
		header string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received.mu.Lock()
		received.body = body
		received.header = r.Header.Get("X-Agentmind-Event")
		received.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hook := NewWebhookHook("test", server.URL, []EventType{LaneSummarized}, true)
	ev := NewEvent(LaneSummarized, "a", map[string]interface{}{"lane": "user"})
	if err := hook.Handle(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	received.mu.Lock()
	defer received.mu.Unlock()

	var payload Event
	if err := json.Unmarshal(received.body, &payload); err != nil {
		t.Fatalf("failed to parse webhook payload: %v", err)
	}
	if payload.Type != LaneSummarized || payload.Data["lane"] != "user" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if received.header != string(LaneSummarized) {
		t.Errorf("X-Agentmind-Event = %q", received.header)
	}
}

func TestWebhookHook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	hook := NewWebhookHook("test", server.URL, nil, true)
	if err := hook.Handle(NewEvent(StateSaved, "a", nil)); err == nil {
		t.Fatal("expected error from 500 status")
	}
}

func TestLogHook_Execute(t *testing.T) {
	logger := &testLogger{}
	hook := NewLogHook("test", nil, logger, "info")

	if err := hook.Handle(NewEvent(MessageAdded, "a", map[string]interface{}{"role": "user"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logger.infos) != 1 {
		t.Errorf("expected 1 info line, got %d", len(logger.infos))
	}
	if hook.IsBlocking() {
		t.Error("log hook should always be non-blocking")
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr string
	}{
		{"shell", Spec{Name: "s", Type: "shell", Command: "true", Events: []string{"memory.state.saved"}}, ""},
		{"webhook", Spec{Name: "w", Type: "webhook", URL: "http://localhost"}, ""},
		{"log", Spec{Name: "l", Type: "log"}, ""},
		{"shell without command", Spec{Name: "s", Type: "shell"}, "requires a command"},
		{"webhook without url", Spec{Name: "w", Type: "webhook"}, "requires a url"},
		{"unknown type", Spec{Name: "x", Type: "pause"}, "unknown type"},
		{"unknown event", Spec{Name: "x", Type: "log", Events: []string{"task.started"}}, "unknown event"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Build(tt.spec, &testLogger{})
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if h.Name() != tt.spec.Name {
					t.Errorf("Name() = %q", h.Name())
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBaseHook_Matches(t *testing.T) {
	all := &baseHook{name: "all"}
	if !all.Matches(StateSaved) || !all.Matches(ReflectionDue) {
		t.Error("empty filter should match everything")
	}
	specific := &baseHook{name: "specific", events: []EventType{StateReset}}
	if specific.Matches(StateSaved) {
		t.Error("should not match StateSaved")
	}
}
