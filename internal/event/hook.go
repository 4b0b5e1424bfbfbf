package event

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Hook processes memory lifecycle events.
type Hook interface {
	Name() string
	// Matches returns true if the hook should handle this event type.
	Matches(t EventType) bool
	// IsBlocking returns true if Emit must wait for this hook.
	IsBlocking() bool
	Handle(ev Event) error
}

type baseHook struct {
	name     string
	events   []EventType
	blocking bool
}

func (h *baseHook) Name() string     { return h.name }
func (h *baseHook) IsBlocking() bool { return h.blocking }
func (h *baseHook) Matches(t EventType) bool {
	if len(h.events) == 0 {
		return true
	}
	for _, ev := range h.events {
		if ev == t {
			return true
		}
	}
	return false
}

// ShellHook runs a command through sh with the event in its environment:
//
//	AGENTMIND_EVENT_TYPE   the event type string
//	AGENTMIND_EVENT_AGENT  the agent id, if any
//	AGENTMIND_EVENT_JSON   the JSON-encoded event
//
// Command output goes to stderr so it never mixes with the MCP stdout stream.
type ShellHook struct {
	baseHook
	Command string
	Timeout time.Duration
	Stderr  io.Writer
}

func NewShellHook(name, command string, events []EventType, blocking bool) *ShellHook {
	return &ShellHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
		Command:  command,
		Timeout:  30 * time.Second,
		Stderr:   os.Stderr,
	}
}

func (h *ShellHook) Handle(ev Event) error {
	eventJSON, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx := context.Background()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = append(os.Environ(),
		"AGENTMIND_EVENT_TYPE="+string(ev.Type),
		"AGENTMIND_EVENT_AGENT="+ev.Agent,
		"AGENTMIND_EVENT_JSON="+string(eventJSON),
	)
	cmd.Stdout = h.Stderr
	cmd.Stderr = h.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("shell hook %s failed: %w", h.name, err)
	}
	return nil
}

// WebhookHook POSTs the event JSON to a URL.
type WebhookHook struct {
	baseHook
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

func NewWebhookHook(name, url string, events []EventType, blocking bool) *WebhookHook {
	return &WebhookHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
		URL:      url,
		Timeout:  10 * time.Second,
	}
}

func (h *WebhookHook) Handle(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: h.Timeout}
	}
	req, err := http.NewRequest(http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s: %w", h.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agentmind-Event", string(ev.Type))

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s failed: %w", h.name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook %s returned status %d", h.name, resp.StatusCode)
	}
	return nil
}

// FullLogger extends Logger with the levels LogHook can write at.
type FullLogger interface {
	Logger
	Info(msg string, keyvals ...interface{})
	Debug(msg string, keyvals ...interface{})
}

// LogHook writes events to the logger. Always non-blocking.
type LogHook struct {
	baseHook
	logger Logger
	level  string
}

func NewLogHook(name string, events []EventType, logger Logger, level string) *LogHook {
	if level == "" {
		level = "info"
	}
	return &LogHook{
		baseHook: baseHook{name: name, events: events, blocking: false},
		logger:   logger,
		level:    strings.ToLower(level),
	}
}

func (h *LogHook) Handle(ev Event) error {
	if h.logger == nil {
		return nil
	}
	msg := "memory event"
	keyvals := make([]interface{}, 0, len(ev.Data)*2+4)
	keyvals = append(keyvals, "event_type", string(ev.Type), "agent", ev.Agent)
	for k, v := range ev.Data {
		keyvals = append(keyvals, k, v)
	}

	fl, ok := h.logger.(FullLogger)
	if !ok {
		h.logger.Warn(msg, keyvals...)
		return nil
	}
	switch h.level {
	case "debug":
		fl.Debug(msg, keyvals...)
	case "warn":
		fl.Warn(msg, keyvals...)
	default:
		fl.Info(msg, keyvals...)
	}
	return nil
}

// Spec describes a hook declared in configuration.
type Spec struct {
	Name     string
	Type     string // shell, webhook, log
	Events   []string
	Blocking bool
	Command  string
	URL      string
	Level    string
	Timeout  time.Duration
}

// Build constructs a hook from a Spec. Unknown event names are rejected so
// a typo in configuration does not silently disable a hook.
func Build(s Spec, logger Logger) (Hook, error) {
	events := make([]EventType, 0, len(s.Events))
	for _, name := range s.Events {
		t := EventType(name)
		if !IsKnown(t) {
			return nil, fmt.Errorf("hook %s: unknown event %q", s.Name, name)
		}
		events = append(events, t)
	}

	switch s.Type {
	case "shell":
		if s.Command == "" {
			return nil, fmt.Errorf("hook %s: shell hook requires a command", s.Name)
		}
		h := NewShellHook(s.Name, s.Command, events, s.Blocking)
		if s.Timeout > 0 {
			h.Timeout = s.Timeout
		}
		return h, nil
	case "webhook":
		if s.URL == "" {
			return nil, fmt.Errorf("hook %s: webhook requires a url", s.Name)
		}
		h := NewWebhookHook(s.Name, s.URL, events, s.Blocking)
		if s.Timeout > 0 {
			h.Timeout = s.Timeout
		}
		return h, nil
	case "log":
		return NewLogHook(s.Name, events, logger, s.Level), nil
	default:
		return nil, fmt.Errorf("hook %s: unknown type %q", s.Name, s.Type)
	}
}
