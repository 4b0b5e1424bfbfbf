package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/cadre-oss/agentmind/internal/config"
	"github.com/cadre-oss/agentmind/internal/event"
	"github.com/cadre-oss/agentmind/internal/memory"
	"github.com/cadre-oss/agentmind/internal/state"
	"github.com/cadre-oss/agentmind/internal/telemetry"
)

// TestHarness provides everything needed for integration tests:
// config, a registry over a store, events, a fixed clock and assertion helpers.
type TestHarness struct {
	T        *testing.T
	Config   *config.Config
	Store    state.Store
	Registry *state.Registry
	EventBus *event.Bus
	Logger   *telemetry.Logger
	Metrics  *telemetry.Metrics
	Clock    *Clock

	mu     sync.Mutex
	events []event.Event
}

// NewTestHarness creates a harness backed by the in-memory store.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()
	return NewTestHarnessWithStore(t, state.NewMemoryStore())
}

// NewTestHarnessWithStore creates a harness over the given store. The
// registry is closed when the test ends.
func NewTestHarnessWithStore(t *testing.T, store state.Store) *TestHarness {
	t.Helper()

	logger := TestLogger()
	bus := event.NewBus(logger)
	metrics := telemetry.NewMetrics()
	clock := NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := TestConfig()

	h := &TestHarness{
		T:        t,
		Config:   cfg,
		Store:    store,
		EventBus: bus,
		Logger:   logger,
		Metrics:  metrics,
		Clock:    clock,
	}
	bus.Register(&eventCapture{harness: h})

	h.Registry = state.NewRegistry(store, cfg.Memory,
		state.WithLogger(logger),
		state.WithMetrics(metrics),
		state.WithBus(bus),
		state.WithManagerOptions(memory.WithClock(clock.Now)),
	)
	t.Cleanup(func() { h.Registry.Close() })
	return h
}

// Manager returns the live manager for an agent or fails the test.
func (h *TestHarness) Manager(agentID string) *memory.Manager {
	h.T.Helper()
	mgr, err := h.Registry.Get(agentID)
	if err != nil {
		h.T.Fatalf("Get(%q): %v", agentID, err)
	}
	return mgr
}

// AddMessages appends messages alternating user and assistant roles, then saves.
func (h *TestHarness) AddMessages(agentID string, contents ...string) {
	h.T.Helper()
	mgr := h.Manager(agentID)
	for i, c := range contents {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		if _, err := mgr.AddMessage(role, c); err != nil {
			h.T.Fatalf("AddMessage: %v", err)
		}
	}
	if err := h.Registry.Save(agentID); err != nil {
		h.T.Fatalf("Save(%q): %v", agentID, err)
	}
}

// Events returns a copy of the captured events.
func (h *TestHarness) Events() []event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]event.Event(nil), h.events...)
}

// AssertEventEmitted checks that an event with the given type was emitted.
func (h *TestHarness) AssertEventEmitted(eventType event.EventType) {
	h.T.Helper()
	if h.EventCount(eventType) == 0 {
		h.T.Errorf("expected event %q to be emitted", eventType)
	}
}

// AssertNoEvent checks that an event type was NOT emitted.
func (h *TestHarness) AssertNoEvent(eventType event.EventType) {
	h.T.Helper()
	if n := h.EventCount(eventType); n > 0 {
		h.T.Errorf("expected event %q NOT to be emitted, but it was (%d times)", eventType, n)
	}
}

// EventCount returns the number of events with the given type.
func (h *TestHarness) EventCount(eventType event.EventType) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for _, e := range h.events {
		if e.Type == eventType {
			count++
		}
	}
	return count
}

// eventCapture is a blocking hook that records events synchronously.
type eventCapture struct {
	harness *TestHarness
}

func (c *eventCapture) Name() string                 { return "test-capture" }
func (c *eventCapture) Matches(event.EventType) bool { return true }
func (c *eventCapture) IsBlocking() bool             { return true }

func (c *eventCapture) Handle(ev event.Event) error {
	c.harness.mu.Lock()
	c.harness.events = append(c.harness.events, ev)
	c.harness.mu.Unlock()
	return nil
}
