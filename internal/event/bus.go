package event

import (
	"fmt"
	"sync"
)

// Bus dispatches events to registered hooks.
//
// Dispatch rules:
//  1. Blocking hooks execute sequentially in registration order before returning.
//  2. Non-blocking hooks execute concurrently in goroutines tracked by Wait.
//  3. A blocking hook failure returns an error to the caller.
//  4. A non-blocking hook failure is logged as a warning.
//  5. A nil Bus is safe to use; all methods are no-ops.
type Bus struct {
	mu      sync.RWMutex
	hooks   []Hook
	enabled bool
	logger  Logger
	pending sync.WaitGroup
}

// Logger is a minimal logging interface so the bus doesn't depend on telemetry.
type Logger interface {
	Warn(msg string, keyvals ...interface{})
}

// NewBus creates an enabled event bus. Pass nil logger for silent operation.
func NewBus(logger Logger) *Bus {
	return &Bus{
		hooks:   make([]Hook, 0),
		enabled: true,
		logger:  logger,
	}
}

// Register adds a hook to the bus.
func (b *Bus) Register(h Hook) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, h)
}

// SetEnabled controls whether the bus dispatches events.
func (b *Bus) SetEnabled(enabled bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// Len returns the number of registered hooks.
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks)
}

// Emit dispatches an event to all matching hooks and returns the first
// blocking hook error, if any.
func (b *Bus) Emit(ev Event) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	if !b.enabled {
		b.mu.RUnlock()
		return nil
	}
	hooks := make([]Hook, len(b.hooks))
	copy(hooks, b.hooks)
	b.mu.RUnlock()

	for _, h := range hooks {
		if !h.Matches(ev.Type) {
			continue
		}
		if h.IsBlocking() {
			if err := h.Handle(ev); err != nil {
				return fmt.Errorf("blocking hook %s failed: %w", h.Name(), err)
			}
			continue
		}
		b.pending.Add(1)
		go b.runAsync(h, ev)
	}

	return nil
}

// Wait blocks until every in-flight non-blocking hook has returned.
func (b *Bus) Wait() {
	if b == nil {
		return
	}
	b.pending.Wait()
}

func (b *Bus) runAsync(h Hook, ev Event) {
	defer b.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			b.warn("Non-blocking hook panicked", h, ev, "panic", r)
		}
	}()
	if err := h.Handle(ev); err != nil {
		b.warn("Non-blocking hook failed", h, ev, "error", err)
	}
}

func (b *Bus) warn(msg string, h Hook, ev Event, key string, val interface{}) {
	if b.logger == nil {
		return
	}
	b.logger.Warn(msg,
		"hook", h.Name(),
		"event", string(ev.Type),
		"agent", ev.Agent,
		key, val,
	)
}
