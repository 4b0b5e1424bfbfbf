// Package agentmind provides a public API for embedding the agent memory
// engine in another Go program.
//
// Example usage:
//
//	import "github.com/cadre-oss/agentmind/pkg/agentmind"
//
//	mind, err := agentmind.Open(".")
//	if err != nil { ... }
//	defer mind.Close()
//
//	_, err = mind.AddMessage("support-bot", "user", "How do I reset my password?")
//	ctx, err := mind.Context("support-bot")
package agentmind

import (
	"fmt"

	"github.com/cadre-oss/agentmind/internal/config"
	"github.com/cadre-oss/agentmind/internal/event"
	"github.com/cadre-oss/agentmind/internal/memory"
	"github.com/cadre-oss/agentmind/internal/state"
	"github.com/cadre-oss/agentmind/internal/telemetry"
)

type (
	// Config is the agentmind.yaml document.
	Config = config.Config
	// Options tunes the memory budget and persona merging.
	Options = memory.Options
	// Manager operates on one agent's memory.
	Manager = memory.Manager
	// Message is one entry of the recent-message buffer.
	Message = memory.Message
	// PersonaUpdate is the output of one reflection pass.
	PersonaUpdate = memory.PersonaUpdate
	// PersonaFacet is one weighted persona statement.
	PersonaFacet = memory.PersonaFacet
	// Status is an introspection snapshot.
	Status = memory.Status
)

// DefaultOptions returns the default memory options.
func DefaultOptions() Options {
	return memory.DefaultOptions()
}

// Mind owns a state store and the live managers for every agent touched.
type Mind struct {
	registry *state.Registry
	bus      *event.Bus
	logger   *telemetry.Logger
}

// Open loads agentmind.yaml from dir (defaults when absent) and opens its store.
func Open(dir string) (*Mind, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return OpenConfig(cfg)
}

// OpenConfig opens the store and hooks described by cfg.
func OpenConfig(cfg *Config) (*Mind, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := telemetry.NewLogger(cfg.Logging.Level)
	bus := event.NewBus(logger)
	hooks, err := config.BuildHooks(cfg.Hooks, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}
	for _, h := range hooks {
		bus.Register(h)
	}

	store, err := config.OpenStore(cfg)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to initialize state: %w", err)
	}

	return &Mind{
		registry: state.NewRegistry(store, cfg.Memory, state.WithLogger(logger), state.WithBus(bus)),
		bus:      bus,
		logger:   logger,
	}, nil
}

// OpenInMemory returns a Mind whose state lives only in this process.
func OpenInMemory(opts Options) (*Mind, error) {
	cfg := config.Default()
	cfg.Memory = opts
	cfg.State = config.StateConfig{Driver: "memory"}
	cfg.Logging.Level = "warn"
	return OpenConfig(cfg)
}

// Agent returns the manager for an agent, loading its stored state on first use.
// Mutations through the manager are persisted by Save.
func (m *Mind) Agent(agentID string) (*Manager, error) {
	return m.registry.Get(agentID)
}

// Save persists an agent's current state.
func (m *Mind) Save(agentID string) error {
	return m.registry.Save(agentID)
}

// AddMessage appends a message and saves.
func (m *Mind) AddMessage(agentID, role, content string) (Message, error) {
	mgr, err := m.registry.Get(agentID)
	if err != nil {
		return Message{}, err
	}
	msg, err := mgr.AddMessage(role, content)
	if err != nil {
		return Message{}, err
	}
	return msg, m.registry.Commit(agentID, event.MessageAdded, map[string]interface{}{"role": string(msg.Role)})
}

// Context renders the prompt context for an agent.
func (m *Mind) Context(agentID string) (string, error) {
	mgr, err := m.registry.Get(agentID)
	if err != nil {
		return "", err
	}
	return mgr.RenderContext(), nil
}

// Summarize replaces a lane's recent messages with summary and saves.
// The summary is produced by the caller, typically from LaneForSummarization.
func (m *Mind) Summarize(agentID, lane, summary string) error {
	mgr, err := m.registry.Get(agentID)
	if err != nil {
		return err
	}
	if err := mgr.ApplyLaneSummary(lane, summary); err != nil {
		return err
	}
	return m.registry.Commit(agentID, event.LaneSummarized, map[string]interface{}{"lane": lane})
}

// Reflect merges a persona update and saves.
func (m *Mind) Reflect(agentID string, u PersonaUpdate) error {
	mgr, err := m.registry.Get(agentID)
	if err != nil {
		return err
	}
	p := mgr.ApplyPersonaUpdate(u)
	return m.registry.Commit(agentID, event.PersonaUpdated, map[string]interface{}{"version": p.Version})
}

// Reset deletes an agent's stored state.
func (m *Mind) Reset(agentID string) error {
	return m.registry.Reset(agentID)
}

// Agents lists every known agent.
func (m *Mind) Agents() ([]string, error) {
	return m.registry.Agents()
}

// Close waits for pending hooks and closes the store.
func (m *Mind) Close() error {
	err := m.registry.Close()
	m.logger.Close()
	return err
}
