package state

import (
	"sort"
	"sync"
	"time"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/event"
	"github.com/cadre-oss/agentmind/internal/memory"
	"github.com/cadre-oss/agentmind/internal/telemetry"
)

// Registry hands out one memory.Manager per agent identity and persists it
// through a Store. Managers are loaded lazily and reused for the life of the
// registry.
type Registry struct {
	store   Store
	opts    memory.Options
	mopts   []memory.ManagerOption
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	bus     *event.Bus

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mgr *memory.Manager
	// saveMu orders snapshots so an older one never overwrites a newer one.
	saveMu sync.Mutex
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithLogger(l *telemetry.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

func WithMetrics(m *telemetry.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

func WithBus(b *event.Bus) RegistryOption {
	return func(r *Registry) { r.bus = b }
}

// WithManagerOptions passes options (such as a clock) to every manager created.
func WithManagerOptions(opts ...memory.ManagerOption) RegistryOption {
	return func(r *Registry) { r.mopts = append(r.mopts, opts...) }
}

// NewRegistry creates a registry over store. The registry owns store and
// closes it in Close.
func NewRegistry(store Store, opts memory.Options, ropts ...RegistryOption) *Registry {
	r := &Registry{
		store:   store,
		opts:    opts,
		logger:  telemetry.NewNopLogger(),
		metrics: telemetry.NewMetrics(),
		entries: make(map[string]*entry),
	}
	for _, o := range ropts {
		o(r)
	}
	return r
}

// Store returns the backing store.
func (r *Registry) Store() Store {
	return r.store
}

// Metrics returns the counters the registry updates.
func (r *Registry) Metrics() *telemetry.Metrics {
	return r.metrics
}

// Get returns the manager for agentID, loading persisted state on first use.
// Missing or unreadable state yields a fresh empty state.
func (r *Registry) Get(agentID string) (*memory.Manager, error) {
	e, err := r.entry(agentID)
	if err != nil {
		return nil, err
	}
	return e.mgr, nil
}

func (r *Registry) entry(agentID string) (*entry, error) {
	if err := ValidateAgentID(agentID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[agentID]; ok {
		return e, nil
	}

	st, err := r.store.Load(agentID)
	switch {
	case err == nil:
		r.logger.Debug("Loaded memory state", "agent", agentID,
			"messages", len(st.RecentMessages), "persona_version", st.Persona.Version)
	case apperrors.HasCode(err, apperrors.CodeStateNotFound):
		st = nil
	default:
		r.logger.Warn("Persisted memory state unreadable, starting empty", "agent", agentID, "error", err)
		r.Notify(event.StateLoadFailed, agentID, map[string]interface{}{"error": err.Error()})
		st = nil
	}
	if st != nil && st.AgentID != agentID {
		r.logger.Warn("Persisted state belongs to another agent, starting empty",
			"agent", agentID, "found", st.AgentID)
		st = nil
	}

	e := &entry{mgr: memory.NewManager(agentID, st, r.opts, r.mopts...)}
	r.entries[agentID] = e
	r.metrics.SetActiveAgents(len(r.entries))
	return e, nil
}

// Save persists the agent's current state and signals any pending
// summarization or reflection.
func (r *Registry) Save(agentID string) error {
	return r.Commit(agentID, "", nil)
}

// Commit saves the agent's state and, once the write succeeded, publishes
// change (when non-empty) followed by the save and pending-work events. Only
// a failed save is returned; hook failures are logged.
func (r *Registry) Commit(agentID string, change event.EventType, data map[string]interface{}) error {
	e, err := r.entry(agentID)
	if err != nil {
		return err
	}

	e.saveMu.Lock()
	snap := e.mgr.Snapshot()
	start := time.Now()
	err = r.store.Save(snap)
	e.saveMu.Unlock()

	if err != nil {
		r.metrics.IncSaveFailures()
		r.logger.Error("Failed to save memory state", "agent", agentID, "error", err)
		if apperrors.AsCode(err) == "" {
			err = apperrors.Wrap(apperrors.CodeStateIO, "failed to save state", err)
		}
		return err
	}
	r.metrics.RecordSave(time.Since(start))
	r.metrics.Flush(telemetry.Snapshot{
		Event:           string(event.StateSaved),
		Agent:           agentID,
		PersonaVersion:  snap.Persona.Version,
		Messages:        len(snap.RecentMessages),
		EstimatedTokens: e.mgr.EstimateTokens(),
	})
	r.logger.Debug("Saved memory state", "agent", agentID,
		"messages", len(snap.RecentMessages), "persona_version", snap.Persona.Version)

	if change != "" {
		r.Notify(change, agentID, data)
	}
	r.Notify(event.StateSaved, agentID, map[string]interface{}{
		"messages":        len(snap.RecentMessages),
		"persona_version": snap.Persona.Version,
	})
	if e.mgr.NeedsSummarization() {
		r.Notify(event.SummarizationDue, agentID, map[string]interface{}{
			"estimated_tokens": e.mgr.EstimateTokens(),
		})
	}
	if e.mgr.NeedsReflection() {
		r.Notify(event.ReflectionDue, agentID, nil)
	}
	return nil
}

// Reset deletes persisted state and forgets the live manager. The next Get
// starts from an empty state.
func (r *Registry) Reset(agentID string) error {
	if err := ValidateAgentID(agentID); err != nil {
		return err
	}

	r.mu.Lock()
	if err := r.store.Delete(agentID); err != nil {
		r.mu.Unlock()
		return err
	}
	delete(r.entries, agentID)
	r.metrics.SetActiveAgents(len(r.entries))
	r.mu.Unlock()

	r.logger.Info("Reset memory state", "agent", agentID)
	r.Notify(event.StateReset, agentID, nil)
	return nil
}

// Agents returns every known identity, persisted or live, sorted.
func (r *Registry) Agents() ([]string, error) {
	stored, err := r.store.List()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(stored))
	for _, id := range stored {
		seen[id] = true
	}
	r.mu.Lock()
	for id := range r.entries {
		seen[id] = true
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Notify publishes an event describing a change that is already committed.
// Hook failures cannot undo it, so they are logged and dropped.
func (r *Registry) Notify(t event.EventType, agentID string, data map[string]interface{}) {
	_ = r.emit(t, agentID, data)
}

func (r *Registry) emit(t event.EventType, agentID string, data map[string]interface{}) error {
	if err := r.bus.Emit(event.NewEvent(t, agentID, data)); err != nil {
		r.logger.Warn("Event hook failed", "event", string(t), "agent", agentID, "error", err)
		return err
	}
	return nil
}

// Close drains pending hooks and closes the store.
func (r *Registry) Close() error {
	r.bus.Wait()
	return r.store.Close()
}
