package memory

import (
	"sync"
	"time"
)

// Manager owns one agent's MemoryState and serializes every mutation on it.
// The turn counter and last reflection turn live only as long as the Manager.
type Manager struct {
	mu              sync.Mutex
	state           *MemoryState
	opts            Options
	now             func() time.Time
	turnCounter     int
	lastReflectTurn int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager wraps state. A nil state is replaced with an empty one for agentID.
func NewManager(agentID string, state *MemoryState, opts Options, mopts ...ManagerOption) *Manager {
	m := &Manager{opts: opts, now: time.Now}
	for _, o := range mopts {
		o(m)
	}
	if state == nil {
		state = NewState(agentID, m.nowMillis())
	}
	if state.RecentMessages == nil {
		state.RecentMessages = []Message{}
	}
	m.state = state
	return m
}

// AgentID returns the identity this manager serves.
func (m *Manager) AgentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.AgentID
}

// Options returns the tuning in effect.
func (m *Manager) Options() Options {
	return m.opts
}

// AddMessage appends a message and advances the turn counter. Timestamps are
// strictly increasing within the buffer.
func (m *Manager) AddMessage(role, content string) (Message, error) {
	r, err := ParseRole(role)
	if err != nil {
		return Message{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ts := m.nowMillis()
	if n := len(m.state.RecentMessages); n > 0 {
		if last := m.state.RecentMessages[n-1].Timestamp; ts <= last {
			ts = last + 1
		}
	}

	msg := Message{Role: r, Content: content, Timestamp: ts}
	m.state.RecentMessages = append(m.state.RecentMessages, msg)
	m.turnCounter++
	m.touch()
	return msg, nil
}

// SetBasePrompt sets the base identity text.
func (m *Manager) SetBasePrompt(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.BasePrompt = text
	m.touch()
}

// SetNormativeBlock replaces the normative policy text.
func (m *Manager) SetNormativeBlock(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.NormativeBlock = text
	m.touch()
}

// LaneForSummarization returns the lane's compressible slice as bullet text.
// An empty string means there is nothing to summarize.
func (m *Manager) LaneForSummarization(lane string) (string, error) {
	l, err := ParseLane(lane)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return LaneForSummarization(m.state, l, m.opts.KeepRecentPerLane), nil
}

// ApplyLaneSummary folds an externally produced summary into the lane and
// compacts the recent-message buffer of every role.
func (m *Manager) ApplyLaneSummary(lane, summary string) error {
	l, err := ParseLane(lane)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ApplyLaneSummary(m.state, l, summary, m.opts.KeepRecentPerLane, m.nowMillis())
	m.touch()
	return nil
}

// RecentForReflection returns the newest max messages, oldest first.
func (m *Manager) RecentForReflection(max int) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return RecentForReflection(m.state, max)
}

// ApplyPersonaUpdate merges a mined persona update and records the reflection turn.
func (m *Manager) ApplyPersonaUpdate(u PersonaUpdate) PersonaModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	ApplyPersonaUpdate(&m.state.Persona, u, m.opts, m.turnCounter)
	m.lastReflectTurn = m.turnCounter
	m.touch()
	return m.state.Persona.Clone()
}

// NeedsReflection reports whether enough turns passed since the last persona update.
func (m *Manager) NeedsReflection() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.needsReflectionLocked()
}

func (m *Manager) needsReflectionLocked() bool {
	return m.turnCounter-m.lastReflectTurn >= m.opts.MinReflectGapTurns
}

// NeedsSummarization reports whether the context estimate is over the high-water mark.
func (m *Manager) NeedsSummarization() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NeedsSummarization(m.state, m.opts)
}

// EstimateTokens returns the approximate token cost of the assembled context.
func (m *Manager) EstimateTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return EstimateTokens(m.state, m.opts)
}

// RenderContext returns the layered context string.
func (m *Manager) RenderContext() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return RenderContext(m.state)
}

// Snapshot returns a deep copy of the state, suitable for persistence.
func (m *Manager) Snapshot() *MemoryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Status is a read-only view of the manager.
type Status struct {
	AgentID            string           `json:"agent_id"`
	PersonaVersion     int              `json:"persona_version"`
	PersonaCounts      map[Category]int `json:"persona_counts"`
	RecentMessages     int              `json:"recent_messages"`
	HasLaneSummaries   bool             `json:"has_lane_summaries"`
	EstimatedTokens    int              `json:"estimated_tokens"`
	TurnCounter        int              `json:"turn_counter"`
	NeedsSummarization bool             `json:"needs_summarization"`
	NeedsReflection    bool             `json:"needs_reflection"`
}

// Status returns an introspection snapshot.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = len(m.state.Persona.Facets(c))
	}

	return Status{
		AgentID:            m.state.AgentID,
		PersonaVersion:     m.state.Persona.Version,
		PersonaCounts:      counts,
		RecentMessages:     len(m.state.RecentMessages),
		HasLaneSummaries:   m.state.LaneSummaries.Any(),
		EstimatedTokens:    EstimateTokens(m.state, m.opts),
		TurnCounter:        m.turnCounter,
		NeedsSummarization: NeedsSummarization(m.state, m.opts),
		NeedsReflection:    m.needsReflectionLocked(),
	}
}

func (m *Manager) touch() {
	m.state.UpdatedAt = m.nowMillis()
}

func (m *Manager) nowMillis() int64 {
	return m.now().UnixMilli()
}
