package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cadre-oss/agentmind/internal/memory"
)

// MemoryStore keeps encoded states in a map. Encoding on save gives callers
// the same copy semantics as the durable drivers.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

func (s *MemoryStore) Load(agentID string) (*memory.MemoryState, error) {
	s.mu.RLock()
	data, ok := s.states[agentID]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(agentID)
	}
	return decodeState(data)
}

func (s *MemoryStore) Save(st *memory.MemoryState) error {
	if err := ValidateAgentID(st.AgentID); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.AgentID] = data
	return nil
}

func (s *MemoryStore) Delete(agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, agentID)
	return nil
}

func (s *MemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the store (no-op for memory)
func (s *MemoryStore) Close() error {
	return nil
}

// decodeState parses persisted JSON into a normalized state.
func decodeState(data []byte) (*memory.MemoryState, error) {
	var st memory.MemoryState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	st.Normalize()
	return &st, nil
}
