package testutil

import (
	"sync"
	"time"

	"github.com/cadre-oss/agentmind/internal/config"
	"github.com/cadre-oss/agentmind/internal/memory"
	"github.com/cadre-oss/agentmind/internal/state"
	"github.com/cadre-oss/agentmind/internal/telemetry"
)

// Clock is a manually advanced clock. Each call to Now moves it forward by
// Step so consecutive timestamps differ.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start, Step: time.Second}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}

// Advance moves the clock forward without reading it.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// MockStore wraps a MemoryStore and can be told to fail saves or loads.
type MockStore struct {
	*state.MemoryStore

	mu        sync.Mutex
	SaveErr   error
	LoadErr   error
	SaveCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: state.NewMemoryStore()}
}

func (s *MockStore) Save(st *memory.MemoryState) error {
	s.mu.Lock()
	s.SaveCalls++
	err := s.SaveErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Save(st)
}

func (s *MockStore) Load(agentID string) (*memory.MemoryState, error) {
	s.mu.Lock()
	err := s.LoadErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.MemoryStore.Load(agentID)
}

// Saves returns how many times Save was called.
func (s *MockStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SaveCalls
}

// TestLogger returns a logger suitable for tests (errors only, no file output).
func TestLogger() *telemetry.Logger {
	return telemetry.NewLogger("error")
}

// TestConfig returns a config over the in-memory store with a small context
// budget so summarization triggers quickly.
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.State = config.StateConfig{Driver: "memory"}
	cfg.Inspect.Enabled = false
	cfg.Logging.Level = "error"
	cfg.Memory.ContextTokens = 200
	return cfg
}
