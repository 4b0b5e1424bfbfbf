package memory

import (
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T, opts Options) (*Manager, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return NewManager("test-agent", nil, opts, WithClock(clock.Now)), clock
}

func mustAdd(t *testing.T, m *Manager, role, content string) Message {
	t.Helper()
	msg, err := m.AddMessage(role, content)
	if err != nil {
		t.Fatalf("AddMessage(%s): %v", role, err)
	}
	return msg
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
