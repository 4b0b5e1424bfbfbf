package memory

import (
	"sync"
	"testing"
	"time"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
)

func TestManager_NewStateIsEmpty(t *testing.T) {
	m, clock := newTestManager(t, DefaultOptions())
	s := m.Snapshot()

	if s.AgentID != "test-agent" {
		t.Errorf("expected agent id test-agent, got %q", s.AgentID)
	}
	if s.Version != StateVersion {
		t.Errorf("expected state version %d, got %d", StateVersion, s.Version)
	}
	if s.Persona.Version != 0 {
		t.Errorf("expected persona version 0, got %d", s.Persona.Version)
	}
	if len(s.RecentMessages) != 0 || s.BasePrompt != "" || s.NormativeBlock != "" {
		t.Error("expected empty state")
	}
	if s.CreatedAt != clock.Now().UnixMilli() {
		t.Errorf("unexpected createdAt %d", s.CreatedAt)
	}
}

func TestManager_AddMessage_UnknownRole(t *testing.T) {
	m, _ := newTestManager(t, DefaultOptions())

	_, err := m.AddMessage("narrator", "once upon a time")
	if err == nil {
		t.Fatal("expected error")
	}
	if apperrors.AsCode(err) != apperrors.CodeUnknownRole {
		t.Errorf("expected %s, got %s", apperrors.CodeUnknownRole, apperrors.AsCode(err))
	}
	if m.Status().TurnCounter != 0 {
		t.Error("rejected message should not count as a turn")
	}
}

func TestManager_ApplyLaneSummary_UnknownLane(t *testing.T) {
	m, _ := newTestManager(t, DefaultOptions())
	mustAdd(t, m, "user", "keep me")

	err := m.ApplyLaneSummary("tool", "x")
	if apperrors.AsCode(err) != apperrors.CodeUnknownLane {
		t.Fatalf("expected %s, got %v", apperrors.CodeUnknownLane, err)
	}
	if len(m.Snapshot().RecentMessages) != 1 {
		t.Error("rejected call must not touch the buffer")
	}
}

func TestManager_TimestampsStrictlyIncrease(t *testing.T) {
	m, clock := newTestManager(t, DefaultOptions())

	a := mustAdd(t, m, "user", "a")
	b := mustAdd(t, m, "user", "b")
	if b.Timestamp <= a.Timestamp {
		t.Errorf("expected increasing timestamps, got %d then %d", a.Timestamp, b.Timestamp)
	}

	clock.Advance(-time.Second)
	c := mustAdd(t, m, "user", "c")
	if c.Timestamp <= b.Timestamp {
		t.Errorf("timestamp went backwards: %d after %d", c.Timestamp, b.Timestamp)
	}
}

func TestManager_SnapshotIsIndependent(t *testing.T) {
	m, _ := newTestManager(t, DefaultOptions())
	mustAdd(t, m, "user", "hello")
	m.ApplyPersonaUpdate(PersonaUpdate{Persona: PersonaPatch{Roles: []PersonaFacet{{Text: "guide", Weight: 1}}}})

	snap := m.Snapshot()
	snap.RecentMessages[0].Content = "mutated"
	snap.Persona.Roles[0].Text = "mutated"

	again := m.Snapshot()
	if again.RecentMessages[0].Content != "hello" {
		t.Error("snapshot shares message storage with manager")
	}
	if again.Persona.Roles[0].Text != "guide" {
		t.Error("snapshot shares persona storage with manager")
	}
}

func TestManager_Status(t *testing.T) {
	opts := DefaultOptions()
	opts.ContextTokens = 20
	m, _ := newTestManager(t, opts)

	st := m.Status()
	if st.NeedsSummarization || st.NeedsReflection || st.HasLaneSummaries {
		t.Fatalf("unexpected flags on empty state: %+v", st)
	}

	for i := 0; i < 3; i++ {
		mustAdd(t, m, "user", "some content here")
	}
	m.ApplyPersonaUpdate(PersonaUpdate{Persona: PersonaPatch{Style: []PersonaFacet{{Text: "warm", Weight: 0.9}}}})
	if err := m.ApplyLaneSummary("user", "summary"); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, m, "user", "more")

	st = m.Status()
	if st.PersonaVersion != 1 {
		t.Errorf("expected persona version 1, got %d", st.PersonaVersion)
	}
	if st.PersonaCounts[CategoryStyle] != 1 || st.PersonaCounts[CategoryRoles] != 0 {
		t.Errorf("unexpected persona counts: %v", st.PersonaCounts)
	}
	if st.RecentMessages != 4 {
		t.Errorf("expected 4 recent messages, got %d", st.RecentMessages)
	}
	if !st.HasLaneSummaries {
		t.Error("expected lane summaries")
	}
	if st.TurnCounter != 4 {
		t.Errorf("expected turn counter 4, got %d", st.TurnCounter)
	}
	if !st.NeedsSummarization {
		t.Errorf("expected needs_summarization with %d tokens", st.EstimatedTokens)
	}
	if st.NeedsReflection {
		t.Error("only one turn since reflection")
	}
}

func TestManager_ConcurrentMutations(t *testing.T) {
	m, _ := newTestManager(t, DefaultOptions())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = m.AddMessage("user", "hi")
		}()
		go func() {
			defer wg.Done()
			_ = m.ApplyLaneSummary("user", "s")
		}()
		go func() {
			defer wg.Done()
			m.ApplyPersonaUpdate(PersonaUpdate{Persona: PersonaPatch{Goals: []PersonaFacet{{Text: "g", Weight: 0.5}}}})
		}()
	}
	wg.Wait()

	st := m.Status()
	if st.TurnCounter != 20 {
		t.Errorf("expected 20 turns, got %d", st.TurnCounter)
	}
	if st.PersonaVersion != 20 {
		t.Errorf("expected persona version 20, got %d", st.PersonaVersion)
	}
	if st.RecentMessages > m.Options().KeepRecentPerLane+20 {
		t.Errorf("unexpected buffer size %d", st.RecentMessages)
	}
}
