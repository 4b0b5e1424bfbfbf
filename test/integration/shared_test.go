//go:build integration

package integration

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/cadre-oss/agentmind/internal/testutil"
)

var errBoom = errors.New("boom")

func TestAgentsAreIsolated(t *testing.T) {
	h := testutil.NewTestHarness(t)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("agent-%d", i)
			mgr, err := h.Registry.Get(id)
			if err != nil {
				t.Error(err)
				return
			}
			for j := 0; j <= i; j++ {
				if _, err := mgr.AddMessage("user", "ping"); err != nil {
					t.Error(err)
				}
			}
			if err := h.Registry.Save(id); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	agents, err := h.Registry.Agents()
	if err != nil {
		t.Fatal(err)
	}
	if len(agents) != 5 {
		t.Fatalf("Agents() = %v", agents)
	}
	for i, id := range agents {
		if got := h.Manager(id).Status().RecentMessages; got != i+1 {
			t.Errorf("%s has %d messages, want %d", id, got, i+1)
		}
	}
}
