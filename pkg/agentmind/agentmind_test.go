package agentmind

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cadre-oss/agentmind/internal/config"
)

func TestOpenInMemory_Lifecycle(t *testing.T) {
	mind, err := OpenInMemory(DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer mind.Close()

	mgr, err := mind.Agent("ada")
	if err != nil {
		t.Fatal(err)
	}
	mgr.SetBasePrompt("You are Ada.")

	for i := 0; i < 6; i++ {
		if _, err := mind.AddMessage("ada", "user", "question"); err != nil {
			t.Fatal(err)
		}
	}
	if err := mind.Summarize("ada", "user", "asked six questions"); err != nil {
		t.Fatal(err)
	}
	if err := mind.Reflect("ada", PersonaUpdate{}); err != nil {
		t.Fatal(err)
	}

	ctx, err := mind.Context("ada")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"You are Ada.", "asked six questions", "[DYNAMIC PERSONA v1]"} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}
	if got := mgr.Status().RecentMessages; got != 4 {
		t.Errorf("RecentMessages = %d, want 4", got)
	}
}

func TestOpenConfig_FileStorePersists(t *testing.T) {
	cfg := config.Default()
	cfg.State.Path = filepath.Join(t.TempDir(), "state")

	mind, err := OpenConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mind.AddMessage("bot", "assistant", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := mind.Close(); err != nil {
		t.Fatal(err)
	}

	again, err := OpenConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()

	agents, err := again.Agents()
	if err != nil {
		t.Fatal(err)
	}
	if len(agents) != 1 || agents[0] != "bot" {
		t.Errorf("Agents() = %v", agents)
	}
	mgr, _ := again.Agent("bot")
	if mgr.Status().RecentMessages != 1 {
		t.Errorf("expected the persisted message to reload")
	}

	if err := again.Reset("bot"); err != nil {
		t.Fatal(err)
	}
	if agents, _ := again.Agents(); len(agents) != 0 {
		t.Errorf("Agents() after reset = %v", agents)
	}
}

func TestOpenConfig_WritesInspectSidecar(t *testing.T) {
	cfg := config.Default()
	cfg.State.Path = filepath.Join(t.TempDir(), "state")

	mind, err := OpenConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer mind.Close()

	if _, err := mind.AddMessage("bot", "user", "hello"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.State.Path, "bot", "MEMORY.md"))
	if err != nil {
		t.Fatalf("expected MEMORY.md next to the state: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("sidecar missing the message:\n%s", data)
	}
}

func TestAddMessage_FailingHookStillSaves(t *testing.T) {
	cfg := config.Default()
	cfg.State = config.StateConfig{Driver: "memory"}
	cfg.Logging.Level = "error"
	cfg.Hooks = config.HooksConfig{
		Enabled: true,
		Hooks: []config.HookConfig{{
			Name:     "reject",
			Type:     "shell",
			Events:   []string{"memory.message.added"},
			Blocking: true,
			Command:  "exit 1",
		}},
	}

	mind, err := OpenConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer mind.Close()

	for i := 0; i < 2; i++ {
		if _, err := mind.AddMessage("ada", "user", "hi"); err != nil {
			t.Fatalf("AddMessage %d: %v", i, err)
		}
	}
	mgr, _ := mind.Agent("ada")
	st, err := mind.registry.Store().Load("ada")
	if err != nil {
		t.Fatal(err)
	}
	if len(st.RecentMessages) != 2 || mgr.Status().RecentMessages != 2 {
		t.Errorf("store has %d messages, manager %d", len(st.RecentMessages), mgr.Status().RecentMessages)
	}
}

func TestOpenConfig_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.State.Driver = "postgres"
	if _, err := OpenConfig(cfg); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}

func TestAddMessage_UnknownRole(t *testing.T) {
	mind, _ := OpenInMemory(DefaultOptions())
	defer mind.Close()
	if _, err := mind.AddMessage("ada", "narrator", "hi"); err == nil {
		t.Error("expected an error for an unknown role")
	}
	if _, err := mind.AddMessage("../etc", "user", "hi"); err == nil {
		t.Error("expected an error for an invalid agent id")
	}
}
