package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cadre-oss/agentmind/internal/memory"
)

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.State.History = 2
	cfg.Inspect.Format = "yaml"

	opts := StoreOptions(cfg)
	if opts.History != 2 {
		t.Errorf("History = %d", opts.History)
	}
	if opts.Sidecar == nil || opts.Sidecar.Name != "MEMORY.yaml" {
		t.Fatalf("unexpected sidecar: %+v", opts.Sidecar)
	}
	data, err := opts.Sidecar.Render(memory.NewState("ada", 0))
	if err != nil || len(data) == 0 {
		t.Errorf("Render: %q, %v", data, err)
	}

	cfg.Inspect.Enabled = false
	if StoreOptions(cfg).Sidecar != nil {
		t.Error("expected no sidecar when inspect is disabled")
	}
}

func TestOpenStore_WritesSidecar(t *testing.T) {
	cfg := Default()
	cfg.State.Path = filepath.Join(t.TempDir(), "state")

	store, err := OpenStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Save(memory.NewState("ada", 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cfg.State.Path, "ada", "MEMORY.md")); err != nil {
		t.Errorf("expected MEMORY.md sidecar: %v", err)
	}
}
