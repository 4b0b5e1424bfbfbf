package config

import (
	"github.com/cadre-oss/agentmind/internal/inspect"
	"github.com/cadre-oss/agentmind/internal/memory"
	"github.com/cadre-oss/agentmind/internal/state"
)

// StoreOptions translates the state and inspect sections into store options.
// With inspect enabled, every save also writes the rendered sidecar file.
func StoreOptions(cfg *Config) state.StoreOptions {
	opts := state.StoreOptions{History: cfg.State.History}
	if cfg.Inspect.Enabled {
		format := cfg.Inspect.Format
		opts.Sidecar = &state.Sidecar{
			Name: inspect.SidecarName(format),
			Render: func(st *memory.MemoryState) ([]byte, error) {
				return inspect.Render(format, st)
			},
		}
	}
	return opts
}

// OpenStore opens the store described by cfg.
func OpenStore(cfg *Config) (state.Store, error) {
	return state.NewStore(cfg.State.Driver, cfg.State.Path, StoreOptions(cfg))
}
