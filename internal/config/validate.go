package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/event"
	"github.com/cadre-oss/agentmind/internal/telemetry"
)

// Validate checks every section and reports all problems at once.
func Validate(cfg *Config) error {
	var errors []string

	if err := cfg.Memory.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if !slices.Contains(Drivers, cfg.State.Driver) {
		errors = append(errors, fmt.Sprintf("unknown state driver: %s", cfg.State.Driver))
	}
	if cfg.State.Driver != "memory" && cfg.State.Path == "" {
		errors = append(errors, "state.path is required")
	}
	if cfg.State.History < 0 {
		errors = append(errors, "state.history must not be negative")
	}

	if !slices.Contains(InspectFormats, cfg.Inspect.Format) {
		errors = append(errors, fmt.Sprintf("unknown inspect format: %s", cfg.Inspect.Format))
	}

	if !telemetry.IsLevel(cfg.Logging.Level) {
		errors = append(errors, fmt.Sprintf("unknown log level: %s", cfg.Logging.Level))
	}

	seen := make(map[string]bool)
	for i, h := range cfg.Hooks.Hooks {
		if h.Name == "" {
			errors = append(errors, fmt.Sprintf("hooks[%d]: name is required", i))
		} else if seen[h.Name] {
			errors = append(errors, fmt.Sprintf("hooks[%d]: duplicate name %s", i, h.Name))
		}
		seen[h.Name] = true

		spec, err := h.Spec()
		if err != nil {
			errors = append(errors, err.Error())
			continue
		}
		if _, err := event.Build(spec, nil); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if len(errors) > 0 {
		return apperrors.New(apperrors.CodeConfigInvalid,
			"config validation failed: "+strings.Join(errors, "; ")).
			WithSuggestion("Run 'agentmind config show' to see the effective configuration")
	}
	return nil
}

// Spec converts the YAML hook definition into an event.Spec.
func (h HookConfig) Spec() (event.Spec, error) {
	spec := event.Spec{
		Name:     h.Name,
		Type:     h.Type,
		Events:   h.Events,
		Blocking: h.Blocking,
		Command:  h.Command,
		URL:      h.URL,
		Level:    h.Level,
	}
	if h.Timeout != "" {
		d, err := time.ParseDuration(h.Timeout)
		if err != nil {
			return spec, fmt.Errorf("hook %s: invalid timeout %q", h.Name, h.Timeout)
		}
		spec.Timeout = d
	}
	return spec, nil
}

// BuildHooks constructs the configured hooks. Returns nil when hooks are disabled.
func BuildHooks(cfg HooksConfig, logger event.Logger) ([]event.Hook, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	hooks := make([]event.Hook, 0, len(cfg.Hooks))
	for _, hc := range cfg.Hooks {
		spec, err := hc.Spec()
		if err != nil {
			return nil, err
		}
		h, err := event.Build(spec, logger)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, h)
	}
	return hooks, nil
}
