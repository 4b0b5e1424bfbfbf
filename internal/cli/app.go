package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/cadre-oss/agentmind/internal/config"
	"github.com/cadre-oss/agentmind/internal/event"
	"github.com/cadre-oss/agentmind/internal/state"
	"github.com/cadre-oss/agentmind/internal/telemetry"
)

// configPath returns the file config is read from.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.FileName
}

// loadConfig reads the YAML file, layers environment and flag overrides on
// top and validates the result.
func loadConfig() (*config.Config, error) {
	path := configPath()
	if cfgFile != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg)
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides copies values set through AGENTMIND_* variables or flags.
func applyOverrides(cfg *config.Config) {
	str := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	flt := func(key string, dst *float64) {
		if viper.IsSet(key) {
			*dst = viper.GetFloat64(key)
		}
	}
	flag := func(key string, dst *bool) {
		if viper.IsSet(key) {
			*dst = viper.GetBool(key)
		}
	}

	driverBefore := cfg.State.Driver
	str("state.driver", &cfg.State.Driver)
	if cfg.State.Driver != driverBefore && !viper.IsSet("state.path") {
		cfg.State.Path = config.DefaultPath(cfg.State.Driver)
	}
	str("state.path", &cfg.State.Path)
	num("state.history", &cfg.State.History)
	flag("inspect.enabled", &cfg.Inspect.Enabled)
	str("inspect.format", &cfg.Inspect.Format)
	str("logging.level", &cfg.Logging.Level)
	str("logging.file", &cfg.Logging.File)
	str("metrics.path", &cfg.Metrics.Path)
	flag("hooks.enabled", &cfg.Hooks.Enabled)

	m := &cfg.Memory
	num("memory.context_tokens", &m.ContextTokens)
	flt("memory.avg_chars_per_token", &m.AvgCharsPerToken)
	flt("memory.high_ratio", &m.HighRatio)
	flt("memory.low_ratio", &m.LowRatio)
	num("memory.keep_recent_per_lane", &m.KeepRecentPerLane)
	num("memory.min_reflect_gap_turns", &m.MinReflectGapTurns)
	flt("memory.decay_per_pass", &m.DecayPerPass)
	flt("memory.min_keep_weight", &m.MinKeepWeight)
	flt("memory.merge_aggressiveness", &m.MergeAggressiveness)
}

// app bundles the long-lived collaborators a command needs.
type app struct {
	cfg      *config.Config
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	exporter *telemetry.JSONFileExporter
	bus      *event.Bus
	registry *state.Registry
}

func newApp(cfg *config.Config) (*app, error) {
	logger := telemetry.NewLogger(cfg.Logging.Level)
	if cfg.Logging.File != "" {
		if err := logger.WithFile(cfg.Logging.File); err != nil {
			return nil, err
		}
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: telemetry.NewMetrics(),
		bus:     event.NewBus(logger),
	}

	if cfg.Metrics.Path != "" {
		exp, err := telemetry.NewJSONFileExporter(cfg.Metrics.Path)
		if err != nil {
			logger.Close()
			return nil, err
		}
		a.exporter = exp
		a.metrics.SetExporter(exp)
	}

	hooks, err := config.BuildHooks(cfg.Hooks, logger)
	if err != nil {
		a.closeAux()
		return nil, err
	}
	for _, h := range hooks {
		a.bus.Register(h)
	}

	store, err := config.OpenStore(cfg)
	if err != nil {
		a.closeAux()
		return nil, err
	}

	a.registry = state.NewRegistry(store, cfg.Memory,
		state.WithLogger(logger),
		state.WithMetrics(a.metrics),
		state.WithBus(a.bus),
	)
	logger.Debug("State store opened", "driver", cfg.State.Driver, "path", cfg.State.Path, "hooks", a.bus.Len())
	return a, nil
}

// openApp loads configuration and builds the app in one step.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func (a *app) Close() error {
	err := a.registry.Close()
	a.closeAux()
	return err
}

func (a *app) closeAux() {
	a.bus.Wait()
	if a.exporter != nil {
		a.exporter.Close()
	}
	a.logger.Close()
}
