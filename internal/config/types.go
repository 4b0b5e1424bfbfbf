package config

import "github.com/cadre-oss/agentmind/internal/memory"

// FileName is the project configuration file looked up in the working directory.
const FileName = "agentmind.yaml"

// Config represents the main project configuration (agentmind.yaml)
type Config struct {
	Memory  memory.Options `yaml:"memory" json:"memory"`
	State   StateConfig    `yaml:"state" json:"state"`
	Inspect InspectConfig  `yaml:"inspect" json:"inspect"`
	Logging LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics MetricsConfig  `yaml:"metrics" json:"metrics"`
	Hooks   HooksConfig    `yaml:"hooks" json:"hooks"`
}

// StateConfig configures state storage
type StateConfig struct {
	Driver  string `yaml:"driver" json:"driver"`   // file, sqlite, sqlite-nocgo, memory
	Path    string `yaml:"path" json:"path"`       // directory for file, database file for sqlite
	History int    `yaml:"history" json:"history"` // file driver only; 0 disables snapshots
}

// InspectConfig controls the human-readable sidecar written next to file state.
type InspectConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Format  string `yaml:"format" json:"format"` // markdown, yaml
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"` // debug, info, warn, error
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// MetricsConfig configures the JSONL metrics exporter. Empty path disables it.
type MetricsConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"` // shell, webhook, log
	Events   []string `yaml:"events" json:"events"`
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"`
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`
	Timeout  string   `yaml:"timeout,omitempty" json:"timeout,omitempty"` // e.g. "5s"
}

// Drivers lists the accepted state.driver values.
var Drivers = []string{"file", "sqlite", "sqlite-nocgo", "memory"}

// InspectFormats lists the accepted inspect.format values.
var InspectFormats = []string{"markdown", "yaml"}
