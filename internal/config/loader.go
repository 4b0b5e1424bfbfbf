package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cadre-oss/agentmind/internal/memory"
)

var (
	envDotPattern = regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	envPattern    = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// Load reads agentmind.yaml from dir. A missing file yields Default().
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// DotEnvFile is loaded from the config file's directory before interpolation.
const DotEnvFile = ".env"

// LoadFile reads a configuration file. A missing file yields Default().
// Variables from a sibling .env file are exported first; variables already
// set in the environment win.
func LoadFile(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Dir(path)); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(content)
}

func loadDotEnv(dir string) error {
	envPath := filepath.Join(dir, DotEnvFile)
	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	return nil
}

// Parse decodes YAML over the defaults, so absent keys keep their default
// while explicit values (including zero) win.
func Parse(content []byte) (*Config, error) {
	content = []byte(interpolateEnv(string(content)))

	cfg := Default()
	// The path default depends on the driver, so it is resolved after decoding.
	cfg.State.Path = ""
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values.
// Unset variables are left as written.
func interpolateEnv(content string) string {
	replace := func(re *regexp.Regexp) func(string) string {
		return func(match string) string {
			name := re.FindStringSubmatch(match)[1]
			if val, ok := os.LookupEnv(name); ok && val != "" {
				return val
			}
			return match
		}
	}
	content = envDotPattern.ReplaceAllStringFunc(content, replace(envDotPattern))
	return envPattern.ReplaceAllStringFunc(content, replace(envPattern))
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Memory: memory.DefaultOptions(),
		State: StateConfig{
			Driver:  "file",
			Path:    DefaultPath("file"),
			History: 5,
		},
		Inspect: InspectConfig{
			Enabled: true,
			Format:  "markdown",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// applyDefaults fills string fields left empty by an explicit blank value.
func applyDefaults(cfg *Config) {
	if cfg.State.Driver == "" {
		cfg.State.Driver = "file"
	}
	if cfg.State.Path == "" {
		cfg.State.Path = DefaultPath(cfg.State.Driver)
	}
	if cfg.Inspect.Format == "" {
		cfg.Inspect.Format = "markdown"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// DefaultPath returns the conventional storage location for a driver.
func DefaultPath(driver string) string {
	switch driver {
	case "sqlite", "sqlite-nocgo":
		return ".agentmind/state.db"
	case "memory":
		return ""
	default:
		return ".agentmind/state"
	}
}
