package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// starterTemplate is written by `agentmind init`. Every key mirrors Default().
const starterTemplate = `# agentmind configuration
# ${VAR} is expanded from the environment and from a .env file next to this one.
memory:
  context_tokens: 8192
  avg_chars_per_token: 4
  high_ratio: 0.70
  low_ratio: 0.50
  keep_recent_per_lane: 4
  min_reflect_gap_turns: 3
  decay_per_pass: 0.03
  min_keep_weight: 0.22
  merge_aggressiveness: 0.60

state:
  driver: file          # file, sqlite, sqlite-nocgo, memory
  path: .agentmind/state
  history: 5

inspect:
  enabled: true
  format: markdown      # markdown, yaml, json

logging:
  level: info

metrics:
  path: ""              # e.g. .agentmind/metrics.jsonl

hooks:
  enabled: false
  hooks:
    - name: log-persona
      type: log
      events: [memory.persona.updated]
`

// WriteTemplate creates agentmind.yaml in dir. It refuses to overwrite an
// existing file unless force is set.
func WriteTemplate(dir string, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s already exists", path)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return path, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterTemplate), 0644); err != nil {
		return path, fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
