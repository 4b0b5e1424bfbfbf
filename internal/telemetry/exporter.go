package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MetricsExporter receives a Snapshot every time metrics are flushed.
type MetricsExporter interface {
	Export(s Snapshot) error
	Close() error
}

// Counters is a typed copy of the collector at one instant.
type Counters struct {
	MessagesAdded    int64 `json:"messages_added"`
	LaneSummaries    int64 `json:"lane_summaries"`
	PersonaUpdates   int64 `json:"persona_updates"`
	ContextsRendered int64 `json:"contexts_rendered"`
	Saves            int64 `json:"saves"`
	SaveFailures     int64 `json:"save_failures"`
	ToolCalls        int64 `json:"tool_calls"`
	ActiveAgents     int64 `json:"active_agents"`
	AvgSaveLatencyUs int64 `json:"avg_save_latency_us,omitempty"`
}

// Snapshot is one metrics record. The agent fields describe the state that
// was just written when Event is memory.state.saved; SessionID is set for
// records flushed when an MCP session ends.
type Snapshot struct {
	Timestamp       time.Time `json:"timestamp"`
	Event           string    `json:"event"`
	Agent           string    `json:"agent,omitempty"`
	PersonaVersion  int       `json:"persona_version,omitempty"`
	Messages        int       `json:"messages,omitempty"`
	EstimatedTokens int       `json:"estimated_tokens,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	Counters        Counters  `json:"counters"`
}

// JSONFileExporter appends snapshots to a JSONL file.
type JSONFileExporter struct {
	mu   sync.Mutex
	path string
	file *os.File
	enc  *json.Encoder
}

// NewJSONFileExporter opens path for appending, creating parent directories.
func NewJSONFileExporter(path string) (*JSONFileExporter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create metrics directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}
	return &JSONFileExporter{path: path, file: f, enc: json.NewEncoder(f)}, nil
}

// Path returns the file snapshots are appended to.
func (e *JSONFileExporter) Path() string {
	return e.path
}

// Export appends one snapshot line.
func (e *JSONFileExporter) Export(s Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(s)
}

func (e *JSONFileExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Close()
}

// ReadSnapshots decodes a JSONL metrics file. Lines that fail to decode are
// skipped and counted.
func ReadSnapshots(path string) ([]Snapshot, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var (
		out     []Snapshot
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var s Snapshot
		if err := json.Unmarshal(line, &s); err != nil {
			skipped++
			continue
		}
		out = append(out, s)
	}
	return out, skipped, scanner.Err()
}

// LatestByAgent keeps the newest snapshot per agent, ignoring records
// without one.
func LatestByAgent(snaps []Snapshot) map[string]Snapshot {
	latest := make(map[string]Snapshot)
	for _, s := range snaps {
		if s.Agent == "" {
			continue
		}
		if prev, ok := latest[s.Agent]; !ok || !s.Timestamp.Before(prev.Timestamp) {
			latest[s.Agent] = s
		}
	}
	return latest
}
