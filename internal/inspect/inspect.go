// Package inspect renders persisted memory state for humans: a markdown
// report and a YAML document that mirror the JSON on disk.
package inspect

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/memory"
)

// Formats lists the accepted format names.
var Formats = []string{"markdown", "yaml", "json"}

// Render encodes st in the named format.
func Render(format string, st *memory.MemoryState) ([]byte, error) {
	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return Markdown(st), nil
	case "yaml", "yml":
		return YAML(st)
	case "json":
		return json.MarshalIndent(st, "", "  ")
	default:
		return nil, apperrors.Newf(apperrors.CodeInvalidArguments, "unknown inspect format %q", format).
			WithSuggestion("Use one of: " + strings.Join(Formats, ", "))
	}
}

// SidecarName returns the file name used for a format's sidecar.
func SidecarName(format string) string {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return "MEMORY.yaml"
	case "json":
		return "MEMORY.json"
	default:
		return "MEMORY.md"
	}
}

// Markdown renders a readable report of the state.
func Markdown(st *memory.MemoryState) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Memory: %s\n\n", st.AgentID)
	fmt.Fprintf(&b, "- Schema version: %d\n", st.Version)
	fmt.Fprintf(&b, "- Created: %s\n", formatMillis(st.CreatedAt))
	fmt.Fprintf(&b, "- Updated: %s\n", formatMillis(st.UpdatedAt))
	fmt.Fprintf(&b, "- Persona version: %d (turn %d)\n", st.Persona.Version, st.Persona.LastUpdatedTurn)
	fmt.Fprintf(&b, "- Recent messages: %d\n", len(st.RecentMessages))

	section(&b, "Base Prompt", st.BasePrompt)
	section(&b, "Normative Policy", st.NormativeBlock)

	b.WriteString("\n## Persona\n")
	empty := true
	for _, c := range memory.Categories {
		facets := st.Persona.Facets(c)
		if len(facets) == 0 {
			continue
		}
		empty = false
		fmt.Fprintf(&b, "\n### %s\n\n", titleCase(string(c)))
		for _, f := range facets {
			fmt.Fprintf(&b, "- %s (%.2f)\n", f.Text, f.Weight)
		}
	}
	if empty {
		b.WriteString("\n_none_\n")
	}

	b.WriteString("\n## Lane Summaries\n")
	if st.LaneSummaries.LastSummarizedAt > 0 {
		fmt.Fprintf(&b, "\nLast summarized: %s\n", formatMillis(st.LaneSummaries.LastSummarizedAt))
	}
	for _, lane := range memory.Lanes {
		if text := st.LaneSummaries.Get(lane); text != "" {
			fmt.Fprintf(&b, "\n### %s\n\n%s\n", titleCase(string(lane)), text)
		}
	}
	if !st.LaneSummaries.Any() {
		b.WriteString("\n_none_\n")
	}

	b.WriteString("\n## Recent Messages\n\n")
	if len(st.RecentMessages) == 0 {
		b.WriteString("_none_\n")
	}
	for _, m := range st.RecentMessages {
		fmt.Fprintf(&b, "- `%s` **%s**: %s\n", formatMillis(m.Timestamp), m.Role, oneLine(m.Content))
	}

	return []byte(b.String())
}

func section(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "\n## %s\n\n", title)
	if strings.TrimSpace(body) == "" {
		b.WriteString("_none_\n")
		return
	}
	b.WriteString(body)
	b.WriteString("\n")
}

// document is the YAML shape of a MemoryState.
type document struct {
	AgentID        string            `yaml:"agent_id"`
	Version        int               `yaml:"version"`
	CreatedAt      string            `yaml:"created_at"`
	UpdatedAt      string            `yaml:"updated_at"`
	BasePrompt     string            `yaml:"base_prompt,omitempty"`
	NormativeBlock string            `yaml:"normative_block,omitempty"`
	Persona        personaDoc        `yaml:"persona"`
	LaneSummaries  map[string]string `yaml:"lane_summaries,omitempty"`
	RecentMessages []messageDoc      `yaml:"recent_messages"`
}

type personaDoc struct {
	Version         int                   `yaml:"version"`
	LastUpdatedTurn int                   `yaml:"last_updated_turn"`
	Facets          map[string][]facetDoc `yaml:"facets,omitempty"`
}

type facetDoc struct {
	Text   string  `yaml:"text"`
	Weight float64 `yaml:"weight"`
}

type messageDoc struct {
	Role    string `yaml:"role"`
	At      string `yaml:"at"`
	Content string `yaml:"content"`
}

// YAML renders st as a YAML document.
func YAML(st *memory.MemoryState) ([]byte, error) {
	doc := document{
		AgentID:        st.AgentID,
		Version:        st.Version,
		CreatedAt:      formatMillis(st.CreatedAt),
		UpdatedAt:      formatMillis(st.UpdatedAt),
		BasePrompt:     st.BasePrompt,
		NormativeBlock: st.NormativeBlock,
		Persona: personaDoc{
			Version:         st.Persona.Version,
			LastUpdatedTurn: st.Persona.LastUpdatedTurn,
		},
		RecentMessages: make([]messageDoc, 0, len(st.RecentMessages)),
	}

	for _, c := range memory.Categories {
		facets := st.Persona.Facets(c)
		if len(facets) == 0 {
			continue
		}
		if doc.Persona.Facets == nil {
			doc.Persona.Facets = make(map[string][]facetDoc)
		}
		for _, f := range facets {
			doc.Persona.Facets[string(c)] = append(doc.Persona.Facets[string(c)], facetDoc{Text: f.Text, Weight: f.Weight})
		}
	}
	for _, lane := range memory.Lanes {
		if text := st.LaneSummaries.Get(lane); text != "" {
			if doc.LaneSummaries == nil {
				doc.LaneSummaries = make(map[string]string)
			}
			doc.LaneSummaries[string(lane)] = text
		}
	}
	for _, m := range st.RecentMessages {
		doc.RecentMessages = append(doc.RecentMessages, messageDoc{
			Role:    string(m.Role),
			At:      formatMillis(m.Timestamp),
			Content: m.Content,
		})
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return out, nil
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const max = 200
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "…"
	}
	return s
}
