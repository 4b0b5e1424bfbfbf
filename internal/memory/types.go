// Package memory holds the per-agent memory engine: lane partitioning,
// token budget estimation, lane summarization, persona merging and context
// rendering over a single in-memory MemoryState.
package memory

import (
	"fmt"
	"strings"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
)

// StateVersion is written into every new MemoryState.
const StateVersion = 1

// Role identifies the origin of a message.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Roles lists every valid message role.
var Roles = []Role{RoleAssistant, RoleUser, RoleSystem, RoleTool}

// ParseRole validates a caller-supplied role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", apperrors.Newf(apperrors.CodeUnknownRole, "unknown role: %q", s).
		WithSuggestion("use one of assistant, user, system, tool")
}

// Lane is a summarizable partition of the message buffer. Tool messages
// have a role but no lane.
type Lane string

const (
	LaneAssistant Lane = "assistant"
	LaneSystem    Lane = "system"
	LaneUser      Lane = "user"
)

// Lanes lists the summarizable lanes in rendering order.
var Lanes = []Lane{LaneAssistant, LaneSystem, LaneUser}

// ParseLane validates a caller-supplied lane.
func ParseLane(s string) (Lane, error) {
	l := Lane(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Lanes {
		if l == known {
			return l, nil
		}
	}
	return "", apperrors.Newf(apperrors.CodeUnknownLane, "unknown lane: %q", s).
		WithSuggestion("use one of assistant, user, system")
}

// Role returns the message role feeding this lane.
func (l Lane) Role() Role {
	return Role(l)
}

// Message is a single entry of the recent-message buffer.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// LaneSummaries holds the cumulative summary text of each lane, newest block first.
type LaneSummaries struct {
	Assistant        string `json:"assistant"`
	System           string `json:"system"`
	User             string `json:"user"`
	LastSummarizedAt int64  `json:"lastSummarizedAt"`
}

// Get returns the summary text for a lane.
func (s *LaneSummaries) Get(lane Lane) string {
	switch lane {
	case LaneAssistant:
		return s.Assistant
	case LaneSystem:
		return s.System
	case LaneUser:
		return s.User
	}
	return ""
}

func (s *LaneSummaries) set(lane Lane, text string) {
	switch lane {
	case LaneAssistant:
		s.Assistant = text
	case LaneSystem:
		s.System = text
	case LaneUser:
		s.User = text
	}
}

// Any reports whether at least one lane has a summary.
func (s *LaneSummaries) Any() bool {
	return s.Assistant != "" || s.System != "" || s.User != ""
}

// PersonaFacet is one weighted trait.
type PersonaFacet struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// Category names one of the five persona facet lists.
type Category string

const (
	CategoryRoles      Category = "roles"
	CategoryStyle      Category = "style"
	CategoryHeuristics Category = "heuristics"
	CategoryGoals      Category = "goals"
	CategoryAntigoals  Category = "antigoals"
)

// Categories lists the facet categories in rendering order.
var Categories = []Category{CategoryRoles, CategoryStyle, CategoryHeuristics, CategoryGoals, CategoryAntigoals}

var categoryCaps = map[Category]int{
	CategoryRoles:      3,
	CategoryStyle:      6,
	CategoryHeuristics: 8,
	CategoryGoals:      4,
	CategoryAntigoals:  6,
}

// Cap returns the maximum number of facets kept in the category.
func (c Category) Cap() int {
	return categoryCaps[c]
}

// PersonaModel is the evolving persona. Version 0 means no persona has been mined yet.
type PersonaModel struct {
	Version         int            `json:"version"`
	LastUpdatedTurn int            `json:"lastUpdatedTurn"`
	Roles           []PersonaFacet `json:"roles"`
	Style           []PersonaFacet `json:"style"`
	Heuristics      []PersonaFacet `json:"heuristics"`
	Goals           []PersonaFacet `json:"goals"`
	Antigoals       []PersonaFacet `json:"antigoals"`
}

// Facets returns the facet list of a category.
func (p *PersonaModel) Facets(c Category) []PersonaFacet {
	return *p.facetsRef(c)
}

func (p *PersonaModel) facetsRef(c Category) *[]PersonaFacet {
	switch c {
	case CategoryRoles:
		return &p.Roles
	case CategoryStyle:
		return &p.Style
	case CategoryHeuristics:
		return &p.Heuristics
	case CategoryGoals:
		return &p.Goals
	case CategoryAntigoals:
		return &p.Antigoals
	}
	panic(fmt.Sprintf("memory: unknown persona category %q", c))
}

// Clone returns a deep copy of the persona.
func (p *PersonaModel) Clone() PersonaModel {
	c := *p
	for _, cat := range Categories {
		*c.facetsRef(cat) = append([]PersonaFacet{}, p.Facets(cat)...)
	}
	return c
}

// MemoryState is the root aggregate for one agent identity.
type MemoryState struct {
	Version        int           `json:"version"`
	AgentID        string        `json:"agentId"`
	Persona        PersonaModel  `json:"persona"`
	LaneSummaries  LaneSummaries `json:"laneSummaries"`
	RecentMessages []Message     `json:"recentMessages"`
	BasePrompt     string        `json:"basePrompt"`
	NormativeBlock string        `json:"normativeBlock"`
	CreatedAt      int64         `json:"createdAt"`
	UpdatedAt      int64         `json:"updatedAt"`
}

// NewState returns an empty state for the agent.
func NewState(agentID string, nowMillis int64) *MemoryState {
	return &MemoryState{
		Version: StateVersion,
		AgentID: agentID,
		Persona: PersonaModel{
			Roles:      []PersonaFacet{},
			Style:      []PersonaFacet{},
			Heuristics: []PersonaFacet{},
			Goals:      []PersonaFacet{},
			Antigoals:  []PersonaFacet{},
		},
		RecentMessages: []Message{},
		CreatedAt:      nowMillis,
		UpdatedAt:      nowMillis,
	}
}

// Clone returns a deep copy of the state.
func (s *MemoryState) Clone() *MemoryState {
	c := *s
	c.RecentMessages = append([]Message{}, s.RecentMessages...)
	c.Persona = s.Persona.Clone()
	return &c
}

// Normalize replaces nil slices left by decoding with empty ones and fills a
// missing schema version.
func (s *MemoryState) Normalize() {
	if s.Version == 0 {
		s.Version = StateVersion
	}
	if s.RecentMessages == nil {
		s.RecentMessages = []Message{}
	}
	for _, c := range Categories {
		if f := s.Persona.facetsRef(c); *f == nil {
			*f = []PersonaFacet{}
		}
	}
}
