package event

import "time"

// EventType identifies the kind of memory lifecycle event.
type EventType string

const (
	MessageAdded     EventType = "memory.message.added"
	LaneSummarized   EventType = "memory.lane.summarized"
	PersonaUpdated   EventType = "memory.persona.updated"
	StateSaved       EventType = "memory.state.saved"
	StateReset       EventType = "memory.state.reset"
	StateLoadFailed  EventType = "memory.state.load_failed"
	SummarizationDue EventType = "memory.summarization.needed"
	ReflectionDue    EventType = "memory.reflection.needed"
)

// KnownTypes lists every event type the registry emits.
var KnownTypes = []EventType{
	MessageAdded, LaneSummarized, PersonaUpdated, StateSaved,
	StateReset, StateLoadFailed, SummarizationDue, ReflectionDue,
}

// Event carries data about a lifecycle occurrence.
type Event struct {
	Type      EventType              `json:"type"`
	Agent     string                 `json:"agent,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event for an agent with the current timestamp.
func NewEvent(t EventType, agent string, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Agent:     agent,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// IsKnown reports whether t is one of KnownTypes.
func IsKnown(t EventType) bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}
