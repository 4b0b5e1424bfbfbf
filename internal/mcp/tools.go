package mcp

import (
	"context"
	"encoding/json"

	apperrors "github.com/cadre-oss/agentmind/internal/errors"
	"github.com/cadre-oss/agentmind/internal/event"
	"github.com/cadre-oss/agentmind/internal/memory"
	"github.com/cadre-oss/agentmind/internal/state"
	"github.com/cadre-oss/agentmind/internal/telemetry"
)

// ToolDef describes an MCP tool for tools/list.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// schema builds an object schema whose first required property is agent_id.
func schema(props map[string]any, required ...string) map[string]any {
	properties := map[string]any{
		"agent_id": prop("string", "Agent identity whose memory to use"),
	}
	for k, v := range props {
		properties[k] = v
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   append([]string{"agent_id"}, required...),
	}
}

var facetList = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text":   prop("string", "Facet text"),
			"weight": prop("number", "Evidence strength in [0,1]"),
		},
		"required": []string{"text", "weight"},
	},
}

// AllTools returns the full set of memory tool definitions.
func AllTools() []ToolDef {
	return []ToolDef{
		{
			Name:        "memory_add_message",
			Description: "Append a conversation message (assistant, user, system or tool) to the agent's recent buffer",
			InputSchema: schema(map[string]any{
				"role":    prop("string", "assistant, user, system or tool"),
				"content": prop("string", "Message text"),
			}, "role", "content"),
		},
		{
			Name:        "memory_set_base_prompt",
			Description: "Replace the agent's base identity prompt",
			InputSchema: schema(map[string]any{"text": prop("string", "Base prompt text")}, "text"),
		},
		{
			Name:        "memory_set_normative",
			Description: "Replace the agent's normative policy block",
			InputSchema: schema(map[string]any{"text": prop("string", "Policy text")}, "text"),
		},
		{
			Name:        "memory_get_context",
			Description: "Render the layered context: base identity, policy, persona and lane summaries",
			InputSchema: schema(nil),
		},
		{
			Name:        "memory_lane_for_summarization",
			Description: "Return the compressible slice of a lane as bullet text for an external summarizer",
			InputSchema: schema(map[string]any{"lane": prop("string", "assistant, system or user")}, "lane"),
		},
		{
			Name:        "memory_apply_lane_summary",
			Description: "Fold a summary into a lane and compact the recent-message buffer",
			InputSchema: schema(map[string]any{
				"lane":    prop("string", "assistant, system or user"),
				"summary": prop("string", "Summary text produced for the lane"),
			}, "lane", "summary"),
		},
		{
			Name:        "memory_recent_for_reflection",
			Description: "Return the most recent messages, oldest first, for persona mining",
			InputSchema: schema(map[string]any{
				"max_messages": map[string]any{"type": "integer", "description": "Window size", "default": memory.DefaultReflectionWindow},
			}),
		},
		{
			Name:        "memory_apply_persona_update",
			Description: "Merge mined persona facets into the agent's persona",
			InputSchema: schema(map[string]any{
				"friction":   prop("number", "Observed friction in [0,1]"),
				"confidence": prop("number", "Miner confidence in [0,1]"),
				"persona": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"roles":      facetList,
						"style":      facetList,
						"heuristics": facetList,
						"goals":      facetList,
						"antigoals":  facetList,
					},
				},
			}, "persona"),
		},
		{
			Name:        "memory_status",
			Description: "Report persona version, buffer size, token estimate and pending work",
			InputSchema: schema(nil),
		},
		{
			Name:        "memory_reset",
			Description: "Delete the agent's persisted memory and start over",
			InputSchema: schema(nil),
		},
	}
}

// ToolHandler dispatches tool calls to per-agent managers.
type ToolHandler struct {
	registry *state.Registry
	metrics  *telemetry.Metrics
}

// NewToolHandler creates a handler over the registry.
func NewToolHandler(registry *state.Registry) *ToolHandler {
	return &ToolHandler{registry: registry, metrics: registry.Metrics()}
}

type toolFunc func(h *ToolHandler, ctx context.Context, agentID string, args json.RawMessage) (any, error)

var tools = map[string]toolFunc{
	"memory_add_message":            (*ToolHandler).addMessage,
	"memory_set_base_prompt":        (*ToolHandler).setBasePrompt,
	"memory_set_normative":          (*ToolHandler).setNormative,
	"memory_get_context":            (*ToolHandler).getContext,
	"memory_lane_for_summarization": (*ToolHandler).laneForSummarization,
	"memory_apply_lane_summary":     (*ToolHandler).applyLaneSummary,
	"memory_recent_for_reflection":  (*ToolHandler).recentForReflection,
	"memory_apply_persona_update":   (*ToolHandler).applyPersonaUpdate,
	"memory_status":                 (*ToolHandler).status,
	"memory_reset":                  (*ToolHandler).reset,
}

// Call dispatches a tool call by name with the given arguments.
func (h *ToolHandler) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	fn, ok := tools[name]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeToolNotFound, "unknown tool: %s", name).
			WithSuggestion("Call tools/list for the available tools")
	}
	h.metrics.IncToolCalls()

	var target struct {
		AgentID string `json:"agent_id"`
	}
	if err := decodeArgs(args, &target); err != nil {
		return nil, err
	}
	if target.AgentID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArguments, "agent_id is required")
	}
	return fn(h, ctx, target.AgentID, args)
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidArguments, "parse args", err)
	}
	return nil
}

// mutate runs fn on the agent's manager and commits the result
// write-through. ev is published only after the save succeeded.
func (h *ToolHandler) mutate(agentID string, ev event.EventType, fn func(*memory.Manager) (any, map[string]interface{}, error)) (any, error) {
	mgr, err := h.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	result, data, err := fn(mgr)
	if err != nil {
		return nil, err
	}
	if err := h.registry.Commit(agentID, ev, data); err != nil {
		return nil, err
	}
	return result, nil
}

func (h *ToolHandler) addMessage(_ context.Context, agentID string, args json.RawMessage) (any, error) {
	var params struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	if params.Role == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArguments, "role is required")
	}

	var added memory.Message
	_, err := h.mutate(agentID, event.MessageAdded, func(m *memory.Manager) (any, map[string]interface{}, error) {
		msg, err := m.AddMessage(params.Role, params.Content)
		if err != nil {
			return nil, nil, err
		}
		added = msg
		h.metrics.IncMessagesAdded()
		return nil, map[string]interface{}{"role": string(msg.Role), "timestamp": msg.Timestamp}, nil
	})
	if err != nil {
		return nil, err
	}

	mgr, _ := h.registry.Get(agentID)
	return map[string]any{
		"message":             added,
		"needs_summarization": mgr.NeedsSummarization(),
		"needs_reflection":    mgr.NeedsReflection(),
	}, nil
}

func (h *ToolHandler) setBasePrompt(_ context.Context, agentID string, args json.RawMessage) (any, error) {
	var params struct {
		Text string `json:"text"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	return h.mutate(agentID, "", func(m *memory.Manager) (any, map[string]interface{}, error) {
		m.SetBasePrompt(params.Text)
		return map[string]any{"ok": true}, nil, nil
	})
}

func (h *ToolHandler) setNormative(_ context.Context, agentID string, args json.RawMessage) (any, error) {
	var params struct {
		Text string `json:"text"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	return h.mutate(agentID, "", func(m *memory.Manager) (any, map[string]interface{}, error) {
		m.SetNormativeBlock(params.Text)
		return map[string]any{"ok": true}, nil, nil
	})
}

func (h *ToolHandler) getContext(_ context.Context, agentID string, _ json.RawMessage) (any, error) {
	mgr, err := h.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	h.metrics.IncContextsRendered()
	return map[string]any{
		"context":          mgr.RenderContext(),
		"estimated_tokens": mgr.EstimateTokens(),
	}, nil
}

func (h *ToolHandler) laneForSummarization(_ context.Context, agentID string, args json.RawMessage) (any, error) {
	var params struct {
		Lane string `json:"lane"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	mgr, err := h.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	text, err := mgr.LaneForSummarization(params.Lane)
	if err != nil {
		return nil, err
	}
	return map[string]any{"lane": params.Lane, "text": text}, nil
}

func (h *ToolHandler) applyLaneSummary(_ context.Context, agentID string, args json.RawMessage) (any, error) {
	var params struct {
		Lane    string `json:"lane"`
		Summary string `json:"summary"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	return h.mutate(agentID, event.LaneSummarized, func(m *memory.Manager) (any, map[string]interface{}, error) {
		if err := m.ApplyLaneSummary(params.Lane, params.Summary); err != nil {
			return nil, nil, err
		}
		h.metrics.IncLaneSummaries()
		st := m.Status()
		return map[string]any{
				"ok":               true,
				"recent_messages":  st.RecentMessages,
				"estimated_tokens": st.EstimatedTokens,
			}, map[string]interface{}{
				"lane":            params.Lane,
				"recent_messages": st.RecentMessages,
			}, nil
	})
}

func (h *ToolHandler) recentForReflection(_ context.Context, agentID string, args json.RawMessage) (any, error) {
	var params struct {
		MaxMessages int `json:"max_messages"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	mgr, err := h.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"messages": mgr.RecentForReflection(params.MaxMessages)}, nil
}

func (h *ToolHandler) applyPersonaUpdate(_ context.Context, agentID string, args json.RawMessage) (any, error) {
	var update memory.PersonaUpdate
	if err := decodeArgs(args, &update); err != nil {
		return nil, err
	}
	return h.mutate(agentID, event.PersonaUpdated, func(m *memory.Manager) (any, map[string]interface{}, error) {
		persona := m.ApplyPersonaUpdate(update)
		h.metrics.IncPersonaUpdates()
		return map[string]any{"persona": persona}, map[string]interface{}{
			"persona_version": persona.Version,
		}, nil
	})
}

func (h *ToolHandler) status(_ context.Context, agentID string, _ json.RawMessage) (any, error) {
	mgr, err := h.registry.Get(agentID)
	if err != nil {
		return nil, err
	}
	return mgr.Status(), nil
}

func (h *ToolHandler) reset(_ context.Context, agentID string, _ json.RawMessage) (any, error) {
	if err := h.registry.Reset(agentID); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}
