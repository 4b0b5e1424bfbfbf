package memory

import (
	"fmt"
	"strings"
)

var categoryTitles = map[Category]string{
	CategoryRoles:      "Roles",
	CategoryStyle:      "Style",
	CategoryHeuristics: "Heuristics",
	CategoryGoals:      "Goals",
	CategoryAntigoals:  "Avoid",
}

var laneHeaders = map[Lane]string{
	LaneAssistant: "[ASSISTANT LANE SUMMARY]",
	LaneSystem:    "[SYSTEM LANE SUMMARY]",
	LaneUser:      "[USER LANE SUMMARY]",
}

// RenderContext composes the layered system-prompt context. It has no side
// effects and returns identical output for identical state.
func RenderContext(s *MemoryState) string {
	var sections []string

	if s.BasePrompt != "" {
		sections = append(sections, "[BASE IDENTITY]\n"+s.BasePrompt)
	}
	if s.NormativeBlock != "" {
		sections = append(sections, "[NORMATIVE POLICY]\n"+s.NormativeBlock)
	}
	if block := renderPersona(&s.Persona); block != "" {
		sections = append(sections, block)
	}
	for _, lane := range Lanes {
		if text := s.LaneSummaries.Get(lane); text != "" {
			sections = append(sections, laneHeaders[lane]+"\n"+text)
		}
	}

	return strings.Join(sections, SummarySeparator)
}

func renderPersona(p *PersonaModel) string {
	if p.Version <= 0 {
		return ""
	}

	lines := []string{fmt.Sprintf("[DYNAMIC PERSONA v%d]", p.Version)}
	for _, c := range Categories {
		facets := p.Facets(c)
		if len(facets) == 0 {
			continue
		}
		texts := make([]string, len(facets))
		for i, f := range facets {
			texts[i] = f.Text
		}
		lines = append(lines, fmt.Sprintf("%s: %s", categoryTitles[c], strings.Join(texts, "; ")))
	}
	return strings.Join(lines, "\n")
}
