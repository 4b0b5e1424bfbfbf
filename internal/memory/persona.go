package memory

import (
	"sort"
	"strings"
)

// newFacetFloor and newFacetShare set the starting weight of a facet seen for
// the first time: floor plus half the mined weight.
const (
	newFacetFloor = 0.15
	newFacetShare = 0.5
)

// PersonaPatch carries mined facets per category. A nil slice means the
// category was not mined this pass.
type PersonaPatch struct {
	Roles      []PersonaFacet `json:"roles,omitempty"`
	Style      []PersonaFacet `json:"style,omitempty"`
	Heuristics []PersonaFacet `json:"heuristics,omitempty"`
	Goals      []PersonaFacet `json:"goals,omitempty"`
	Antigoals  []PersonaFacet `json:"antigoals,omitempty"`
}

// Facets returns the patch entries for a category.
func (p PersonaPatch) Facets(c Category) []PersonaFacet {
	switch c {
	case CategoryRoles:
		return p.Roles
	case CategoryStyle:
		return p.Style
	case CategoryHeuristics:
		return p.Heuristics
	case CategoryGoals:
		return p.Goals
	case CategoryAntigoals:
		return p.Antigoals
	}
	return nil
}

// PersonaUpdate is the output of one external reflection pass.
// Friction and Confidence are recorded by callers but do not affect merging.
type PersonaUpdate struct {
	Friction   float64      `json:"friction"`
	Confidence float64      `json:"confidence"`
	Persona    PersonaPatch `json:"persona"`
}

// ApplyPersonaUpdate decays every facet, merges the update, prunes and caps
// each category, then bumps the persona version once.
func ApplyPersonaUpdate(p *PersonaModel, u PersonaUpdate, opts Options, turn int) {
	for _, c := range Categories {
		facets := p.facetsRef(c)
		decayed := decayFacets(*facets, opts.DecayPerPass)
		merged := mergeFacets(decayed, u.Persona.Facets(c), opts.MergeAggressiveness)
		*facets = pruneFacets(merged, opts.MinKeepWeight, c.Cap())
	}
	p.Version++
	p.LastUpdatedTurn = turn
}

func decayFacets(facets []PersonaFacet, decay float64) []PersonaFacet {
	out := make([]PersonaFacet, len(facets))
	for i, f := range facets {
		out[i] = PersonaFacet{Text: f.Text, Weight: f.Weight * (1 - decay)}
	}
	return out
}

// mergeFacets boosts matching facets with a noisy-OR blend and appends new ones.
func mergeFacets(existing, incoming []PersonaFacet, aggressiveness float64) []PersonaFacet {
	index := make(map[string]int, len(existing))
	for i, f := range existing {
		index[facetKey(f.Text)] = i
	}

	for _, item := range incoming {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		w := clamp01(item.Weight)
		key := facetKey(text)

		if i, ok := index[key]; ok {
			cur := existing[i].Weight
			existing[i].Weight = clamp01(1 - (1-cur)*(1-w*aggressiveness))
			continue
		}
		index[key] = len(existing)
		existing = append(existing, PersonaFacet{
			Text:   text,
			Weight: clamp01(w*newFacetShare + newFacetFloor),
		})
	}
	return existing
}

func pruneFacets(facets []PersonaFacet, minKeep float64, limit int) []PersonaFacet {
	kept := make([]PersonaFacet, 0, len(facets))
	for _, f := range facets {
		if f.Weight >= minKeep {
			kept = append(kept, f)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Weight > kept[j].Weight
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func facetKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
