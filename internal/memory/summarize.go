package memory

import (
	"fmt"
	"sort"
	"strings"
)

// SummarySeparator joins cumulative summary blocks and rendered context sections.
const SummarySeparator = "\n\n---\n\n"

// DefaultReflectionWindow is the number of messages handed to the persona miner
// when the caller does not ask for a specific count.
const DefaultReflectionWindow = 16

// LaneForSummarization renders every message of the lane except the newest
// keep ones as "- LANE: content" bullets separated by blank lines. An empty
// result means there is nothing to summarize.
func LaneForSummarization(s *MemoryState, lane Lane, keep int) string {
	msgs := Partition(s.RecentMessages)[lane.Role()]
	older := msgs[:len(msgs)-tailLen(len(msgs), keep)]
	if len(older) == 0 {
		return ""
	}

	label := strings.ToUpper(string(lane))
	bullets := make([]string, 0, len(older))
	for _, m := range older {
		bullets = append(bullets, fmt.Sprintf("- %s: %s", label, m.Content))
	}
	return strings.Join(bullets, "\n\n")
}

// ApplyLaneSummary prepends summary to the lane's cumulative summary and
// compacts the whole buffer to the newest keep messages of every role.
// Compaction runs even when the lane had nothing to summarize.
func ApplyLaneSummary(s *MemoryState, lane Lane, summary string, keep int, nowMillis int64) {
	if existing := s.LaneSummaries.Get(lane); existing != "" {
		s.LaneSummaries.set(lane, summary+SummarySeparator+existing)
	} else {
		s.LaneSummaries.set(lane, summary)
	}
	s.LaneSummaries.LastSummarizedAt = nowMillis
	s.RecentMessages = compactRecent(s.RecentMessages, keep)
}

// compactRecent keeps the last keep messages of each role, ordered by
// timestamp. Messages with equal timestamps stay in buffer order.
func compactRecent(msgs []Message, keep int) []Message {
	seen := make(map[Role]int, len(Roles))
	keepIdx := make([]bool, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		r := msgs[i].Role
		if seen[r] < keep {
			keepIdx[i] = true
			seen[r]++
		}
	}

	kept := make([]Message, 0, len(msgs))
	for i, m := range msgs {
		if keepIdx[i] {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp < kept[j].Timestamp
	})
	return kept
}

// RecentForReflection returns the last max messages of any role, oldest first.
func RecentForReflection(s *MemoryState, max int) []Message {
	if max <= 0 {
		max = DefaultReflectionWindow
	}
	msgs := s.RecentMessages
	out := make([]Message, tailLen(len(msgs), max))
	copy(out, msgs[len(msgs)-len(out):])
	return out
}

func tailLen(n, keep int) int {
	if keep < 0 {
		keep = 0
	}
	if keep > n {
		return n
	}
	return keep
}
