package memory

import (
	"math"
	"unicode/utf8"
)

// messageOverhead approximates the role and formatting characters each
// message adds to the assembled context.
const messageOverhead = 32

// EstimateTokens approximates the token cost of the assembled context as
// ceil(chars / avgCharsPerToken). Characters are counted as runes.
func EstimateTokens(s *MemoryState, opts Options) int {
	avg := opts.AvgCharsPerToken
	if avg <= 0 {
		avg = DefaultOptions().AvgCharsPerToken
	}

	chars := utf8.RuneCountInString(s.BasePrompt) +
		utf8.RuneCountInString(s.NormativeBlock) +
		utf8.RuneCountInString(s.LaneSummaries.Assistant) +
		utf8.RuneCountInString(s.LaneSummaries.System) +
		utf8.RuneCountInString(s.LaneSummaries.User)
	for _, m := range s.RecentMessages {
		chars += utf8.RuneCountInString(m.Content) + messageOverhead
	}

	return int(math.Ceil(float64(chars) / avg))
}

// NeedsSummarization reports whether the estimate exceeds contextTokens*highRatio.
func NeedsSummarization(s *MemoryState, opts Options) bool {
	threshold := float64(opts.ContextTokens) * opts.HighRatio
	return float64(EstimateTokens(s, opts)) > threshold
}
