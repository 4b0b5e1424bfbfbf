package memory

import (
	"fmt"
	"strings"
)

// Options tunes budget, summarization and persona behavior.
type Options struct {
	ContextTokens    int     `yaml:"context_tokens" json:"context_tokens"`
	AvgCharsPerToken float64 `yaml:"avg_chars_per_token" json:"avg_chars_per_token"`
	HighRatio        float64 `yaml:"high_ratio" json:"high_ratio"`
	// LowRatio is the target post-summarization ratio. Nothing enforces it;
	// callers may use it to decide how much to summarize.
	LowRatio            float64 `yaml:"low_ratio" json:"low_ratio"`
	KeepRecentPerLane   int     `yaml:"keep_recent_per_lane" json:"keep_recent_per_lane"`
	MinReflectGapTurns  int     `yaml:"min_reflect_gap_turns" json:"min_reflect_gap_turns"`
	DecayPerPass        float64 `yaml:"decay_per_pass" json:"decay_per_pass"`
	MinKeepWeight       float64 `yaml:"min_keep_weight" json:"min_keep_weight"`
	MergeAggressiveness float64 `yaml:"merge_aggressiveness" json:"merge_aggressiveness"`
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		ContextTokens:       8192,
		AvgCharsPerToken:    4,
		HighRatio:           0.70,
		LowRatio:            0.50,
		KeepRecentPerLane:   4,
		MinReflectGapTurns:  3,
		DecayPerPass:        0.03,
		MinKeepWeight:       0.22,
		MergeAggressiveness: 0.60,
	}
}

// Validate checks value ranges.
func (o Options) Validate() error {
	var errs []string

	if o.ContextTokens <= 0 {
		errs = append(errs, "context_tokens must be positive")
	}
	if o.AvgCharsPerToken <= 0 {
		errs = append(errs, "avg_chars_per_token must be positive")
	}
	if o.HighRatio <= 0 || o.HighRatio > 1 {
		errs = append(errs, fmt.Sprintf("high_ratio must be in (0,1], got %v", o.HighRatio))
	}
	if o.LowRatio <= 0 || o.LowRatio > 1 {
		errs = append(errs, fmt.Sprintf("low_ratio must be in (0,1], got %v", o.LowRatio))
	}
	if o.KeepRecentPerLane < 0 {
		errs = append(errs, "keep_recent_per_lane must not be negative")
	}
	if o.MinReflectGapTurns < 0 {
		errs = append(errs, "min_reflect_gap_turns must not be negative")
	}
	if o.DecayPerPass < 0 || o.DecayPerPass >= 1 {
		errs = append(errs, fmt.Sprintf("decay_per_pass must be in [0,1), got %v", o.DecayPerPass))
	}
	if o.MinKeepWeight < 0 || o.MinKeepWeight > 1 {
		errs = append(errs, fmt.Sprintf("min_keep_weight must be in [0,1], got %v", o.MinKeepWeight))
	}
	if o.MergeAggressiveness < 0 || o.MergeAggressiveness > 1 {
		errs = append(errs, fmt.Sprintf("merge_aggressiveness must be in [0,1], got %v", o.MergeAggressiveness))
	}

	if len(errs) > 0 {
		return fmt.Errorf("memory options invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}
