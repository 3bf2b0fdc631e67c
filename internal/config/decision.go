package config

import (
	"fmt"

	"github.com/jonathan/platform-decider/internal/types"
)

// DecisionConfig holds the tunable decision policy.
// ScoreThreshold is a pointer so an explicit 0 is distinguishable from unset.
type DecisionConfig struct {
	ScoreThreshold      *float64       `json:"score_threshold,omitempty" yaml:"score_threshold,omitempty"`
	ParallelThreshold   float64        `json:"parallel_threshold,omitempty" yaml:"parallel_threshold,omitempty"`
	ForceSinglePlatform bool           `json:"force_single_platform,omitempty" yaml:"force_single_platform,omitempty"`
	DefaultPriority     types.Priority `json:"default_priority,omitempty" yaml:"default_priority,omitempty"`
}

// DefaultDecisionConfig returns the standard policy: threshold 60, parallel
// gap 10, no forced single platform, parallel near-tie priority.
func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		ScoreThreshold:      Threshold(60),
		ParallelThreshold:   10,
		ForceSinglePlatform: false,
		DefaultPriority:     types.PriorityParallel,
	}
}

// Threshold returns a pointer to v for setting DecisionConfig.ScoreThreshold
func Threshold(v float64) *float64 {
	return &v
}

// ScoreThresholdOrDefault returns the configured score threshold, or 60 when unset
func (c DecisionConfig) ScoreThresholdOrDefault() float64 {
	if c.ScoreThreshold == nil {
		return *DefaultDecisionConfig().ScoreThreshold
	}
	return *c.ScoreThreshold
}

// WithDefaults fills an unset score threshold, a zero parallel threshold and an
// empty priority from DefaultDecisionConfig.
func (c DecisionConfig) WithDefaults() DecisionConfig {
	d := DefaultDecisionConfig()
	if c.ScoreThreshold == nil {
		c.ScoreThreshold = d.ScoreThreshold
	}
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = d.ParallelThreshold
	}
	if c.DefaultPriority == "" {
		c.DefaultPriority = d.DefaultPriority
	}
	return c
}

// Validate checks the policy values
func (c DecisionConfig) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("'parallel_threshold' must be positive, got %v", c.ParallelThreshold)
	}
	if !c.DefaultPriority.IsValid() {
		return fmt.Errorf("'default_priority' must be one of web-first, mobile-first, parallel, got %q", c.DefaultPriority)
	}
	return nil
}
