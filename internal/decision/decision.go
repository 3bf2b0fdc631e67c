// Package decision assembles a complete platform decision from a factor record.
//
// An Engine holds only its immutable policy, so a single Engine may be shared
// by concurrent callers.
package decision

import (
	"github.com/jonathan/platform-decider/internal/allocation"
	"github.com/jonathan/platform-decider/internal/config"
	"github.com/jonathan/platform-decider/internal/rationale"
	"github.com/jonathan/platform-decider/internal/scoring"
	"github.com/jonathan/platform-decider/internal/selection"
	"github.com/jonathan/platform-decider/internal/types"
)

// Engine runs scoring, selection, rationale and allocation under a fixed policy
type Engine struct {
	policy selection.Policy
}

// New creates an Engine from a decision config. Unset fields take defaults.
func New(cfg config.DecisionConfig) (*Engine, error) {
	cfg = cfg.WithDefaults()
	policy := selection.Policy{
		ScoreThreshold:      cfg.ScoreThresholdOrDefault(),
		ParallelThreshold:   cfg.ParallelThreshold,
		NearTiePriority:     cfg.DefaultPriority,
		ForceSinglePlatform: cfg.ForceSinglePlatform,
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: policy}, nil
}

// Policy returns the selection policy the engine applies
func (e *Engine) Policy() selection.Policy {
	return e.policy
}

// Decide produces a decision for record. It never fails; the record is
// expected to have been validated by the caller.
func (e *Engine) Decide(record types.FactorRecord) types.Decision {
	scores := scoring.Calculate(record)
	selected := selection.Select(scores, e.policy)

	return types.Decision{
		Platforms:      selected.Platforms,
		Priority:       selected.Priority,
		Rationale:      rationale.Compose(record, scores, selected.Platforms, selected.Priority),
		Implementation: allocation.Plan(record, selected.Platforms, selected.Priority),
		Scores:         scores,
		LowConfidence:  selected.LowConfidence,
	}
}

var defaultEngine = &Engine{policy: selection.DefaultPolicy()}

// Decide produces a decision for record using the default policy.
func Decide(record types.FactorRecord) types.Decision {
	return defaultEngine.Decide(record)
}
