// Package scoring computes web and mobile fitness scores from a factor record.
//
// Scores start at BaseScore and pass through a fixed, ordered list of named
// adjustments. Most adjustments are additive; the team capability step
// overwrites one score, and the two constraint steps read the running totals,
// so the order of Adjustments is part of the result.
package scoring

import (
	"slices"

	"github.com/jonathan/platform-decider/internal/types"
)

// BaseScore is the starting score for both platforms
const BaseScore = 50.0

// Adjustment is one named step of the scoring pipeline
type Adjustment struct {
	Name  string
	apply func(types.FactorRecord, types.ScorePair) types.ScorePair
}

// Apply returns the scores after this step. s is not modified.
func (a Adjustment) Apply(record types.FactorRecord, s types.ScorePair) types.ScorePair {
	return a.apply(record, s)
}

// TraceStep records the scores after one adjustment
type TraceStep struct {
	Step   string          `json:"step"`
	Delta  types.ScorePair `json:"delta"`
	Scores types.ScorePair `json:"scores"`
}

// Adjustments returns the scoring steps in application order.
func Adjustments() []Adjustment {
	return slices.Clone(adjustments)
}

// Calculate maps a factor record to its web and mobile scores.
// It never fails: enum values it does not recognize contribute nothing.
func Calculate(record types.FactorRecord) types.ScorePair {
	scores := types.ScorePair{Web: BaseScore, Mobile: BaseScore}
	for _, adj := range adjustments {
		scores = adj.apply(record, scores)
	}
	return scores
}

// Trace runs the same pipeline as Calculate and returns the intermediate
// scores after every step. The last entry equals Calculate(record).
func Trace(record types.FactorRecord) []TraceStep {
	steps := make([]TraceStep, 0, len(adjustments))
	scores := types.ScorePair{Web: BaseScore, Mobile: BaseScore}
	for _, adj := range adjustments {
		next := adj.apply(record, scores)
		steps = append(steps, TraceStep{
			Step:   adj.Name,
			Delta:  types.ScorePair{Web: next.Web - scores.Web, Mobile: next.Mobile - scores.Mobile},
			Scores: next,
		})
		scores = next
	}
	return steps
}
