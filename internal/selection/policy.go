// Package selection chooses the platform set and development priority from a
// pair of fitness scores.
package selection

import (
	"fmt"

	"github.com/jonathan/platform-decider/internal/types"
)

// Default policy values
const (
	DefaultScoreThreshold    = 60.0
	DefaultParallelThreshold = 10.0
)

// Policy holds the tunable thresholds used by Select
type Policy struct {
	// ScoreThreshold is the minimum score for a platform to be selected on its own merit.
	ScoreThreshold float64
	// ParallelThreshold is the score gap below which two qualifying platforms
	// get NearTiePriority instead of a "-first" priority.
	ParallelThreshold float64
	// NearTiePriority is assigned when both platforms qualify with a gap below ParallelThreshold.
	NearTiePriority types.Priority
	// ForceSinglePlatform narrows a two-platform result to the priority's leading platform.
	ForceSinglePlatform bool
}

// DefaultPolicy returns the standard selection policy
func DefaultPolicy() Policy {
	return Policy{
		ScoreThreshold:    DefaultScoreThreshold,
		ParallelThreshold: DefaultParallelThreshold,
		NearTiePriority:   types.PriorityParallel,
	}
}

// Validate checks that the policy can produce a meaningful result
func (p Policy) Validate() error {
	if p.ParallelThreshold <= 0 {
		return &Error{Message: fmt.Sprintf("parallel threshold must be positive, got %v", p.ParallelThreshold)}
	}
	if !p.NearTiePriority.IsValid() {
		return &Error{Message: fmt.Sprintf("invalid near-tie priority %q", p.NearTiePriority)}
	}
	return nil
}
