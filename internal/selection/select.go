package selection

import (
	"math"

	"github.com/jonathan/platform-decider/internal/types"
)

// Result is the outcome of platform selection
type Result struct {
	Platforms []types.Platform
	Priority  types.Priority
	// LowConfidence is set when neither score reached the threshold and both
	// platforms were selected as a fallback.
	LowConfidence bool
}

// Select applies the threshold and tie-break policy to scores.
// Platforms are always non-empty and ordered web before mobile.
func Select(scores types.ScorePair, policy Policy) Result {
	webOK := scores.Web >= policy.ScoreThreshold
	mobileOK := scores.Mobile >= policy.ScoreThreshold

	var result Result
	switch {
	case webOK && mobileOK:
		result = Result{Platforms: bothPlatforms(), Priority: bothQualified(scores, policy)}
	case webOK:
		result = Result{Platforms: []types.Platform{types.PlatformWeb}, Priority: types.PriorityWebFirst}
	case mobileOK:
		result = Result{Platforms: []types.Platform{types.PlatformMobile}, Priority: types.PriorityMobileFirst}
	default:
		// A direction is still returned when nothing qualifies.
		priority := types.PriorityMobileFirst
		if scores.Web >= scores.Mobile {
			priority = types.PriorityWebFirst
		}
		result = Result{Platforms: bothPlatforms(), Priority: priority, LowConfidence: true}
	}

	if policy.ForceSinglePlatform && len(result.Platforms) > 1 {
		leader := result.Priority.Leading()
		result.Platforms = []types.Platform{leader}
		result.Priority = types.FirstPriority(leader)
	}
	return result
}

func bothQualified(scores types.ScorePair, policy Policy) types.Priority {
	if math.Abs(scores.Web-scores.Mobile) < policy.ParallelThreshold {
		if policy.NearTiePriority == "" {
			return types.PriorityParallel
		}
		return policy.NearTiePriority
	}
	if scores.Web > scores.Mobile {
		return types.PriorityWebFirst
	}
	return types.PriorityMobileFirst
}

func bothPlatforms() []types.Platform {
	return []types.Platform{types.PlatformWeb, types.PlatformMobile}
}
