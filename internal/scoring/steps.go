package scoring

import "github.com/jonathan/platform-decider/internal/types"

// Per-value deltas for the enumerated user factors. Values missing from a
// table contribute nothing.
var (
	audienceDeltas = map[types.TargetAudience]types.ScorePair{
		types.AudienceOfficeWorkers: {Web: 20, Mobile: -10},
		types.AudienceMobileUsers:   {Web: -10, Mobile: 20},
		types.AudienceAllUsers:      {Web: 10, Mobile: 10},
	}

	deviceDeltas = map[types.PrimaryDevice]types.ScorePair{
		types.DeviceDesktop: {Web: 15, Mobile: -5},
		types.DeviceMobile:  {Web: -5, Mobile: 15},
	}

	contextDeltas = map[types.UsageContext]types.ScorePair{
		types.ContextFixedLocation: {Web: 10},
		types.ContextOnTheGo:       {Mobile: 15},
	}
)

// Fixed constants for the boolean and count-based rules
const (
	nativeFeatureBonus  = 10.0
	nativeFeatureWebHit = -5.0
	highComplexityHit   = -10.0
	teamCapabilityBonus = 30.0
	constraintSwing     = 10.0
)

// Step names, in application order
const (
	StepTargetAudience  = "target_audience"
	StepPrimaryDevice   = "primary_device"
	StepUsageContext    = "usage_context"
	StepNativeFeatures  = "native_features"
	StepComplexForms    = "complex_forms"
	StepRealTimeSync    = "real_time_sync"
	StepOfflineSupport  = "offline_support"
	StepMediaHeavy      = "media_heavy"
	StepComplexity      = "complexity"
	StepTeamCapability  = "team_capability"
	StepDevelopmentTime = "development_time"
	StepBudget          = "budget"
)

var adjustments = []Adjustment{
	{Name: StepTargetAudience, apply: applyTargetAudience},
	{Name: StepPrimaryDevice, apply: applyPrimaryDevice},
	{Name: StepUsageContext, apply: applyUsageContext},
	{Name: StepNativeFeatures, apply: applyNativeFeatures},
	{Name: StepComplexForms, apply: when(func(f types.FactorRecord) bool { return f.Features.ComplexForms }, types.ScorePair{Web: 15, Mobile: -5})},
	{Name: StepRealTimeSync, apply: when(func(f types.FactorRecord) bool { return f.Features.RealTimeSync }, types.ScorePair{Web: 10})},
	{Name: StepOfflineSupport, apply: when(func(f types.FactorRecord) bool { return f.Features.OfflineSupport }, types.ScorePair{Mobile: 15})},
	{Name: StepMediaHeavy, apply: when(func(f types.FactorRecord) bool { return f.Features.MediaHeavy }, types.ScorePair{Mobile: 10})},
	{Name: StepComplexity, apply: applyComplexity},
	// Must stay after every additive rule: the reset discards earlier mobile/web adjustments.
	{Name: StepTeamCapability, apply: applyTeamCapability},
	{Name: StepDevelopmentTime, apply: swingWhen(func(f types.FactorRecord) bool {
		return f.Constraints.DevelopmentTime == types.TimeTight
	})},
	{Name: StepBudget, apply: swingWhen(func(f types.FactorRecord) bool {
		return f.Constraints.Budget == types.BudgetLimited
	})},
}

func add(s, d types.ScorePair) types.ScorePair {
	return types.ScorePair{Web: s.Web + d.Web, Mobile: s.Mobile + d.Mobile}
}

func applyTargetAudience(f types.FactorRecord, s types.ScorePair) types.ScorePair {
	return add(s, audienceDeltas[f.User.TargetAudience])
}

func applyPrimaryDevice(f types.FactorRecord, s types.ScorePair) types.ScorePair {
	return add(s, deviceDeltas[f.User.PrimaryDevice])
}

func applyUsageContext(f types.FactorRecord, s types.ScorePair) types.ScorePair {
	return add(s, contextDeltas[f.User.UsageContext])
}

// applyNativeFeatures scales the mobile bonus with the feature count but
// charges web a single flat penalty.
func applyNativeFeatures(f types.FactorRecord, s types.ScorePair) types.ScorePair {
	count := f.NativeFeatureCount()
	if count == 0 {
		return s
	}
	return add(s, types.ScorePair{
		Web:    nativeFeatureWebHit,
		Mobile: nativeFeatureBonus * float64(count),
	})
}

func applyComplexity(f types.FactorRecord, s types.ScorePair) types.ScorePair {
	if f.Technical.WebComplexity == types.ComplexityHigh {
		s.Web += highComplexityHit
	}
	if f.Technical.MobileComplexity == types.ComplexityHigh {
		s.Mobile += highComplexityHit
	}
	return s
}

// applyTeamCapability overwrites the score of the platform the team cannot build.
func applyTeamCapability(f types.FactorRecord, s types.ScorePair) types.ScorePair {
	switch f.Constraints.TeamCapability {
	case types.TeamWebOnly:
		return types.ScorePair{Web: s.Web + teamCapabilityBonus, Mobile: 0}
	case types.TeamMobileOnly:
		return types.ScorePair{Web: 0, Mobile: s.Mobile + teamCapabilityBonus}
	default:
		return s
	}
}

func when(cond func(types.FactorRecord) bool, delta types.ScorePair) func(types.FactorRecord, types.ScorePair) types.ScorePair {
	return func(f types.FactorRecord, s types.ScorePair) types.ScorePair {
		if !cond(f) {
			return s
		}
		return add(s, delta)
	}
}

// swingWhen widens the gap between the current totals: the leader gains and
// the trailer loses. Equal totals count as a mobile lead.
func swingWhen(cond func(types.FactorRecord) bool) func(types.FactorRecord, types.ScorePair) types.ScorePair {
	return func(f types.FactorRecord, s types.ScorePair) types.ScorePair {
		if !cond(f) {
			return s
		}
		if s.Web > s.Mobile {
			return add(s, types.ScorePair{Web: constraintSwing, Mobile: -constraintSwing})
		}
		return add(s, types.ScorePair{Web: -constraintSwing, Mobile: constraintSwing})
	}
}
