// Package allocation assigns feature labels to platforms and decides whether a
// phased rollout applies.
package allocation

import (
	"slices"

	"github.com/jonathan/platform-decider/internal/types"
)

// Bucket identifies one feature list of the allocation
type Bucket string

// Bucket values
const (
	BucketWeb    Bucket = "web"
	BucketMobile Bucket = "mobile"
	BucketShared Bucket = "shared"
)

var (
	mobileBaseline = []string{"Mobile UI", "Touch interactions", "Gesture navigation"}
	webBaseline    = []string{"Responsive layout", "Keyboard shortcuts", "Large-screen optimization"}
	sharedBaseline = []string{"User authentication", "Data sync", "Core business logic"}
)

// MobileBaseline returns the entries every mobile list starts with
func MobileBaseline() []string { return slices.Clone(mobileBaseline) }

// WebBaseline returns the entries every web list starts with
func WebBaseline() []string { return slices.Clone(webBaseline) }

// SharedBaseline returns the entries of the shared list
func SharedBaseline() []string { return slices.Clone(sharedBaseline) }

// Conditional feature labels
const (
	FeatureOfflineCache          = "Offline cache"
	FeatureComplexForms          = "Complex forms"
	FeatureRealTimeCollaboration = "Real-time collaboration"
)

// Rule contributes entries to one bucket when its condition holds.
// Rules for a bucket only run when that bucket's platform is selected;
// shared rules always run.
type Rule struct {
	Bucket  Bucket
	When    func(types.FactorRecord) bool
	Entries func(types.FactorRecord) []string
}

func always(types.FactorRecord) bool { return true }

func fixed(entries ...string) func(types.FactorRecord) []string {
	entries = slices.Clone(entries)
	return func(types.FactorRecord) []string { return slices.Clone(entries) }
}

var rules = []Rule{
	{Bucket: BucketMobile, When: always, Entries: fixed(mobileBaseline...)},
	{Bucket: BucketMobile, When: always, Entries: func(f types.FactorRecord) []string { return f.Features.NativeFeatures }},
	{Bucket: BucketMobile, When: func(f types.FactorRecord) bool { return f.Features.OfflineSupport }, Entries: fixed(FeatureOfflineCache)},

	{Bucket: BucketWeb, When: always, Entries: fixed(webBaseline...)},
	{Bucket: BucketWeb, When: func(f types.FactorRecord) bool { return f.Features.ComplexForms }, Entries: fixed(FeatureComplexForms)},
	{Bucket: BucketWeb, When: func(f types.FactorRecord) bool { return f.Features.RealTimeSync }, Entries: fixed(FeatureRealTimeCollaboration)},

	{Bucket: BucketShared, When: always, Entries: fixed(sharedBaseline...)},
}

// Rules returns the allocation rule table in evaluation order
func Rules() []Rule {
	return slices.Clone(rules)
}

// Plan builds the implementation plan for the selected platforms.
// platforms must be non-empty. Entries are never deduplicated across buckets.
func Plan(record types.FactorRecord, platforms []types.Platform, priority types.Priority) types.ImplementationPlan {
	selected := map[Bucket]bool{
		BucketWeb:    slices.Contains(platforms, types.PlatformWeb),
		BucketMobile: slices.Contains(platforms, types.PlatformMobile),
		BucketShared: true,
	}

	lists := map[Bucket][]string{}
	for _, r := range rules {
		if !selected[r.Bucket] || !r.When(record) {
			continue
		}
		lists[r.Bucket] = append(lists[r.Bucket], r.Entries(record)...)
	}

	plan := types.ImplementationPlan{
		FeaturesByPlatform: types.FeatureAllocation{
			Web:    nonNil(lists[BucketWeb]),
			Mobile: nonNil(lists[BucketMobile]),
			Shared: nonNil(lists[BucketShared]),
		},
	}
	if len(platforms) > 0 {
		plan.MVPPlatform = platforms[0]
	}

	if len(platforms) == 2 && record.Constraints.Budget == types.BudgetLimited {
		plan.PhasedRollout = true
		plan.MVPPlatform = priority.Leading()
	}
	return plan
}

// nonNil keeps empty buckets serialized as [] rather than null
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
