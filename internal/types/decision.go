//nolint:revive // types is a standard Go package name pattern
package types

import "slices"

// Platform is a client platform a product can target
type Platform string

// Platform values
const (
	PlatformWeb    Platform = "web"
	PlatformMobile Platform = "mobile"
)

// DisplayName returns the capitalized name used in documents
func (p Platform) DisplayName() string {
	switch p {
	case PlatformWeb:
		return "Web"
	case PlatformMobile:
		return "Mobile"
	default:
		return string(p)
	}
}

// Priority is the development ordering across selected platforms
type Priority string

// Priority values
const (
	PriorityWebFirst    Priority = "web-first"
	PriorityMobileFirst Priority = "mobile-first"
	PriorityParallel    Priority = "parallel"
)

// Leading returns the platform a priority puts first.
// Anything other than web-first leads with mobile.
func (p Priority) Leading() Platform {
	if p == PriorityWebFirst {
		return PlatformWeb
	}
	return PlatformMobile
}

// FirstPriority returns the "-first" priority for a platform
func FirstPriority(p Platform) Priority {
	if p == PlatformWeb {
		return PriorityWebFirst
	}
	return PriorityMobileFirst
}

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityWebFirst, PriorityMobileFirst, PriorityParallel:
		return true
	default:
		return false
	}
}

// ScorePair holds the unbounded fitness scores for both platforms
type ScorePair struct {
	Web    float64 `json:"web"`
	Mobile float64 `json:"mobile"`
}

// Decision is the complete output of one platform decision
type Decision struct {
	Platforms      []Platform         `json:"platforms"`
	Priority       Priority           `json:"priority"`
	Rationale      string             `json:"rationale"`
	Implementation ImplementationPlan `json:"implementation"`
	Scores         ScorePair          `json:"scores"`
	LowConfidence  bool               `json:"low_confidence"`
}

// ImplementationPlan describes how the selected platforms are rolled out
type ImplementationPlan struct {
	PhasedRollout      bool              `json:"phased_rollout"`
	MVPPlatform        Platform          `json:"mvp_platform"`
	FeaturesByPlatform FeatureAllocation `json:"features_by_platform"`
}

// FeatureAllocation assigns feature labels to platform buckets
type FeatureAllocation struct {
	Web    []string `json:"web"`
	Mobile []string `json:"mobile"`
	Shared []string `json:"shared"`
}

// HasPlatform reports whether p is among the selected platforms
func (d Decision) HasPlatform(p Platform) bool {
	return slices.Contains(d.Platforms, p)
}
