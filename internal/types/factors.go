// Package types provides type definitions for structured data used throughout the platform-decider system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/go-playground/validator/v10"

// TargetAudience describes who the product is primarily built for
type TargetAudience string

// TargetAudience values
const (
	AudienceOfficeWorkers TargetAudience = "office-workers"
	AudienceMobileUsers   TargetAudience = "mobile-users"
	AudienceAllUsers      TargetAudience = "all-users"
)

// PrimaryDevice describes the device the audience mostly uses
type PrimaryDevice string

// PrimaryDevice values
const (
	DeviceDesktop PrimaryDevice = "desktop"
	DeviceMobile  PrimaryDevice = "mobile"
	DeviceTablet  PrimaryDevice = "tablet"
	DeviceMixed   PrimaryDevice = "mixed"
)

// UsageContext describes where the product is used
type UsageContext string

// UsageContext values
const (
	ContextFixedLocation UsageContext = "fixed-location"
	ContextOnTheGo       UsageContext = "on-the-go"
	ContextFlexible      UsageContext = "flexible"
)

// Complexity is a coarse implementation complexity rating
type Complexity string

// Complexity values
const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// DevelopmentTime describes schedule pressure
type DevelopmentTime string

// DevelopmentTime values
const (
	TimeTight    DevelopmentTime = "tight"
	TimeNormal   DevelopmentTime = "normal"
	TimeFlexible DevelopmentTime = "flexible"
)

// TeamCapability describes which platforms the team can build for
type TeamCapability string

// TeamCapability values
const (
	TeamWebOnly    TeamCapability = "web-only"
	TeamMobileOnly TeamCapability = "mobile-only"
	TeamFullStack  TeamCapability = "full-stack"
)

// Budget describes funding constraints
type Budget string

// Budget values
const (
	BudgetLimited    Budget = "limited"
	BudgetNormal     Budget = "normal"
	BudgetSufficient Budget = "sufficient"
)

// FactorRecord is the structured input to a platform decision, normally
// extracted from a product requirements document.
type FactorRecord struct {
	User        UserFactors       `json:"user"`
	Features    FeatureFactors    `json:"features"`
	Technical   TechnicalFactors  `json:"technical"`
	Constraints ConstraintFactors `json:"constraints"`
}

// UserFactors describes the audience of the product
type UserFactors struct {
	TargetAudience TargetAudience `json:"target_audience" validate:"required,oneof=office-workers mobile-users all-users"`
	PrimaryDevice  PrimaryDevice  `json:"primary_device" validate:"required,oneof=desktop mobile tablet mixed"`
	UsageContext   UsageContext   `json:"usage_context" validate:"required,oneof=fixed-location on-the-go flexible"`
}

// FeatureFactors describes the capabilities the product needs
type FeatureFactors struct {
	NativeFeatures []string `json:"native_features" validate:"dive,required"` // GPS, camera, sensors...
	ComplexForms   bool     `json:"complex_forms"`
	RealTimeSync   bool     `json:"real_time_sync"`
	OfflineSupport bool     `json:"offline_support"`
	MediaHeavy     bool     `json:"media_heavy"`
}

// TechnicalFactors rates the implementation complexity per surface
type TechnicalFactors struct {
	WebComplexity    Complexity `json:"web_complexity" validate:"required,oneof=low medium high"`
	MobileComplexity Complexity `json:"mobile_complexity" validate:"required,oneof=low medium high"`
	APIComplexity    Complexity `json:"api_complexity" validate:"required,oneof=low medium high"`
}

// ConstraintFactors describes delivery constraints
type ConstraintFactors struct {
	DevelopmentTime DevelopmentTime `json:"development_time" validate:"required,oneof=tight normal flexible"`
	TeamCapability  TeamCapability  `json:"team_capability" validate:"required,oneof=web-only mobile-only full-stack"`
	Budget          Budget          `json:"budget" validate:"required,oneof=limited normal sufficient"`
}

// Validate checks that every enumerated field holds a known value.
// The decision engine itself never calls this; callers validate at the boundary.
func (f *FactorRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(f)
}

// NativeFeatureCount returns the number of native capabilities requested
func (f FactorRecord) NativeFeatureCount() int {
	return len(f.Features.NativeFeatures)
}
