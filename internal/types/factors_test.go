//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() FactorRecord {
	return FactorRecord{
		User: UserFactors{
			TargetAudience: AudienceAllUsers,
			PrimaryDevice:  DeviceMixed,
			UsageContext:   ContextFlexible,
		},
		Features: FeatureFactors{
			NativeFeatures: []string{"camera"},
			RealTimeSync:   true,
		},
		Technical: TechnicalFactors{
			WebComplexity:    ComplexityMedium,
			MobileComplexity: ComplexityMedium,
			APIComplexity:    ComplexityMedium,
		},
		Constraints: ConstraintFactors{
			DevelopmentTime: TimeNormal,
			TeamCapability:  TeamFullStack,
			Budget:          BudgetNormal,
		},
	}
}

func TestFactorRecord_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*FactorRecord)
		wantErr   bool
		wantField string
	}{
		{
			name:    "valid record",
			mutate:  func(*FactorRecord) {},
			wantErr: false,
		},
		{
			name:    "nil native features is allowed",
			mutate:  func(f *FactorRecord) { f.Features.NativeFeatures = nil },
			wantErr: false,
		},
		{
			name:      "unknown audience",
			mutate:    func(f *FactorRecord) { f.User.TargetAudience = "robots" },
			wantErr:   true,
			wantField: "TargetAudience",
		},
		{
			name:      "missing device",
			mutate:    func(f *FactorRecord) { f.User.PrimaryDevice = "" },
			wantErr:   true,
			wantField: "PrimaryDevice",
		},
		{
			name:      "unknown complexity",
			mutate:    func(f *FactorRecord) { f.Technical.APIComplexity = "extreme" },
			wantErr:   true,
			wantField: "APIComplexity",
		},
		{
			name:      "unknown team capability",
			mutate:    func(f *FactorRecord) { f.Constraints.TeamCapability = "backend-only" },
			wantErr:   true,
			wantField: "TeamCapability",
		},
		{
			name:      "blank native feature",
			mutate:    func(f *FactorRecord) { f.Features.NativeFeatures = []string{"GPS", ""} },
			wantErr:   true,
			wantField: "NativeFeatures[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(&record)

			err := record.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var validationErrs validator.ValidationErrors
			require.ErrorAs(t, err, &validationErrs)
			assert.Equal(t, tt.wantField, validationErrs[0].Field())
		})
	}
}

func TestFactorRecord_JSONUnmarshaling(t *testing.T) {
	jsonInput := `{
		"user": {
			"target_audience": "mobile-users",
			"primary_device": "mobile",
			"usage_context": "on-the-go"
		},
		"features": {
			"native_features": ["GPS", "camera", "sensors"],
			"complex_forms": false,
			"real_time_sync": false,
			"offline_support": true,
			"media_heavy": false
		},
		"technical": {
			"web_complexity": "low",
			"mobile_complexity": "medium",
			"api_complexity": "medium"
		},
		"constraints": {
			"development_time": "normal",
			"team_capability": "full-stack",
			"budget": "normal"
		}
	}`

	var record FactorRecord
	err := json.Unmarshal([]byte(jsonInput), &record)
	require.NoError(t, err)
	assert.Equal(t, AudienceMobileUsers, record.User.TargetAudience)
	assert.Equal(t, ContextOnTheGo, record.User.UsageContext)
	assert.Equal(t, []string{"GPS", "camera", "sensors"}, record.Features.NativeFeatures)
	assert.True(t, record.Features.OfflineSupport)
	assert.Equal(t, 3, record.NativeFeatureCount())
	assert.NoError(t, record.Validate())
}
