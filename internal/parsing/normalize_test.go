package parsing

import (
	"testing"

	"github.com/jonathan/platform-decider/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeFeatureName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gps", "GPS"},
		{" Geolocation ", "GPS"},
		{"NFC", "NFC"},
		{"BLE", "Bluetooth"},
		{"Camera", "camera"},
		{"accelerometer", "sensors"},
		{"Push Notifications", "push notifications"},
		{"AR kit", "AR kit"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeFeatureName(tt.input))
		})
	}
}

func TestNormalizeFeatures(t *testing.T) {
	got := NormalizeFeatures([]string{"gps", "camera", "", "GPS", "Location", "AR kit", "ar kit"})
	assert.Equal(t, []string{"GPS", "camera", "AR kit"}, got)

	assert.Equal(t, []string{}, NormalizeFeatures(nil))
}

func TestNormalizeFactorRecord(t *testing.T) {
	record := types.FactorRecord{
		User: types.UserFactors{
			TargetAudience: "Mobile User",
			PrimaryDevice:  " Tablet ",
			UsageContext:   "On The Go",
		},
		Technical: types.TechnicalFactors{WebComplexity: "LOW", MobileComplexity: "High", APIComplexity: "medium"},
		Constraints: types.ConstraintFactors{
			DevelopmentTime: "Flexible",
			TeamCapability:  "Web Only",
			Budget:          "sufficient",
		},
	}

	NormalizeFactorRecord(&record)

	assert.Equal(t, types.AudienceMobileUsers, record.User.TargetAudience)
	assert.Equal(t, types.DeviceTablet, record.User.PrimaryDevice)
	assert.Equal(t, types.ContextOnTheGo, record.User.UsageContext)
	assert.Equal(t, types.ComplexityLow, record.Technical.WebComplexity)
	assert.Equal(t, types.ComplexityHigh, record.Technical.MobileComplexity)
	assert.Equal(t, types.TimeFlexible, record.Constraints.DevelopmentTime)
	assert.Equal(t, types.TeamWebOnly, record.Constraints.TeamCapability)
	assert.Equal(t, []string{}, record.Features.NativeFeatures)
	assert.NoError(t, record.Validate())
}
