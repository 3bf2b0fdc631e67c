package parsing

import (
	"strings"

	"github.com/jonathan/platform-decider/internal/types"
)

// featureNormalizations maps common native feature variants to canonical names
var featureNormalizations = map[string]string{
	"gps":                "GPS",
	"location":           "GPS",
	"geolocation":        "GPS",
	"nfc":                "NFC",
	"bluetooth":          "Bluetooth",
	"ble":                "Bluetooth",
	"camera":             "camera",
	"photo capture":      "camera",
	"sensor":             "sensors",
	"sensors":            "sensors",
	"accelerometer":      "sensors",
	"push":               "push notifications",
	"push notification":  "push notifications",
	"push notifications": "push notifications",
	"biometrics":         "biometrics",
	"face id":            "biometrics",
	"fingerprint":        "biometrics",
}

// enumAliases maps spellings models commonly produce to enum values
var enumAliases = map[string]string{
	"fullstack":     "full-stack",
	"everyone":      "all-users",
	"onthego":       "on-the-go",
	"office-worker": "office-workers",
	"mobile-user":   "mobile-users",
}

// NormalizeFeatureName returns the canonical name of a native feature
func NormalizeFeatureName(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := featureNormalizations[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// NormalizeFeatures canonicalizes names, drops blanks and removes duplicates
// while keeping first-seen order
func NormalizeFeatures(features []string) []string {
	normalized := make([]string, 0, len(features))
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		name := NormalizeFeatureName(f)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		normalized = append(normalized, name)
	}
	return normalized
}

// normalizeEnum lowercases and hyphenates a free-form enum value
func normalizeEnum(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer("_", "-", " ", "-").Replace(v)
	if alias, ok := enumAliases[v]; ok {
		return alias
	}
	return v
}

// NormalizeFactorRecord rewrites enum values and feature names in place.
// Values that are still unknown afterwards are left for validation to reject.
func NormalizeFactorRecord(record *types.FactorRecord) {
	record.User.TargetAudience = types.TargetAudience(normalizeEnum(string(record.User.TargetAudience)))
	record.User.PrimaryDevice = types.PrimaryDevice(normalizeEnum(string(record.User.PrimaryDevice)))
	record.User.UsageContext = types.UsageContext(normalizeEnum(string(record.User.UsageContext)))

	record.Features.NativeFeatures = NormalizeFeatures(record.Features.NativeFeatures)

	record.Technical.WebComplexity = types.Complexity(normalizeEnum(string(record.Technical.WebComplexity)))
	record.Technical.MobileComplexity = types.Complexity(normalizeEnum(string(record.Technical.MobileComplexity)))
	record.Technical.APIComplexity = types.Complexity(normalizeEnum(string(record.Technical.APIComplexity)))

	record.Constraints.DevelopmentTime = types.DevelopmentTime(normalizeEnum(string(record.Constraints.DevelopmentTime)))
	record.Constraints.TeamCapability = types.TeamCapability(normalizeEnum(string(record.Constraints.TeamCapability)))
	record.Constraints.Budget = types.Budget(normalizeEnum(string(record.Constraints.Budget)))
}
