package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/platform-decider/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"prd_url": "https://example.com/prd",
		"out_dir": "out",
		"verbose": true,
		"decision": {"score_threshold": 55, "force_single_platform": true}
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://example.com/prd", cfg.PRDURL)
	assert.Equal(t, "out", cfg.OutDir)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 55.0, cfg.Decision.ScoreThresholdOrDefault())
	assert.Equal(t, 10.0, cfg.Decision.ParallelThreshold, "unset values take defaults")
	assert.Equal(t, types.PriorityParallel, cfg.Decision.DefaultPriority)
	assert.True(t, cfg.Decision.ForceSinglePlatform)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	content := `
prd: docs/prd.md
database_url: postgres://localhost/decider
decision:
  parallel_threshold: 15
  default_priority: web-first
`
	for _, name := range []string{"config.yaml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			tmpFile := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

			cfg, err := LoadConfig(tmpFile)
			require.NoError(t, err)

			assert.Equal(t, "docs/prd.md", cfg.PRD)
			assert.Equal(t, "postgres://localhost/decider", cfg.DatabaseURL)
			assert.Equal(t, 60.0, cfg.Decision.ScoreThresholdOrDefault())
			assert.Equal(t, 15.0, cfg.Decision.ParallelThreshold)
			assert.Equal(t, types.PriorityWebFirst, cfg.Decision.DefaultPriority)
		})
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("decision: [unclosed"), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate_MutuallyExclusive(t *testing.T) {
	cfg := &Config{
		PRDURL:  "https://example.com/prd",
		Factors: "factors.json",
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestValidate_MissingFiles(t *testing.T) {
	err := (&Config{PRD: "/nonexistent/prd.md"}).Validate()
	assert.ErrorContains(t, err, "prd file not found")

	err = (&Config{Factors: "/nonexistent/factors.json"}).Validate()
	assert.ErrorContains(t, err, "factors file not found")
}

func TestValidate_BadDecisionPolicy(t *testing.T) {
	cfg := &Config{Decision: DecisionConfig{ParallelThreshold: -5}}
	assert.ErrorContains(t, cfg.Validate(), "parallel_threshold")

	cfg = &Config{Decision: DecisionConfig{DefaultPriority: "desktop-first"}}
	assert.ErrorContains(t, cfg.Validate(), "default_priority")
}

func TestValidate_ValidConfig(t *testing.T) {
	prd := filepath.Join(t.TempDir(), "prd.md")
	require.NoError(t, os.WriteFile(prd, []byte("# PRD"), 0644))

	cfg := &Config{PRD: prd, OutDir: "out"}
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Config{
		PRD:         "default.md",
		OutDir:      "out",
		APIKey:      "default-key",
		DatabaseURL: "postgres://localhost/default",
		Decision:    DecisionConfig{ScoreThreshold: Threshold(70)},
	}

	partial := Config{
		PRD:    "custom.md",
		APIKey: "custom-key",
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, "custom.md", merged.PRD)
	assert.Equal(t, "custom-key", merged.APIKey)

	// Default values should fill in empty fields
	assert.Equal(t, "out", merged.OutDir)
	assert.Equal(t, "postgres://localhost/default", merged.DatabaseURL)
	assert.Equal(t, 70.0, merged.Decision.ScoreThresholdOrDefault())
	assert.Equal(t, 10.0, merged.Decision.ParallelThreshold)
	assert.Equal(t, types.PriorityParallel, merged.Decision.DefaultPriority)
}

func TestDecisionConfig(t *testing.T) {
	d := DefaultDecisionConfig()
	assert.Equal(t, 60.0, d.ScoreThresholdOrDefault())
	assert.Equal(t, 10.0, d.ParallelThreshold)
	assert.False(t, d.ForceSinglePlatform)
	assert.Equal(t, types.PriorityParallel, d.DefaultPriority)
	assert.NoError(t, d.Validate())

	assert.Equal(t, d, DecisionConfig{}.WithDefaults())

	custom := DecisionConfig{ScoreThreshold: Threshold(-20), ForceSinglePlatform: true}.WithDefaults()
	assert.Equal(t, -20.0, custom.ScoreThresholdOrDefault())
	assert.True(t, custom.ForceSinglePlatform)

	zero := DecisionConfig{ScoreThreshold: Threshold(0)}.WithDefaults()
	require.NotNil(t, zero.ScoreThreshold)
	assert.Equal(t, 0.0, zero.ScoreThresholdOrDefault())
}

func TestLoadConfig_ZeroScoreThreshold(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("decision:\n  score_threshold: 0\n"), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg.Decision.ScoreThreshold)
	assert.Equal(t, 0.0, cfg.Decision.ScoreThresholdOrDefault())

	merged := cfg.MergeWithDefaults(Config{Decision: DefaultDecisionConfig()})
	assert.Equal(t, 0.0, merged.Decision.ScoreThresholdOrDefault())
}
