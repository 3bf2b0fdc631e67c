package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/platform-decider/internal/pipeline"
	"github.com/jonathan/platform-decider/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_Factors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := executeCommand(t, "run", "--factors", "testdata/outdoor_factors.json", "--out-dir", outDir)
	require.NoError(t, err)

	assert.Contains(t, out, "Decision: mobile (mobile-first)")
	assert.Contains(t, out, "Scores: Web=30, Mobile=145")
	assert.Contains(t, out, "Rationale: Target users are mainly mobile users who need a mobile experience; Requires 3 native feature(s)")
	assert.Contains(t, out, "Decision: build mobile, mobile-first strategy.")
	assert.NotContains(t, out, "Run ID")
	for _, name := range []string{pipeline.FactorRecordFile, pipeline.PlatformDecisionFile, pipeline.DecisionMarkdownFile} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
}

func TestRunCommand_ConfigFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	outDir := filepath.Join(dir, "from-config")
	factors, err := filepath.Abs("testdata/ecommerce_factors.json")
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "factors: " + factors + "\nout_dir: " + outDir + "\ndecision:\n  force_single_platform: true\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := executeCommand(t, "run", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Decision: mobile (mobile-first)")

	d := readDecision(t, filepath.Join(outDir, pipeline.PlatformDecisionFile))
	assert.Equal(t, []types.Platform{types.PlatformMobile}, d.Platforms)
}

func TestRunCommand_FlagOverridesConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	configOut := filepath.Join(dir, "config-out")
	flagOut := filepath.Join(dir, "flag-out")

	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"out_dir": "`+configOut+`"}`), 0o644))

	_, err := executeCommand(t, "run", "--config", cfgPath, "--factors", "testdata/enterprise_factors.json", "--out-dir", flagOut)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(flagOut, pipeline.PlatformDecisionFile))
	assert.NoDirExists(t, configOut)
}

func TestRunCommand_Errors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "")

	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{
			name:        "no input",
			args:        []string{"run"},
			errorString: "one of --prd or --factors must be provided",
		},
		{
			name:        "both inputs",
			args:        []string{"run", "--prd", "prd.md", "--factors", "testdata/outdoor_factors.json"},
			errorString: "mutually exclusive",
		},
		{
			name:        "prd without API key",
			args:        []string{"run", "--prd", "../../internal/ingestion/testdata/field_service_prd.md", "--out-dir", t.TempDir()},
			errorString: "GEMINI_API_KEY",
		},
		{
			name:        "missing config file",
			args:        []string{"run", "--config", "testdata/missing.yaml"},
			errorString: "failed to load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}
