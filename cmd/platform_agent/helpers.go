package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/platform-decider/internal/config"
	"github.com/jonathan/platform-decider/internal/schemas"
	"github.com/jonathan/platform-decider/internal/types"
)

// isURL reports whether a --prd value should be fetched rather than read
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// envDefault returns value, or the environment variable key when value is empty
func envDefault(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

// loadFactorRecord reads a factor record and checks it against the schema
// and the struct validation rules.
func loadFactorRecord(path string) (*types.FactorRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read factor record: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("factor record %s is not valid JSON", path)
	}
	if err := schemas.ValidateFactorRecord(data); err != nil {
		return nil, fmt.Errorf("factor record %s: %w", path, err)
	}

	var record types.FactorRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse factor record: %w", err)
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid factor record: %w", err)
	}
	return &record, nil
}

// loadDecision reads a decision JSON file
func loadDecision(path string) (*types.Decision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decision: %w", err)
	}
	var decision types.Decision
	if err := json.Unmarshal(data, &decision); err != nil {
		return nil, fmt.Errorf("failed to parse decision: %w", err)
	}
	return &decision, nil
}

// loadDecisionConfig returns the decision policy from a config file, or the
// defaults when path is empty.
func loadDecisionConfig(path string) (config.DecisionConfig, error) {
	if path == "" {
		return config.DefaultDecisionConfig(), nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.DecisionConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Decision.Validate(); err != nil {
		return config.DecisionConfig{}, fmt.Errorf("config error: %w", err)
	}
	return cfg.Decision, nil
}

// writeJSON writes v as indented JSON, creating parent directories
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
