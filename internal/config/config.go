// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Inputs
	PRD     string `json:"prd,omitempty" yaml:"prd,omitempty"`         // Path to PRD file (txt, md, html, pdf)
	PRDURL  string `json:"prd_url,omitempty" yaml:"prd_url,omitempty"` // URL to fetch the PRD from
	Factors string `json:"factors,omitempty" yaml:"factors,omitempty"` // Path to a factor record JSON, skips extraction
	OutDir  string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"` // Directory for run artifacts

	// Behavior
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"`           // Gemini API key
	UseBrowser  bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`   // Use headless browser for SPA-hosted PRDs
	Verbose     bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`           // Print detailed debug information
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL

	// Decision policy; zero values fall back to DefaultDecisionConfig
	Decision DecisionConfig `json:"decision" yaml:"decision"`
}

// LoadConfig loads configuration from a JSON or YAML file. Files ending in
// .yaml or .yml are parsed as YAML, everything else as JSON.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.Decision = cfg.Decision.WithDefaults()
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	// Only one PRD source may be configured
	sources := 0
	for _, s := range []string{c.PRD, c.PRDURL, c.Factors} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return fmt.Errorf("config error: 'prd', 'prd_url' and 'factors' are mutually exclusive")
	}

	if c.PRD != "" {
		if _, err := os.Stat(c.PRD); os.IsNotExist(err) {
			return fmt.Errorf("config error: prd file not found: %s", c.PRD)
		}
	}
	if c.Factors != "" {
		if _, err := os.Stat(c.Factors); os.IsNotExist(err) {
			return fmt.Errorf("config error: factors file not found: %s", c.Factors)
		}
	}

	if err := c.Decision.WithDefaults().Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.PRD == "" {
		result.PRD = defaults.PRD
	}
	if result.PRDURL == "" {
		result.PRDURL = defaults.PRDURL
	}
	if result.Factors == "" {
		result.Factors = defaults.Factors
	}
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Decision thresholds: nil or zero means unset
	if result.Decision.ScoreThreshold == nil {
		result.Decision.ScoreThreshold = defaults.Decision.ScoreThreshold
	}
	if result.Decision.ParallelThreshold == 0 {
		result.Decision.ParallelThreshold = defaults.Decision.ParallelThreshold
	}
	if result.Decision.DefaultPriority == "" {
		result.Decision.DefaultPriority = defaults.Decision.DefaultPriority
	}
	result.Decision = result.Decision.WithDefaults()

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
