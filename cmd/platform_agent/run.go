package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/platform-decider/internal/config"
	"github.com/jonathan/platform-decider/internal/db"
	"github.com/jonathan/platform-decider/internal/fetch"
	"github.com/jonathan/platform-decider/internal/pipeline"
	"github.com/jonathan/platform-decider/internal/rationale"
	"github.com/spf13/cobra"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full platform decision pipeline end-to-end",
	Long: `Orchestrates the entire decision process: ingestion -> factor extraction -> scoring -> selection -> rendering -> persistence.

A factor record given with --factors skips extraction, so no API key is needed.
Configuration can be loaded from a JSON or YAML file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runPRD         string
	runFactors     string
	runOutDir      string
	runTemplate    string
	runAPIKey      string
	runUseBrowser  bool
	runDatabaseURL string
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runPRD, "prd", "p", "", "Path or URL of the PRD")
	runCommand.Flags().StringVarP(&runFactors, "factors", "f", "", "Path to a factor record JSON (skips extraction)")
	runCommand.Flags().StringVarP(&runOutDir, "out-dir", "o", "", "Directory for the decision files")
	runCommand.Flags().StringVarP(&runTemplate, "template", "t", "", "Custom markdown template")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for SPA-hosted PRDs (requires Chrome)")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for run and artifact persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if verbose {
			fmt.Fprintf(out, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides, only for flags that were explicitly set
	if cmd.Flags().Changed("prd") {
		cfg.PRD, cfg.PRDURL = "", ""
		if isURL(runPRD) {
			cfg.PRDURL = runPRD
		} else {
			cfg.PRD = runPRD
		}
	}
	if cmd.Flags().Changed("factors") {
		cfg.Factors = runFactors
	}
	if cmd.Flags().Changed("out-dir") {
		cfg.OutDir = runOutDir
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}

	// Step 3: Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.Config{
		OutDir:   "output",
		Decision: config.DefaultDecisionConfig(),
	})

	// Step 4: Validate required fields
	if cfg.PRD == "" && cfg.PRDURL == "" && cfg.Factors == "" {
		return fmt.Errorf("one of --prd or --factors must be provided (via flag or config)")
	}
	if cfg.Factors != "" && (cfg.PRD != "" || cfg.PRDURL != "") {
		return fmt.Errorf("--prd and --factors are mutually exclusive; provide only one")
	}

	opts := pipeline.RunOptions{
		PRDPath:      cfg.PRD,
		PRDURL:       cfg.PRDURL,
		OutDir:       cfg.OutDir,
		TemplatePath: runTemplate,
		APIKey:       envDefault(cfg.APIKey, "GEMINI_API_KEY"),
		UseBrowser:   cfg.UseBrowser,
		Verbose:      cfg.Verbose,
		Decision:     cfg.Decision,
		Out:          out,
	}

	if cfg.Factors != "" {
		record, err := loadFactorRecord(cfg.Factors)
		if err != nil {
			return err
		}
		opts.Factors = record
	} else if opts.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required to extract factors")
	}

	// Step 5: Optional persistence
	if databaseURL := envDefault(cfg.DatabaseURL, "DATABASE_URL"); databaseURL != "" {
		database, err := db.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		fetchCfg := fetch.DefaultCachedFetcherConfig()
		fetchCfg.Verbose = cfg.Verbose
		opts.Store = database
		opts.Fetcher = fetch.NewCachedFetcher(database, fetchCfg)
	}

	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nDecision: %s (%s)\n", rationale.JoinPlatforms(result.Decision.Platforms), result.Decision.Priority)
	fmt.Fprintf(out, "Rationale: %s\n", result.Decision.Rationale)
	fmt.Fprintf(out, "Scores: Web=%s, Mobile=%s\n",
		rationale.FormatScore(result.Decision.Scores.Web), rationale.FormatScore(result.Decision.Scores.Mobile))
	if result.Decision.LowConfidence {
		fmt.Fprintln(out, "Warning: neither platform reached the score threshold")
	}
	for _, f := range result.Files {
		fmt.Fprintf(out, "Wrote %s\n", f)
	}
	if opts.Store != nil && result.RunID != uuid.Nil {
		fmt.Fprintf(out, "Run ID: %s\n", result.RunID)
	}
	return nil
}
