package main

import (
	"context"
	"fmt"

	"github.com/jonathan/platform-decider/internal/ingestion"
	"github.com/jonathan/platform-decider/internal/llm"
	"github.com/jonathan/platform-decider/internal/observability"
	"github.com/jonathan/platform-decider/internal/parsing"
	"github.com/jonathan/platform-decider/internal/types"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a factor record from a PRD using the LLM",
	Long: `Extract the structured decision factors (audience, features, complexity, constraints)
from a PRD file and write them as factor record JSON.

--defaults writes the neutral default record without reading a PRD or calling the LLM.`,
	RunE: runExtract,
}

var (
	extractPRD      string
	extractOut      string
	extractAPIKey   string
	extractDefaults bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractPRD, "prd", "p", "", "Path to the PRD file (txt, md, html, pdf)")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Output factor record JSON path (required)")
	extractCmd.Flags().StringVar(&extractAPIKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY env var)")
	extractCmd.Flags().BoolVar(&extractDefaults, "defaults", false, "Write the default factor record instead of extracting")

	_ = extractCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	var record *types.FactorRecord
	if extractDefaults {
		defaults := parsing.DefaultFactorRecord()
		record = &defaults
	} else {
		if extractPRD == "" {
			return fmt.Errorf("--prd is required unless --defaults is set")
		}
		apiKey := envDefault(extractAPIKey, "GEMINI_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("an API key is required: set --api-key or GEMINI_API_KEY")
		}

		text, _, err := ingestion.IngestFromFile(extractPRD)
		if err != nil {
			return fmt.Errorf("failed to read PRD: %w", err)
		}

		ctx := context.Background()
		client, err := llm.NewClient(ctx, llm.ConfigFromEnv(), apiKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = client.Close() }()

		record, err = parsing.NewExtractor(client, parsing.WithVerbose(verbose)).Extract(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to extract factor record: %w", err)
		}
	}

	if verbose {
		observability.NewPrinter(out).PrintFactorRecord(record)
	}

	if err := writeJSON(extractOut, record); err != nil {
		return err
	}
	fmt.Fprintf(out, "Factor record written to %s\n", extractOut)
	return nil
}
