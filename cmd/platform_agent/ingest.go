package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jonathan/platform-decider/internal/db"
	"github.com/jonathan/platform-decider/internal/fetch"
	"github.com/jonathan/platform-decider/internal/ingestion"
	"github.com/jonathan/platform-decider/internal/observability"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a PRD from a file or URL",
	Long: `Ingest a product requirements document from a file (txt, md, html, pdf) or URL,
clean the content, and write the cleaned text with metadata.

With --db-url, fetched pages are cached in the document_pages table.`,
	RunE: runIngest,
}

var (
	ingestPRD        string
	ingestOutDir     string
	ingestAPIKey     string
	ingestUseBrowser bool
	ingestDBURL      string
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestPRD, "prd", "p", "", "Path or URL of the PRD (required)")
	ingestCmd.Flags().StringVarP(&ingestOutDir, "out", "o", "", "Output directory (required)")
	ingestCmd.Flags().StringVar(&ingestAPIKey, "api-key", "", "Gemini API key for the outline pass on URLs (defaults to GEMINI_API_KEY env var)")
	ingestCmd.Flags().BoolVar(&ingestUseBrowser, "use-browser", false, "Use headless browser for client-rendered pages (requires Chrome)")
	ingestCmd.Flags().StringVar(&ingestDBURL, "db-url", "", "PostgreSQL URL for the page cache (optional)")

	_ = ingestCmd.MarkFlagRequired("prd")
	_ = ingestCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	var (
		cleanedText string
		metadata    *ingestion.Metadata
		err         error
	)
	if isURL(ingestPRD) {
		opts := ingestion.URLOptions{
			APIKey:     envDefault(ingestAPIKey, "GEMINI_API_KEY"),
			UseBrowser: ingestUseBrowser,
			Verbose:    verbose,
		}
		if ingestDBURL != "" {
			database, err := db.Connect(ctx, ingestDBURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer database.Close()
			cfg := fetch.DefaultCachedFetcherConfig()
			cfg.Verbose = verbose
			opts.Fetcher = fetch.NewCachedFetcher(database, cfg)
		}
		cleanedText, metadata, err = ingestion.IngestFromURL(ctx, ingestPRD, opts)
		if err != nil {
			return fmt.Errorf("failed to ingest from URL: %w", err)
		}
	} else {
		cleanedText, metadata, err = ingestion.IngestFromFile(ingestPRD)
		if err != nil {
			return fmt.Errorf("failed to ingest from file: %w", err)
		}
	}

	if verbose {
		observability.NewPrinter(out).PrintIngestedPRD(cleanedText, metadata)
	}

	if err := ingestion.WriteOutput(ingestOutDir, cleanedText, metadata); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Fprintf(out, "Successfully ingested PRD\n")
	fmt.Fprintf(out, "Cleaned text: %s\n", filepath.Join(ingestOutDir, ingestion.CleanedTextFile))
	fmt.Fprintf(out, "Metadata: %s\n", filepath.Join(ingestOutDir, ingestion.MetadataFile))
	return nil
}
