// Package pipeline provides the high-level orchestration for the platform decision process.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/platform-decider/internal/config"
	"github.com/jonathan/platform-decider/internal/db"
	"github.com/jonathan/platform-decider/internal/decision"
	"github.com/jonathan/platform-decider/internal/fetch"
	"github.com/jonathan/platform-decider/internal/ingestion"
	"github.com/jonathan/platform-decider/internal/llm"
	"github.com/jonathan/platform-decider/internal/observability"
	"github.com/jonathan/platform-decider/internal/parsing"
	"github.com/jonathan/platform-decider/internal/pipeline/steps"
	"github.com/jonathan/platform-decider/internal/rationale"
	"github.com/jonathan/platform-decider/internal/rendering"
	"github.com/jonathan/platform-decider/internal/schemas"
	"github.com/jonathan/platform-decider/internal/scoring"
	"github.com/jonathan/platform-decider/internal/types"
)

// Output file names written to RunOptions.OutDir
const (
	FactorRecordFile     = "factor_record.json"
	PlatformDecisionFile = "platform_decision.json"
	DecisionMarkdownFile = "platform_decision.md"
)

// ErrNoInput is returned when neither a PRD nor a factor record is given
var ErrNoInput = errors.New("a PRD (path, URL or text) or a factor record is required")

// ErrNoExtractor is returned when factors must be extracted but no LLM is configured
var ErrNoExtractor = errors.New("factor extraction requires an API key or LLM client")

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Store persists runs and their artifacts. *db.DB implements it.
type Store interface {
	CreateRun(ctx context.Context, input db.RunInput) (uuid.UUID, error)
	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status, errMsg string) error
}

// RunOptions holds configuration for running the pipeline.
// Exactly one PRD source is used, in the order PRDText, PRDURL, PRDPath.
// When Factors is set, extraction is skipped and the PRD is optional.
type RunOptions struct {
	PRDPath string
	PRDURL  string
	PRDText string
	Factors *types.FactorRecord

	OutDir       string
	TemplatePath string
	APIKey       string
	UseBrowser   bool
	Verbose      bool
	Decision     config.DecisionConfig

	Store      Store
	LLMClient  llm.Client
	Fetcher    *fetch.CachedFetcher
	Out        io.Writer
	OnProgress ProgressCallback
}

// Result holds everything a run produced
type Result struct {
	RunID    uuid.UUID           `json:"run_id"`
	PRDText  string              `json:"-"`
	Metadata *ingestion.Metadata `json:"metadata,omitempty"`
	Factors  *types.FactorRecord `json:"factors"`
	Trace    []scoring.TraceStep `json:"trace"`
	Decision *types.Decision     `json:"decision"`
	Markdown string              `json:"-"`
	Files    []string            `json:"files,omitempty"`
}

type runner struct {
	opts    RunOptions
	out     io.Writer
	printer *observability.Printer
	tracker *steps.Tracker
	runID   uuid.UUID

	warnMu sync.Mutex
}

// warn prints a non-fatal problem; safe to call from concurrent steps
func (r *runner) warn(format string, args ...any) {
	r.warnMu.Lock()
	defer r.warnMu.Unlock()
	fmt.Fprintf(r.out, "Warning: "+format+"\n", args...)
}

// emitProgress prints the step banner and calls the progress callback if configured
func (r *runner) emitProgress(step, message string, content any) {
	fmt.Fprintf(r.out, "Step %d/%d: %s\n", steps.Position(step), len(steps.Order), message)
	if r.opts.OnProgress == nil {
		return
	}
	event := ProgressEvent{
		Step:     step,
		Category: steps.Category(step),
		Message:  message,
		Content:  content,
	}
	if r.runID != uuid.Nil {
		event.RunID = r.runID.String()
	}
	r.opts.OnProgress(event)
}

// begin checks step dependencies before a step starts
func (r *runner) begin(step string) error {
	if err := r.tracker.Begin(step); err != nil {
		return fmt.Errorf("pipeline out of order: %w", err)
	}
	return nil
}

// Run executes ingestion, factor extraction, scoring, selection and rendering,
// persisting artifacts when a Store is configured.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.PRDText == "" && opts.PRDURL == "" && opts.PRDPath == "" && opts.Factors == nil {
		return nil, ErrNoInput
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	r := &runner{
		opts:    opts,
		out:     out,
		printer: observability.NewPrinter(out),
		tracker: steps.NewTracker(),
	}

	engine, err := decision.New(opts.Decision)
	if err != nil {
		return nil, fmt.Errorf("invalid decision config: %w", err)
	}

	result := &Result{}

	if opts.PRDText != "" || opts.PRDURL != "" || opts.PRDPath != "" {
		if err := r.ingest(ctx, result); err != nil {
			return nil, err
		}
	}

	if opts.Store != nil {
		r.runID, err = opts.Store.CreateRun(ctx, r.runInput(result))
		if err != nil {
			r.warn("Failed to create database run: %v", err)
		} else {
			result.RunID = r.runID
			if opts.Verbose {
				fmt.Fprintf(out, "[VERBOSE] Created database run: %s\n", r.runID)
			}
		}
	}

	if err := r.decide(ctx, engine, result); err != nil {
		r.fail(ctx, err)
		return nil, err
	}

	if err := r.finish(ctx, result); err != nil {
		r.fail(ctx, err)
		return nil, err
	}

	if r.runID != uuid.Nil {
		if err := opts.Store.CompleteRun(ctx, r.runID, db.RunStatusCompleted, ""); err != nil {
			r.warn("Failed to complete database run: %v", err)
		}
	}
	return result, nil
}

func (r *runner) ingest(ctx context.Context, result *Result) error {
	if err := r.begin(steps.IngestPRD); err != nil {
		return err
	}

	var (
		text     string
		metadata *ingestion.Metadata
		err      error
	)
	switch {
	case r.opts.PRDText != "":
		text = ingestion.CleanText(r.opts.PRDText)
		if text == "" {
			return ingestion.ErrEmptyDocument
		}
		metadata = ingestion.NewMetadata(text, "")
		metadata.Format = ingestion.FormatText
		r.emitProgress(steps.IngestPRD, "Ingested PRD text", nil)
	case r.opts.PRDURL != "":
		text, metadata, err = ingestion.IngestFromURL(ctx, r.opts.PRDURL, ingestion.URLOptions{
			APIKey:     r.opts.APIKey,
			UseBrowser: r.opts.UseBrowser,
			Verbose:    r.opts.Verbose,
			Fetcher:    r.opts.Fetcher,
		})
		if err != nil {
			return fmt.Errorf("PRD ingestion from URL failed: %w", err)
		}
		r.emitProgress(steps.IngestPRD, fmt.Sprintf("Ingested PRD from URL: %s", r.opts.PRDURL), nil)
	default:
		text, metadata, err = ingestion.IngestFromFile(r.opts.PRDPath)
		if err != nil {
			return fmt.Errorf("PRD ingestion from file failed: %w", err)
		}
		r.emitProgress(steps.IngestPRD, fmt.Sprintf("Ingested PRD from file: %s", r.opts.PRDPath), nil)
	}

	if r.opts.Verbose {
		r.printer.PrintIngestedPRD(text, metadata)
	}
	result.PRDText = text
	result.Metadata = metadata
	r.tracker.Complete(steps.IngestPRD)
	return nil
}

func (r *runner) runInput(result *Result) db.RunInput {
	input := db.RunInput{Source: db.SourceFactors}
	switch {
	case r.opts.PRDText != "":
		input.Source = db.SourceText
	case r.opts.PRDURL != "":
		input.Source = db.SourceURL
		input.SourceURL = r.opts.PRDURL
	case r.opts.PRDPath != "":
		input.Source = db.SourceFile
	}
	if result.Metadata != nil {
		input.Product = result.Metadata.Product
	}
	return input
}

func (r *runner) decide(ctx context.Context, engine *decision.Engine, result *Result) error {
	factors, err := r.factors(ctx, result.PRDText)
	if err != nil {
		return err
	}
	result.Factors = factors
	if r.opts.Verbose {
		r.printer.PrintFactorRecord(factors)
	}

	if err := r.begin(steps.ScoreFactors); err != nil {
		return err
	}
	result.Trace = scoring.Trace(*factors)
	r.emitProgress(steps.ScoreFactors, "Scored factor record", result.Trace)
	if r.opts.Verbose {
		r.printer.PrintScoreTrace(result.Trace)
	}
	r.tracker.Complete(steps.ScoreFactors)

	if err := r.begin(steps.SelectPlatform); err != nil {
		return err
	}
	d := engine.Decide(*factors)
	result.Decision = &d
	if err := schemas.ValidateDecision(d); err != nil {
		r.warn("decision failed schema validation: %v", err)
	}
	r.emitProgress(steps.SelectPlatform,
		fmt.Sprintf("Selected %s (%s)", rationale.JoinPlatforms(d.Platforms), d.Priority), d)
	if r.opts.Verbose {
		r.printer.PrintDecision(&d)
	}
	r.tracker.Complete(steps.SelectPlatform)
	return nil
}

// factors returns the provided factor record or extracts one from the PRD
func (r *runner) factors(ctx context.Context, prdText string) (*types.FactorRecord, error) {
	if r.opts.Factors != nil {
		if err := r.opts.Factors.Validate(); err != nil {
			return nil, &parsing.ValidationError{
				Field:   "factors",
				Message: "invalid factor record",
				Cause:   err,
			}
		}
		return r.opts.Factors, nil
	}

	if err := r.begin(steps.ExtractFactors); err != nil {
		return nil, err
	}

	client := r.opts.LLMClient
	if client == nil {
		if r.opts.APIKey == "" {
			return nil, ErrNoExtractor
		}
		var err error
		client, err = llm.NewClient(ctx, llm.ConfigFromEnv(), r.opts.APIKey)
		if err != nil {
			return nil, &parsing.APICallError{Message: "failed to create LLM client", Cause: err}
		}
		defer func() { _ = client.Close() }()
	}

	factors, err := parsing.NewExtractor(client, parsing.WithVerbose(r.opts.Verbose)).Extract(ctx, prdText)
	if err != nil {
		return nil, fmt.Errorf("factor extraction failed: %w", err)
	}
	r.emitProgress(steps.ExtractFactors, "Extracted factor record", factors)
	r.tracker.Complete(steps.ExtractFactors)
	return factors, nil
}

// finish renders the document and persists artifacts concurrently
func (r *runner) finish(ctx context.Context, result *Result) error {
	for _, step := range []string{steps.RenderMarkdown, steps.SaveArtifacts} {
		if err := r.begin(step); err != nil {
			return err
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		markdown, err := r.render(result.Decision)
		if err != nil {
			return fmt.Errorf("rendering failed: %w", err)
		}
		result.Markdown = markdown
		if r.opts.OutDir != "" {
			files, err := writeOutputs(r.opts.OutDir, result)
			if err != nil {
				return err
			}
			result.Files = files
		}
		if r.runID != uuid.Nil {
			if err := r.opts.Store.SaveTextArtifact(gCtx, r.runID, db.StepDecisionMarkdown, db.CategoryRendering, markdown); err != nil {
				r.warn("Failed to save decision document: %v", err)
			}
		}
		return nil
	})

	g.Go(func() error {
		if r.runID == uuid.Nil {
			return nil
		}
		store := r.opts.Store
		if result.PRDText != "" {
			if err := store.SaveTextArtifact(gCtx, r.runID, db.StepPRDText, db.CategoryIngestion, result.PRDText); err != nil {
				r.warn("Failed to save PRD text: %v", err)
			}
		}
		if err := store.SaveArtifact(gCtx, r.runID, db.StepFactorRecord, db.CategoryIngestion, result.Factors); err != nil {
			r.warn("Failed to save factor record: %v", err)
		}
		if err := store.SaveArtifact(gCtx, r.runID, db.StepPlatformDecision, db.CategoryDecision, result.Decision); err != nil {
			r.warn("Failed to save decision: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	r.emitProgress(steps.RenderMarkdown, "Rendered decision document", nil)
	r.tracker.Complete(steps.RenderMarkdown)
	if r.runID != uuid.Nil {
		r.emitProgress(steps.SaveArtifacts, "Saved run artifacts", nil)
	}
	r.tracker.Complete(steps.SaveArtifacts)
	return nil
}

func (r *runner) render(d *types.Decision) (string, error) {
	if r.opts.TemplatePath != "" {
		return rendering.RenderMarkdownWithTemplate(d, r.opts.TemplatePath)
	}
	return rendering.RenderMarkdown(d)
}

// fail marks the run failed; persistence errors are ignored
func (r *runner) fail(ctx context.Context, cause error) {
	if r.runID == uuid.Nil {
		return
	}
	_ = r.opts.Store.CompleteRun(ctx, r.runID, db.RunStatusFailed, cause.Error())
}

// writeOutputs writes the factor record, decision and markdown into dir
func writeOutputs(dir string, result *Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name string
		data func() ([]byte, error)
	}{
		{FactorRecordFile, func() ([]byte, error) { return json.MarshalIndent(result.Factors, "", "  ") }},
		{PlatformDecisionFile, func() ([]byte, error) { return json.MarshalIndent(result.Decision, "", "  ") }},
		{DecisionMarkdownFile, func() ([]byte, error) { return []byte(result.Markdown), nil }},
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		data, err := f.data()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", f.name, err)
		}
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
