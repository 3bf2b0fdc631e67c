// Package parsing extracts a structured FactorRecord from PRD text using an LLM.
package parsing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/platform-decider/internal/llm"
	"github.com/jonathan/platform-decider/internal/prompts"
	"github.com/jonathan/platform-decider/internal/types"
)

// Extractor turns PRD text into a FactorRecord with a single LLM call, plus
// one repair call when the first answer fails validation.
type Extractor struct {
	client  llm.Client
	tier    llm.ModelTier
	verbose bool
}

// Option configures an Extractor
type Option func(*Extractor)

// WithTier overrides the model tier used for extraction
func WithTier(tier llm.ModelTier) Option {
	return func(e *Extractor) { e.tier = tier }
}

// WithVerbose logs the raw model responses
func WithVerbose(verbose bool) Option {
	return func(e *Extractor) { e.verbose = verbose }
}

// NewExtractor creates an Extractor over an existing LLM client.
// The caller keeps ownership of client.
func NewExtractor(client llm.Client, opts ...Option) *Extractor {
	e := &Extractor{client: client, tier: llm.TierStandard}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ParseFactorRecord extracts a FactorRecord from cleaned PRD text using the default Gemini configuration
func ParseFactorRecord(ctx context.Context, prdText string, apiKey string) (*types.FactorRecord, error) {
	if apiKey == "" {
		return nil, &APICallError{Message: "API key is required"}
	}

	client, err := llm.NewClient(ctx, llm.ConfigFromEnv(), apiKey)
	if err != nil {
		return nil, &APICallError{
			Message: "failed to create LLM client",
			Cause:   err,
		}
	}
	defer func() { _ = client.Close() }()

	return NewExtractor(client).Extract(ctx, prdText)
}

// Extract returns a normalized, validated FactorRecord for prdText
func (e *Extractor) Extract(ctx context.Context, prdText string) (*types.FactorRecord, error) {
	if strings.TrimSpace(prdText) == "" {
		return nil, &ValidationError{Field: "prd_text", Message: "PRD text is empty"}
	}

	prompt, err := prompts.Render("parsing.json", "extract-factor-record", map[string]string{
		"PRDText": prdText,
	})
	if err != nil {
		return nil, err
	}

	responseText, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return nil, &APICallError{
			Message: "failed to generate factor record",
			Cause:   err,
		}
	}
	if e.verbose {
		log.Printf("[VERBOSE] factor extraction response: %s", responseText)
	}

	record, err := decodeRecord(responseText)
	var invalid validator.ValidationErrors
	switch {
	case err == nil:
		return record, nil
	case errors.As(err, &invalid):
		return e.repair(ctx, responseText, invalid)
	default:
		return nil, err
	}
}

// repair asks the model to fix an invalid record once
func (e *Extractor) repair(ctx context.Context, response string, invalid validator.ValidationErrors) (*types.FactorRecord, error) {
	prompt, err := prompts.Render("parsing.json", "repair-factor-record", map[string]string{
		"Errors":   describeValidation(invalid),
		"Response": response,
	})
	if err != nil {
		return nil, err
	}

	repaired, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return nil, &APICallError{
			Message: "failed to repair factor record",
			Cause:   err,
		}
	}
	if e.verbose {
		log.Printf("[VERBOSE] factor repair response: %s", repaired)
	}

	record, err := decodeRecord(repaired)
	if err == nil {
		return record, nil
	}
	var stillInvalid validator.ValidationErrors
	if errors.As(err, &stillInvalid) && len(stillInvalid) > 0 {
		fe := stillInvalid[0]
		return nil, &ValidationError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("value %q is not allowed (%d invalid field(s))", fe.Value(), len(stillInvalid)),
			Cause:   err,
		}
	}
	return nil, err
}

// decodeRecord parses, normalizes and validates a model response.
// Validation failures are returned as validator.ValidationErrors.
func decodeRecord(responseText string) (*types.FactorRecord, error) {
	var record types.FactorRecord
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(responseText)), &record); err != nil {
		return nil, &ParseError{
			Message: "failed to parse factor record JSON",
			Cause:   err,
		}
	}

	NormalizeFactorRecord(&record)

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

func describeValidation(fieldErrs validator.ValidationErrors) string {
	lines := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		lines = append(lines, fmt.Sprintf("- %s: value %q failed %q", fe.Namespace(), fe.Value(), fe.Tag()))
	}
	return strings.Join(lines, "\n")
}

// DefaultFactorRecord returns the neutral record used when no extraction is
// performed: all users on mixed devices, no special features, medium
// complexity and unconstrained delivery.
func DefaultFactorRecord() types.FactorRecord {
	return types.FactorRecord{
		User: types.UserFactors{
			TargetAudience: types.AudienceAllUsers,
			PrimaryDevice:  types.DeviceMixed,
			UsageContext:   types.ContextFlexible,
		},
		Features: types.FeatureFactors{
			NativeFeatures: []string{},
		},
		Technical: types.TechnicalFactors{
			WebComplexity:    types.ComplexityMedium,
			MobileComplexity: types.ComplexityMedium,
			APIComplexity:    types.ComplexityMedium,
		},
		Constraints: types.ConstraintFactors{
			DevelopmentTime: types.TimeNormal,
			TeamCapability:  types.TeamFullStack,
			Budget:          types.BudgetNormal,
		},
	}
}
