package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jonathan/platform-decider/internal/llm"
)

// PRDOutline is the condensed form of a PRD produced by the outline LLM call
type PRDOutline struct {
	Product        string            `json:"product"`
	Summary        string            `json:"summary"`
	TargetUsers    []string          `json:"target_users"`
	UsageScenarios []string          `json:"usage_scenarios,omitempty"`
	Features       []string          `json:"features"`
	Constraints    map[string]string `json:"constraints,omitempty"`
}

// ExtractWithLLM condenses PRD text into an outline with a fresh Gemini client.
func ExtractWithLLM(ctx context.Context, text string, apiKey string) (*PRDOutline, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required for LLM extraction")
	}

	client, err := llm.NewClient(ctx, llm.ConfigFromEnv(), apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	return ExtractOutline(ctx, client, text)
}

// ExtractOutline condenses PRD text into an outline using client.
func ExtractOutline(ctx context.Context, client llm.Client, text string) (*PRDOutline, error) {
	prompt := llm.BuildExtractionPrompt(llm.PRDOutlineSchema(), text)

	jsonResp, err := client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	var outline PRDOutline
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(jsonResp)), &outline); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w (content: %s)", err, jsonResp)
	}
	if strings.TrimSpace(outline.Summary) == "" && len(outline.Features) == 0 {
		return nil, fmt.Errorf("%w: outline has no summary or features", ErrContentExtractionFailed)
	}

	return &outline, nil
}

// FormatOutline renders an outline as markdown-like text for the factor extractor.
func FormatOutline(outline *PRDOutline) string {
	var sb strings.Builder

	if outline.Product != "" {
		fmt.Fprintf(&sb, "# %s\n\n", outline.Product)
	}
	if outline.Summary != "" {
		sb.WriteString(outline.Summary)
		sb.WriteString("\n\n")
	}

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&sb, "## %s\n", title)
		for _, item := range items {
			sb.WriteString("- " + item + "\n")
		}
		sb.WriteString("\n")
	}
	writeList("Target Users", outline.TargetUsers)
	writeList("Usage Scenarios", outline.UsageScenarios)
	writeList("Features", outline.Features)

	if len(outline.Constraints) > 0 {
		sb.WriteString("## Constraints\n")
		for _, key := range slices.Sorted(maps.Keys(outline.Constraints)) {
			fmt.Fprintf(&sb, "- %s: %s\n", key, outline.Constraints[key])
		}
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String())
}
