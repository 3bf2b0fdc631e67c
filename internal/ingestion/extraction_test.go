package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/platform-decider/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	response string
	err      error
	prompt   string
	tier     llm.ModelTier
}

func (s *stubClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return s.GenerateJSON(ctx, prompt, tier)
}

func (s *stubClient) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	s.prompt = prompt
	s.tier = tier
	return s.response, s.err
}

func (s *stubClient) GetModel(llm.ModelTier) string { return "stub" }

func (s *stubClient) Close() error { return nil }

func TestExtractOutline(t *testing.T) {
	client := &stubClient{response: "```json\n" + `{
		"product": "Trail Tracker",
		"summary": "Route recording for hikers.",
		"target_users": ["Hikers on phones"],
		"features": ["GPS tracking", "Offline maps"],
		"constraints": {"team": "full-stack"}
	}` + "\n```"}

	outline, err := ExtractOutline(context.Background(), client, "PRD body text")
	require.NoError(t, err)
	assert.Equal(t, "Trail Tracker", outline.Product)
	assert.Equal(t, []string{"GPS tracking", "Offline maps"}, outline.Features)
	assert.Equal(t, "full-stack", outline.Constraints["team"])
	assert.Equal(t, llm.TierLite, client.tier)
	assert.Contains(t, client.prompt, "PRD body text")
	assert.Contains(t, client.prompt, `"target_users"`)
}

func TestExtractOutline_Errors(t *testing.T) {
	tests := []struct {
		name   string
		client *stubClient
	}{
		{"client error", &stubClient{err: errors.New("quota exceeded")}},
		{"invalid JSON", &stubClient{response: "I cannot help with that"}},
		{"empty outline", &stubClient{response: `{"product": "X"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outline, err := ExtractOutline(context.Background(), tt.client, "text")
			assert.Error(t, err)
			assert.Nil(t, outline)
		})
	}
}

func TestExtractWithLLM_RequiresAPIKey(t *testing.T) {
	_, err := ExtractWithLLM(context.Background(), "text", "")
	assert.ErrorContains(t, err, "API key required")
}

func TestFormatOutline(t *testing.T) {
	outline := &PRDOutline{
		Product:        "Trail Tracker",
		Summary:        "Route recording for hikers.",
		TargetUsers:    []string{"Hikers"},
		UsageScenarios: []string{"Outdoors without signal"},
		Features:       []string{"GPS tracking"},
		Constraints:    map[string]string{"timeline": "tight", "budget": "limited"},
	}

	want := "# Trail Tracker\n\n" +
		"Route recording for hikers.\n\n" +
		"## Target Users\n- Hikers\n\n" +
		"## Usage Scenarios\n- Outdoors without signal\n\n" +
		"## Features\n- GPS tracking\n\n" +
		"## Constraints\n- budget: limited\n- timeline: tight"
	assert.Equal(t, want, FormatOutline(outline))
}

func TestFormatOutline_SkipsEmptySections(t *testing.T) {
	got := FormatOutline(&PRDOutline{Features: []string{"Camera"}})
	assert.Equal(t, "## Features\n- Camera", got)
}
