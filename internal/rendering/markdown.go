package rendering

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/jonathan/platform-decider/internal/rationale"
	"github.com/jonathan/platform-decider/internal/types"
)

//go:embed templates/decision.md.tmpl
var templateFS embed.FS

const defaultTemplate = "templates/decision.md.tmpl"

// TemplateData is the view of a decision handed to the markdown template.
// Every string is already escaped.
type TemplateData struct {
	Platforms      string
	Strategy       string
	MVPPlatform    string
	LowConfidence  bool
	Rationale      string
	PhasedRollout  bool
	WebFeatures    []string
	MobileFeatures []string
	SharedFeatures []string
	WebScore       string
	MobileScore    string
}

// StrategyName returns the display label for a development priority
func StrategyName(p types.Priority) string {
	switch p {
	case types.PriorityWebFirst:
		return "Web-first"
	case types.PriorityMobileFirst:
		return "Mobile-first"
	case types.PriorityParallel:
		return "Parallel development"
	default:
		return string(p)
	}
}

// RenderMarkdown renders a decision with the built-in template.
func RenderMarkdown(decision *types.Decision) (string, error) {
	content, err := templateFS.ReadFile(defaultTemplate)
	if err != nil {
		return "", &TemplateError{Message: "failed to read embedded template", Cause: err}
	}
	tmpl, err := parseTemplate(string(content))
	if err != nil {
		return "", err
	}
	return execute(tmpl, decision)
}

// RenderMarkdownWithTemplate renders a decision with a template file on disk.
// The template receives a TemplateData.
func RenderMarkdownWithTemplate(decision *types.Decision, templatePath string) (string, error) {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &TemplateError{Message: fmt.Sprintf("template file not found: %s", templatePath), Cause: err}
		}
		return "", &TemplateError{Message: fmt.Sprintf("failed to read template file: %s", templatePath), Cause: err}
	}
	tmpl, err := parseTemplate(string(content))
	if err != nil {
		return "", err
	}
	return execute(tmpl, decision)
}

func parseTemplate(content string) (*template.Template, error) {
	tmpl, err := template.New("decision").Funcs(template.FuncMap{
		"escape": EscapeMarkdown,
	}).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse template", Cause: err}
	}
	return tmpl, nil
}

func execute(tmpl *template.Template, decision *types.Decision) (string, error) {
	data, err := BuildTemplateData(decision)
	if err != nil {
		return "", err
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}
	return result.String(), nil
}

// BuildTemplateData converts a decision into escaped template fields.
func BuildTemplateData(decision *types.Decision) (*TemplateData, error) {
	if decision == nil {
		return nil, &RenderError{Message: "decision is nil"}
	}
	if len(decision.Platforms) == 0 {
		return nil, &RenderError{Message: "decision has no platforms"}
	}

	names := make([]string, len(decision.Platforms))
	for i, p := range decision.Platforms {
		names[i] = p.DisplayName()
	}

	features := decision.Implementation.FeaturesByPlatform
	return &TemplateData{
		Platforms:      EscapeMarkdown(strings.Join(names, " + ")),
		Strategy:       StrategyName(decision.Priority),
		MVPPlatform:    EscapeMarkdown(decision.Implementation.MVPPlatform.DisplayName()),
		LowConfidence:  decision.LowConfidence,
		Rationale:      EscapeMarkdown(decision.Rationale),
		PhasedRollout:  decision.Implementation.PhasedRollout,
		WebFeatures:    escapeAll(features.Web),
		MobileFeatures: escapeAll(features.Mobile),
		SharedFeatures: escapeAll(features.Shared),
		WebScore:       rationale.FormatScore(decision.Scores.Web),
		MobileScore:    rationale.FormatScore(decision.Scores.Mobile),
	}, nil
}

func escapeAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = EscapeMarkdown(item)
	}
	return out
}
