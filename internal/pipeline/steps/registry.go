// Package steps provides step definitions and dependency validation
// for the platform decision pipeline.
package steps

import (
	"fmt"

	dbpkg "github.com/jonathan/platform-decider/internal/db"
)

// Step names
const (
	IngestPRD      = "ingest_prd"
	ExtractFactors = "extract_factors"
	ScoreFactors   = "score_factors"
	SelectPlatform = "select_platform"
	RenderMarkdown = "render_markdown"
	SaveArtifacts  = "save_artifacts"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	// Optional dependencies are used when present but never block the step.
	Optional []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	IngestPRD: {
		Name:     IngestPRD,
		Category: dbpkg.CategoryIngestion,
	},
	ExtractFactors: {
		Name:         ExtractFactors,
		Category:     dbpkg.CategoryIngestion,
		Dependencies: []string{IngestPRD},
	},
	ScoreFactors: {
		Name:     ScoreFactors,
		Category: dbpkg.CategoryDecision,
		Optional: []string{ExtractFactors},
	},
	SelectPlatform: {
		Name:         SelectPlatform,
		Category:     dbpkg.CategoryDecision,
		Dependencies: []string{ScoreFactors},
	},
	RenderMarkdown: {
		Name:         RenderMarkdown,
		Category:     dbpkg.CategoryRendering,
		Dependencies: []string{SelectPlatform},
	},
	SaveArtifacts: {
		Name:         SaveArtifacts,
		Category:     dbpkg.CategoryRendering,
		Dependencies: []string{SelectPlatform},
		Optional:     []string{IngestPRD, ExtractFactors},
	},
}

// Order is the sequence the pipeline reports steps in.
// RenderMarkdown and SaveArtifacts run concurrently.
var Order = []string{IngestPRD, ExtractFactors, ScoreFactors, SelectPlatform, RenderMarkdown, SaveArtifacts}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Category returns the artifact category of a step, or "" for unknown steps
func Category(stepName string) string {
	return StepRegistry[stepName].Category
}

// Position returns the 1-based position of a step in Order, or 0 if unknown
func Position(stepName string) int {
	for i, name := range Order {
		if name == stepName {
			return i + 1
		}
	}
	return 0
}

// ValidateDependencies checks that all required dependencies of a step
// appear in completed.
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}
	return nil
}

// Tracker records completed steps for one run
type Tracker struct {
	completed map[string]bool
}

// NewTracker creates an empty Tracker
func NewTracker() *Tracker {
	return &Tracker{completed: make(map[string]bool)}
}

// Begin validates that stepName may start
func (t *Tracker) Begin(stepName string) error {
	return ValidateDependencies(t.completed, stepName)
}

// Complete marks stepName as done
func (t *Tracker) Complete(stepName string) {
	t.completed[stepName] = true
}

// Done reports whether stepName has completed
func (t *Tracker) Done(stepName string) bool {
	return t.completed[stepName]
}
