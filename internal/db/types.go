package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one decision pipeline run
type Run struct {
	ID           uuid.UUID  `json:"id"`
	Source       string     `json:"source"`
	SourceURL    *string    `json:"source_url,omitempty"`
	Product      string     `json:"product"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// RunInput holds the fields needed to start a run
type RunInput struct {
	Source    string
	SourceURL string
	Product   string
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run source values
const (
	SourceFile    = "file"
	SourceURL     = "url"
	SourceText    = "text"
	SourceFactors = "factors"
)

// ArtifactStep constants for known artifact types
const (
	StepPRDText          = "prd_text"
	StepFactorRecord     = "factor_record"
	StepPlatformDecision = "platform_decision"
	StepDecisionMarkdown = "decision_markdown"
)

// Artifact categories
const (
	CategoryIngestion = "ingestion"
	CategoryDecision  = "decision"
	CategoryRendering = "rendering"
)

// Artifact represents an artifact record
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Step        string    `json:"step"`
	Category    string    `json:"category"`
	Content     any       `json:"content,omitempty"`
	TextContent string    `json:"text_content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArtifactSummary is a lightweight view of an artifact for listing
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	HasJSON   bool      `json:"has_json"`
	HasText   bool      `json:"has_text"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	Product string
	Status  string
	Limit   int
}

// DefaultRunLimit caps ListRuns when no limit is given
const DefaultRunLimit = 50
