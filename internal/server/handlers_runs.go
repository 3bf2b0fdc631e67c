package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/platform-decider/internal/db"
	"github.com/jonathan/platform-decider/internal/pipeline"
	"github.com/jonathan/platform-decider/internal/types"
)

// maxRunLimit caps the limit query parameter of GET /runs
const maxRunLimit = 500

// CreateRunRequest is the body of POST /runs. Exactly one of PRDText and
// PRDURL may be set; Factors skips extraction.
type CreateRunRequest struct {
	PRDText string              `json:"prd_text,omitempty"`
	PRDURL  string              `json:"prd_url,omitempty"`
	Factors *types.FactorRecord `json:"factors,omitempty"`
}

// Validate checks that the request names a usable input
func (req *CreateRunRequest) Validate() error {
	if req.PRDText != "" && req.PRDURL != "" {
		return &ErrValidation{Field: "prd_text", Message: "prd_text and prd_url are mutually exclusive"}
	}
	if req.PRDText == "" && req.PRDURL == "" && req.Factors == nil {
		return &ErrValidation{Field: "prd_text", Message: "one of prd_text, prd_url or factors is required"}
	}
	return nil
}

// decodeRunRequest reads and validates a CreateRunRequest
func decodeRunRequest(w http.ResponseWriter, r *http.Request) (*CreateRunRequest, error) {
	data, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	var req CreateRunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Server) runOptions(req *CreateRunRequest) pipeline.RunOptions {
	return pipeline.RunOptions{
		PRDText:   req.PRDText,
		PRDURL:    req.PRDURL,
		Factors:   req.Factors,
		APIKey:    s.apiKey,
		Decision:  s.decision,
		Store:     s.store,
		LLMClient: s.llmClient,
		Fetcher:   s.fetcher,
		Out:       io.Discard,
	}
}

// requireStore writes 503 and returns false when no database is configured
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.errorFromErr(w, ErrStoreUnavailable)
		return false
	}
	return true
}

// parseRunID reads the {id} path value
func parseRunID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "invalid run ID: " + raw}
	}
	return id, nil
}

// handleCreateRun runs the pipeline synchronously and returns its result
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	req, err := decodeRunRequest(w, r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	result, err := pipeline.Run(r.Context(), s.runOptions(req))
	if err != nil {
		log.Printf("Pipeline run failed: %v", err)
		s.errorFromErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, result)
}

// handleRunStream runs the pipeline and streams progress as server-sent events
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	req, err := decodeRunRequest(w, r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := s.runOptions(req)
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}

	result, err := pipeline.Run(r.Context(), opts)
	if err != nil {
		log.Printf("Pipeline run failed: %v", err)
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(result)
}

// handleListRuns lists runs, newest first, filtered by product and status
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	query := r.URL.Query()
	filters := db.RunFilters{
		Product: query.Get("product"),
		Status:  query.Get("status"),
	}
	switch filters.Status {
	case "", db.RunStatusRunning, db.RunStatusCompleted, db.RunStatusFailed:
	default:
		s.errorFromErr(w, &ErrValidation{Field: "status", Message: "must be running, completed or failed"})
		return
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxRunLimit {
			s.errorFromErr(w, &ErrValidation{Field: "limit", Message: "must be an integer between 1 and 500"})
			return
		}
		filters.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// lookupRun resolves the {id} path value to a stored run, writing the error response on failure
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*db.Run, bool) {
	if !s.requireStore(w) {
		return nil, false
	}
	id, err := parseRunID(r)
	if err != nil {
		s.errorFromErr(w, err)
		return nil, false
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.errorFromErr(w, err)
		return nil, false
	}
	if run == nil {
		s.errorFromErr(w, &ErrNotFound{Resource: "run", ID: id.String()})
		return nil, false
	}
	return run, true
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, err := parseRunID(r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		s.errorFromErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	artifacts, err := s.store.ListArtifacts(r.Context(), run.ID)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if artifacts == nil {
		artifacts = []db.ArtifactSummary{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_id":    run.ID,
		"artifacts": artifacts,
	})
}

// handleRunDecision returns the stored decision JSON as saved
func (s *Server) handleRunDecision(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	data, err := s.store.GetArtifact(r.Context(), run.ID, db.StepPlatformDecision)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if data == nil {
		s.errorFromErr(w, &ErrNotFound{Resource: "decision for run", ID: run.ID.String()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleRunDecisionMarkdown(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	markdown, err := s.store.GetTextArtifact(r.Context(), run.ID, db.StepDecisionMarkdown)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if markdown == "" {
		s.errorFromErr(w, &ErrNotFound{Resource: "decision document for run", ID: run.ID.String()})
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, markdown)
}
