package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/platform-decider/internal/db"
)

func factorsRunBody() string {
	return fmt.Sprintf(`{"factors": %s}`, outdoorJSON)
}

// createRun posts a factors-only run and returns its ID
func createRun(t *testing.T, ts *testServer) uuid.UUID {
	t.Helper()
	rec := ts.do(http.MethodPost, "/runs", factorsRunBody(), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		RunID uuid.UUID `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEqual(t, uuid.Nil, body.RunID)
	return body.RunID
}

func TestRuns_RequireAuth(t *testing.T) {
	ts := newTestServer(t, Deps{Store: newMemoryStore()})

	paths := []struct{ method, path string }{
		{http.MethodPost, "/runs"},
		{http.MethodPost, "/runs/stream"},
		{http.MethodGet, "/runs"},
		{http.MethodGet, "/runs/" + uuid.NewString()},
		{http.MethodDelete, "/runs/" + uuid.NewString()},
		{http.MethodGet, "/runs/" + uuid.NewString() + "/decision"},
		{http.MethodGet, "/runs/" + uuid.NewString() + "/decision.md"},
	}
	for _, p := range paths {
		rec := ts.do(p.method, p.path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestRuns_WithoutStore(t *testing.T) {
	ts := newTestServer(t, Deps{})

	rec := ts.do(http.MethodGet, "/runs", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, ErrStoreUnavailable.Error(), decodeJSON(t, rec)["error"])
}

func TestCreateRun_Factors(t *testing.T) {
	store := newMemoryStore()
	ts := newTestServer(t, Deps{Store: store})

	rec := ts.do(http.MethodPost, "/runs", factorsRunBody(), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	decision, ok := body["decision"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "mobile-first", decision["priority"])

	runID, err := uuid.Parse(body["run_id"].(string))
	require.NoError(t, err)
	run, err := store.GetRun(t.Context(), runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, db.SourceFactors, run.Source)
	assert.Equal(t, db.RunStatusCompleted, run.Status)
}

func TestCreateRun_PRDText(t *testing.T) {
	store := newMemoryStore()
	ts := newTestServer(t, Deps{Store: store, LLMClient: &stubLLM{response: outdoorJSON}})

	rec := ts.do(http.MethodPost, "/runs", `{"prd_text": "FieldTrack: GPS tracking for rangers."}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	runID, err := uuid.Parse(body["run_id"].(string))
	require.NoError(t, err)

	text, err := store.GetTextArtifact(t.Context(), runID, db.StepPRDText)
	require.NoError(t, err)
	assert.Equal(t, "FieldTrack: GPS tracking for rangers.", text)
}

func TestCreateRun_Invalid(t *testing.T) {
	ts := newTestServer(t, Deps{Store: newMemoryStore()})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"empty object", `{}`, http.StatusBadRequest},
		{"not json", `{`, http.StatusBadRequest},
		{"text and url", `{"prd_text": "a", "prd_url": "https://example.com"}`, http.StatusBadRequest},
		{"invalid factors", `{"factors": {"user": {"target_audience": "robots"}}}`, http.StatusBadRequest},
		{"text without llm", `{"prd_text": "An idea."}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/runs", tt.body, true)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeJSON(t, rec)["error"])
		})
	}
}

func TestRunStream(t *testing.T) {
	ts := newTestServer(t, Deps{Store: newMemoryStore()})

	rec := ts.do(http.MethodPost, "/runs/stream", factorsRunBody(), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	stream := rec.Body.String()
	assert.Contains(t, stream, "event: step\n")
	assert.Contains(t, stream, `"step":"select_platform"`)
	assert.True(t, strings.Contains(stream, "event: complete\n"))
	assert.Less(t, strings.Index(stream, "event: step"), strings.Index(stream, "event: complete"))
}

func TestListRuns(t *testing.T) {
	store := newMemoryStore()
	ts := newTestServer(t, Deps{Store: store})
	createRun(t, ts)
	createRun(t, ts)

	rec := ts.do(http.MethodGet, "/runs?status=completed&product=FieldTrack&limit=10", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, 2.0, body["count"])
	assert.Equal(t, db.RunFilters{Product: "FieldTrack", Status: "completed", Limit: 10}, store.lastFilters)

	rec = ts.do(http.MethodGet, "/runs?status=running", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeJSON(t, rec)
	assert.Equal(t, 0.0, body["count"])
	assert.Equal(t, []any{}, body["runs"])
}

func TestListRuns_InvalidQuery(t *testing.T) {
	ts := newTestServer(t, Deps{Store: newMemoryStore()})

	for _, query := range []string{"status=paused", "limit=0", "limit=abc", "limit=501"} {
		rec := ts.do(http.MethodGet, "/runs?"+query, "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestGetRun(t *testing.T) {
	ts := newTestServer(t, Deps{Store: newMemoryStore()})
	runID := createRun(t, ts)

	rec := ts.do(http.MethodGet, "/runs/"+runID.String(), "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, runID.String(), decodeJSON(t, rec)["id"])

	rec = ts.do(http.MethodGet, "/runs/not-a-uuid", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/runs/"+uuid.NewString(), "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunArtifacts(t *testing.T) {
	ts := newTestServer(t, Deps{Store: newMemoryStore()})
	runID := createRun(t, ts)

	rec := ts.do(http.MethodGet, "/runs/"+runID.String()+"/artifacts", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Artifacts []db.ArtifactSummary `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	var steps []string
	for _, a := range body.Artifacts {
		steps = append(steps, a.Step)
	}
	assert.ElementsMatch(t, []string{db.StepFactorRecord, db.StepPlatformDecision, db.StepDecisionMarkdown}, steps)
}

func TestRunDecision(t *testing.T) {
	ts := newTestServer(t, Deps{Store: newMemoryStore()})
	runID := createRun(t, ts)

	rec := ts.do(http.MethodGet, "/runs/"+runID.String()+"/decision", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []any{"mobile"}, decodeJSON(t, rec)["platforms"])

	rec = ts.do(http.MethodGet, "/runs/"+runID.String()+"/decision.md", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "## Decision Result")
}

func TestRunDecision_MissingArtifact(t *testing.T) {
	store := newMemoryStore()
	ts := newTestServer(t, Deps{Store: store})
	runID, err := store.CreateRun(t.Context(), db.RunInput{Source: db.SourceText})
	require.NoError(t, err)

	rec := ts.do(http.MethodGet, "/runs/"+runID.String()+"/decision", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/runs/"+runID.String()+"/decision.md", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRun(t *testing.T) {
	ts := newTestServer(t, Deps{Store: newMemoryStore()})
	runID := createRun(t, ts)

	rec := ts.do(http.MethodDelete, "/runs/"+runID.String(), "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodDelete, "/runs/"+runID.String(), "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
