package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/platform-decider/internal/config"
	"github.com/jonathan/platform-decider/internal/db"
	"github.com/jonathan/platform-decider/internal/llm"
	"github.com/jonathan/platform-decider/internal/server/ratelimit"
)

const outdoorJSON = `{
	"user": {"target_audience": "mobile-users", "primary_device": "mobile", "usage_context": "on-the-go"},
	"features": {"native_features": ["GPS", "camera", "sensors"], "complex_forms": false,
		"real_time_sync": false, "offline_support": true, "media_heavy": false},
	"technical": {"web_complexity": "low", "mobile_complexity": "medium", "api_complexity": "medium"},
	"constraints": {"development_time": "normal", "team_capability": "full-stack", "budget": "normal"}
}`

// memoryStore is an in-memory Store
type memoryStore struct {
	mu          sync.Mutex
	runs        map[uuid.UUID]*db.Run
	jsonByKey   map[string][]byte
	textByKey   map[string]string
	lastFilters db.RunFilters
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		runs:      map[uuid.UUID]*db.Run{},
		jsonByKey: map[string][]byte{},
		textByKey: map[string]string{},
	}
}

func artifactKey(runID uuid.UUID, step string) string {
	return runID.String() + "/" + step
}

func (m *memoryStore) CreateRun(_ context.Context, input db.RunInput) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.runs[id] = &db.Run{
		ID:        id,
		Source:    input.Source,
		Product:   input.Product,
		Status:    db.RunStatusRunning,
		CreatedAt: time.Now(),
	}
	return id, nil
}

func (m *memoryStore) SaveArtifact(_ context.Context, runID uuid.UUID, step, _ string, content any) error {
	data, err := json.Marshal(content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jsonByKey[artifactKey(runID, step)] = data
	return nil
}

func (m *memoryStore) SaveTextArtifact(_ context.Context, runID uuid.UUID, step, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textByKey[artifactKey(runID, step)] = text
	return nil
}

func (m *memoryStore) CompleteRun(_ context.Context, runID uuid.UUID, status, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[runID]; ok {
		run.Status = status
	}
	return nil
}

func (m *memoryStore) GetRun(_ context.Context, runID uuid.UUID) (*db.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

func (m *memoryStore) ListRuns(_ context.Context, filters db.RunFilters) ([]db.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilters = filters
	var runs []db.Run
	for _, run := range m.runs {
		if filters.Status == "" || run.Status == filters.Status {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

func (m *memoryStore) DeleteRun(_ context.Context, runID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return fmt.Errorf("%w: %s", db.ErrRunNotFound, runID)
	}
	delete(m.runs, runID)
	return nil
}

func (m *memoryStore) GetArtifact(_ context.Context, runID uuid.UUID, step string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jsonByKey[artifactKey(runID, step)], nil
}

func (m *memoryStore) GetTextArtifact(_ context.Context, runID uuid.UUID, step string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.textByKey[artifactKey(runID, step)], nil
}

func (m *memoryStore) ListArtifacts(_ context.Context, runID uuid.UUID) ([]db.ArtifactSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.ArtifactSummary
	prefix := runID.String() + "/"
	for key := range m.jsonByKey {
		if step, ok := strings.CutPrefix(key, prefix); ok {
			out = append(out, db.ArtifactSummary{Step: step, HasJSON: true})
		}
	}
	for key := range m.textByKey {
		if step, ok := strings.CutPrefix(key, prefix); ok {
			out = append(out, db.ArtifactSummary{Step: step})
		}
	}
	return out, nil
}

// stubLLM answers every prompt with the same JSON
type stubLLM struct {
	response string
}

func (s *stubLLM) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return s.GenerateJSON(ctx, prompt, tier)
}

func (s *stubLLM) GenerateJSON(context.Context, string, llm.ModelTier) (string, error) {
	return s.response, nil
}

func (s *stubLLM) GetModel(llm.ModelTier) string { return "stub" }
func (s *stubLLM) Close() error                  { return nil }

func testJWTService() *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          "test-secret",
		Issuer:          config.DefaultJWTIssuer,
		ExpirationHours: 1,
	})
}

type testServer struct {
	*Server
	token string
}

func newTestServer(t *testing.T, deps Deps) *testServer {
	t.Helper()
	if deps.JWT == nil {
		deps.JWT = testJWTService()
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}
	s, err := NewWithDeps(Config{}, deps)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	token, err := deps.JWT.GenerateToken(uuid.New())
	require.NoError(t, err)
	return &testServer{Server: s, token: token}
}

// do sends a request through the full middleware chain
func (ts *testServer) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1234"
	if authed {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestNewWithDeps_RequiresJWT(t *testing.T) {
	_, err := NewWithDeps(Config{}, Deps{})
	assert.Error(t, err)
}

func TestNewWithDeps_InvalidDecisionConfig(t *testing.T) {
	_, err := NewWithDeps(Config{Decision: config.DecisionConfig{DefaultPriority: "sideways"}}, Deps{JWT: testJWTService()})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Deps{})

	rec := ts.do(http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["database"])
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, Deps{})

	rec := ts.do(http.MethodOptions, "/runs", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled: true,
		Default: ratelimit.Rule{Limit: 100, Window: time.Minute},
		Rules: []ratelimit.Rule{
			{Method: http.MethodPost, Path: "/decisions", Limit: 1, Window: time.Hour},
		},
	})
	ts := newTestServer(t, Deps{RateLimiter: limiter})

	first := ts.do(http.MethodPost, "/decisions", outdoorJSON, false)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := ts.do(http.MethodPost, "/decisions", outdoorJSON, false)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", decodeJSON(t, second)["error"])

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", "", false).Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.RemoteAddr = "not-a-host-port"
	assert.Equal(t, "not-a-host-port", clientIP(req))
}
