package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/platform-decider/internal/config"
	"github.com/jonathan/platform-decider/internal/db"
	"github.com/jonathan/platform-decider/internal/decision"
	"github.com/jonathan/platform-decider/internal/fetch"
	"github.com/jonathan/platform-decider/internal/llm"
	"github.com/jonathan/platform-decider/internal/pipeline"
	"github.com/jonathan/platform-decider/internal/server/middleware"
	"github.com/jonathan/platform-decider/internal/server/ratelimit"
)

// maxBodyBytes caps request bodies; PRDs above this should be sent by URL
const maxBodyBytes = 2 << 20

// Store is the run storage used by the API. *db.DB implements it.
type Store interface {
	pipeline.Store
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListRuns(ctx context.Context, filters db.RunFilters) ([]db.Run, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error)
	GetTextArtifact(ctx context.Context, runID uuid.UUID, step string) (string, error)
	ListArtifacts(ctx context.Context, runID uuid.UUID) ([]db.ArtifactSummary, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	store       Store
	closeStore  func()
	engine      *decision.Engine
	decision    config.DecisionConfig
	apiKey      string
	llmClient   llm.Client
	fetcher     *fetch.CachedFetcher
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// Config holds server configuration
type Config struct {
	Port int
	// DatabaseURL is optional; without it only the stateless endpoints work.
	DatabaseURL string
	APIKey      string
	UseBrowser  bool
	Decision    config.DecisionConfig
}

// Deps are the collaborators of a Server. Zero values are allowed except
// JWT.
type Deps struct {
	Store       Store
	JWT         *JWTService
	RateLimiter *ratelimit.Limiter
	LLMClient   llm.Client
	Fetcher     *fetch.CachedFetcher
}

// New connects to the database (when configured) and creates a server instance
func New(cfg Config) (*Server, error) {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	deps := Deps{
		JWT:         NewJWTService(jwtConfig),
		RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
	}

	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deps.Store = database
		deps.Fetcher = fetch.NewCachedFetcher(database, nil)
	} else {
		log.Printf("DATABASE_URL not set; /runs endpoints are disabled")
	}

	s, err := NewWithDeps(cfg, deps)
	if err != nil {
		if database != nil {
			database.Close()
		}
		return nil, err
	}
	if database != nil {
		s.closeStore = database.Close
	}
	return s, nil
}

// NewWithDeps creates a server over existing collaborators
func NewWithDeps(cfg Config, deps Deps) (*Server, error) {
	if deps.JWT == nil {
		return nil, fmt.Errorf("JWT service is required")
	}
	engine, err := decision.New(cfg.Decision)
	if err != nil {
		return nil, fmt.Errorf("invalid decision config: %w", err)
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}

	s := &Server{
		store:       deps.Store,
		engine:      engine,
		decision:    cfg.Decision,
		apiKey:      cfg.APIKey,
		llmClient:   deps.LLMClient,
		fetcher:     deps.Fetcher,
		rateLimiter: deps.RateLimiter,
		jwtService:  deps.JWT,
	}

	auth := middleware.AuthMiddleware(deps.JWT.AsTokenValidator())
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /decisions", s.handleDecide)

	mux.Handle("POST /runs", protected(s.handleCreateRun))
	mux.Handle("POST /runs/stream", protected(s.handleRunStream))
	mux.Handle("GET /runs", protected(s.handleListRuns))
	mux.Handle("GET /runs/{id}", protected(s.handleGetRun))
	mux.Handle("DELETE /runs/{id}", protected(s.handleDeleteRun))
	mux.Handle("GET /runs/{id}/artifacts", protected(s.handleRunArtifacts))
	mux.Handle("GET /runs/{id}/decision", protected(s.handleRunDecision))
	mux.Handle("GET /runs/{id}/decision.md", protected(s.handleRunDecisionMarkdown))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // pipeline runs may wait on the LLM
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.Close()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	log.Println("Server stopped")
	return nil
}

// Close releases the rate limiter and database connection
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.closeStore != nil {
		s.closeStore()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects requests over the per-client endpoint limit
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := s.rateLimiter.Allow(clientIP(r), r.Method, r.URL.Path)
		setRateLimitHeaders(w, info)
		if !info.Allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streaming working through the logging middleware
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s %d %s in %v", r.Method, r.URL.Path, rec.status, r.RemoteAddr, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"database": s.store != nil,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFromErr writes err with the status HTTPStatus maps it to
func (s *Server) errorFromErr(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// clientIP extracts the client IP from RemoteAddr. X-Forwarded-For is
// ignored since the server does not know its proxies.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate limit exceeded",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d", info.Limit, info.Remaining)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
