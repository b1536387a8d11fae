// Package httpapi serves the course assistant over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/petasbytes/course-rag/internal/rag"
	"github.com/petasbytes/course-rag/internal/resilience"
	"github.com/petasbytes/course-rag/tools"
)

// Service is the question-answering backend the handlers call.
type Service interface {
	Query(ctx context.Context, query, sessionID string) (string, []tools.Source, error)
	CourseAnalytics(ctx context.Context) (rag.Analytics, error)
	CreateSession(ctx context.Context) (string, error)
}

type Options struct {
	Logger         zerolog.Logger
	MetricsEnabled bool
	// Breaker, when set, is reported by /health.
	Breaker *resilience.CircuitBreaker
	// MaxBodyBytes caps request bodies; 0 means 1 MiB.
	MaxBodyBytes int64
}

// Server provides the HTTP interface for the course assistant.
type Server struct {
	service Service
	opts    Options
	logger  zerolog.Logger
	router  *httprouter.Router
	server  *http.Server
}

func NewServer(service Service, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		service: service,
		opts:    opts,
		logger:  opts.Logger,
		router:  httprouter.New(),
	}
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.handle(http.MethodPost, "/api/query", s.handleQuery)
	s.handle(http.MethodGet, "/api/courses", s.handleCourses)
	s.handle(http.MethodGet, "/", s.handleIndex)
	s.handle(http.MethodGet, "/health", s.handleHealth)
	if s.opts.MetricsEnabled {
		s.router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	}
}

// Handler returns the routed handler, for tests and custom servers.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on addr and blocks until the server stops. It returns nil
// after a graceful Shutdown, including one that happened before Start.
func (s *Server) Start(addr string) error {
	s.server.Addr = addr
	s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type queryRequest struct {
	Query     *string `json:"query"`
	SessionID string  `json:"session_id,omitempty"`
}

type queryResponse struct {
	Answer    string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := zerolog.Ctx(r.Context())

	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid JSON body: " + err.Error()})
		return
	}
	if req.Query == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "field required: query"})
		return
	}
	if strings.TrimSpace(*req.Query) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: rag.ErrEmptyQuery.Error()})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		id, err := s.service.CreateSession(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to create session")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
			return
		}
		sessionID = id
	}

	answer, sources, err := s.service.Query(r.Context(), *req.Query, sessionID)
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			log.Error().Err(err).Str("session_id", sessionID).Msg("Query failed")
		}
		writeJSON(w, status, errorResponse{Detail: err.Error()})
		return
	}
	if sources == nil {
		sources = []tools.Source{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Answer: answer, Sources: sources, SessionID: sessionID})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	a, err := s.service.CourseAnalytics(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Course analytics failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Course Materials RAG System"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body := map[string]any{"status": "healthy"}
	if s.opts.Breaker != nil {
		state := s.opts.Breaker.State()
		body["model_circuit"] = state.String()
		if state == resilience.StateOpen {
			body["status"] = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
