// Package rag ties the course store, tools, sessions and the tool-calling
// runner into the question-answering service behind the HTTP API.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/petasbytes/course-rag/internal/ingest"
	"github.com/petasbytes/course-rag/internal/runner"
	"github.com/petasbytes/course-rag/internal/store"
	"github.com/petasbytes/course-rag/memory"
	"github.com/petasbytes/course-rag/tools"
)

// ErrEmptyQuery is returned for blank questions.
var ErrEmptyQuery = errors.New("query must not be empty")

// Config tunes a System. Zero values fall back to defaults.
type Config struct {
	RoundBudget  int
	ChunkSize    int
	ChunkOverlap int
	SystemPrompt string
	Logger       zerolog.Logger
}

type System struct {
	store    *store.Store
	sessions *memory.Manager
	registry *tools.Registry
	runner   *runner.Runner
	loader   *ingest.Loader
	cfg      Config
	logger   zerolog.Logger
}

func New(st *store.Store, client runner.ModelClient, sessions *memory.Manager, cfg Config) *System {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 800
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 100
	}
	r := runner.New(client)
	r.Logger = cfg.Logger
	return &System{
		store:    st,
		sessions: sessions,
		registry: tools.CourseRegistry(st),
		runner:   r,
		loader: &ingest.Loader{
			Index:        st,
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
			Logger:       cfg.Logger,
		},
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Sessions exposes the session manager.
func (s *System) Sessions() *memory.Manager { return s.sessions }

// CreateSession mints a session id for a new conversation.
func (s *System) CreateSession(ctx context.Context) (string, error) {
	if s.sessions == nil {
		return "", errors.New("sessions are not configured")
	}
	return s.sessions.CreateSession(ctx)
}

// Query answers one question in the given session. The returned sources are
// those the tools recorded during this query only. An empty sessionID runs
// without history and records nothing.
func (s *System) Query(ctx context.Context, query, sessionID string) (string, []tools.Source, error) {
	if strings.TrimSpace(query) == "" {
		return "", nil, ErrEmptyQuery
	}

	var history string
	if sessionID != "" && s.sessions != nil {
		h, err := s.sessions.History(ctx, sessionID)
		if err != nil {
			return "", nil, err
		}
		history = h
	}

	sink := tools.NewSourceSink()
	ctx = tools.WithSourceSink(ctx, sink)

	out, err := s.runner.Run(ctx, runner.Input{
		Query:        queryPrefix + query,
		History:      history,
		Tools:        s.registry.Schemas(),
		Executor:     s.registry,
		SystemPrompt: s.cfg.SystemPrompt,
		RoundBudget:  s.cfg.RoundBudget,
	})
	if err != nil {
		return "", nil, fmt.Errorf("query: %w", err)
	}

	if sessionID != "" && s.sessions != nil {
		if err := s.sessions.AddExchange(ctx, sessionID, query, out.Answer); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to record exchange")
		}
	}
	return out.Answer, sink.Sources(), nil
}

// Analytics summarizes the catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

func (s *System) CourseAnalytics(ctx context.Context) (Analytics, error) {
	titles, err := s.store.CourseTitles(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("course analytics: %w", err)
	}
	if titles == nil {
		titles = []string{}
	}
	return Analytics{TotalCourses: len(titles), CourseTitles: titles}, nil
}

// AddCourseFolder ingests the course documents in dir.
func (s *System) AddCourseFolder(ctx context.Context, dir string, clear bool) (ingest.Result, error) {
	res, err := s.loader.LoadFolder(ctx, dir, clear)
	if err != nil {
		return res, err
	}
	s.logger.Info().Int("courses", res.Courses).Int("chunks", res.Chunks).Int("skipped", len(res.Skipped)).Str("dir", dir).Msg("Loaded course documents")
	return res, nil
}
