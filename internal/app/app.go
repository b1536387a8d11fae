// Package app assembles the course assistant from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/petasbytes/course-rag/internal/config"
	"github.com/petasbytes/course-rag/internal/provider"
	"github.com/petasbytes/course-rag/internal/rag"
	"github.com/petasbytes/course-rag/internal/resilience"
	"github.com/petasbytes/course-rag/internal/store"
	"github.com/petasbytes/course-rag/internal/windowing"
	"github.com/petasbytes/course-rag/memory"
)

// App owns the long-lived resources behind both binaries.
type App struct {
	System   *rag.System
	Model    *resilience.Client
	Store    *store.Store
	Sessions memory.Store
}

// New opens the course store and session store, builds the provider client
// behind retries and a circuit breaker, and wires the rag system.
// Sessions may be nil, in which case cfg.SessionDriver decides.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, sessions memory.Store) (*App, error) {
	st, err := store.Open(cfg.StorePath, cfg.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("open course store: %w", err)
	}

	if sessions == nil {
		sessions, err = memory.Open(cfg.SessionDriver, cfg.SessionDSN)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open session store: %w", err)
		}
	}

	inner, err := provider.New(ctx, provider.Config{
		Provider:  cfg.LLMProvider,
		Model:     cfg.LLMModel,
		APIKey:    cfg.APIKey(),
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		st.Close()
		sessions.Close()
		return nil, err
	}

	model := resilience.NewClient(inner, resilience.ClientConfig{
		Name: cfg.LLMProvider,
		Retry: resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    cfg.RetryInitialBackoff(),
			MaxBackoff:        resilience.DefaultRetryConfig().MaxBackoff,
			BackoffMultiplier: 2,
			Jitter:            true,
		},
		MaxFailures:  cfg.CircuitBreakerMaxFailures,
		ResetTimeout: cfg.CircuitBreakerReset(),
		Logger:       logger,
	})

	manager := memory.NewManager(sessions, cfg.MaxHistory, memory.WithWindow(windowing.HistoryWindow(cfg.HistoryBudget)))
	sys := rag.New(st, model, manager, rag.Config{
		RoundBudget:  cfg.RoundBudget,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Logger:       logger,
	})
	return &App{System: sys, Model: model, Store: st, Sessions: sessions}, nil
}

// LoadDocs ingests dir when it exists; a missing folder is logged, not fatal.
func (a *App) LoadDocs(ctx context.Context, dir string, logger zerolog.Logger) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("dir", dir).Msg("Docs folder not found; starting with the existing catalog")
		return
	}
	if _, err := a.System.AddCourseFolder(ctx, dir, false); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("Failed to load course documents")
	}
}

func (a *App) Close() error {
	return errors.Join(a.Sessions.Close(), a.Store.Close())
}
