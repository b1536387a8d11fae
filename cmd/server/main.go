package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/petasbytes/course-rag/internal/app"
	"github.com/petasbytes/course-rag/internal/config"
	"github.com/petasbytes/course-rag/internal/httpapi"
	"github.com/petasbytes/course-rag/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "course-rag: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so report this one on stderr.
		return fmt.Errorf("load configuration: %w", err)
	}
	logger := logging.Init(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Server exited with error")
		return err
	}
	return nil
}

// serve runs the HTTP server until ctx is cancelled or the listener fails.
// The app is closed on every path.
func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (err error) {
	logger.Info().
		Str("port", cfg.Port).
		Str("provider", cfg.LLMProvider).
		Str("session_driver", cfg.SessionDriver).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Course assistant starting")

	a, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Close failed")
			if err == nil {
				err = fmt.Errorf("close: %w", cerr)
			}
		}
	}()

	a.LoadDocs(ctx, cfg.DocsPath, logger)

	srv := httpapi.NewServer(a.System, httpapi.Options{
		Logger:         logger,
		MetricsEnabled: cfg.MetricsEnabled,
		Breaker:        a.Model.Breaker(),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(":" + cfg.Port) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return <-errCh
	}
}
