// Package internal provides the main application initialization and
// runtime logic for the ingest daemon.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/watch"
)

// Run starts the ingest daemon with the given options: open the store,
// reconcile the corpus once, then watch it until a shutdown signal.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("corpus_path", cfg.Corpus.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure corpus directory exists.
	if err := os.MkdirAll(cfg.Corpus.Path, 0o755); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}

	provider, err := storage.NewFS(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	builder := graph.NewBuilder(st)

	// Initial reconciliation.
	if err := watch.Sync(ctx, builder, st, provider, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watch.Watch(gCtx, builder, st, provider, cfg.Corpus.Path, logger, app.onEvent)
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Daemon stopped successfully")
	return nil
}
