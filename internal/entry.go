// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/noteflow/internal/api"
	"github.com/starford/noteflow/internal/editor"
	"github.com/starford/noteflow/internal/inbox"
	"github.com/starford/noteflow/internal/models"
	"github.com/starford/noteflow/internal/noteservice"
	"github.com/starford/noteflow/internal/sse"
	"github.com/starford/noteflow/internal/storage"
	"github.com/starford/noteflow/internal/transfer"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	app.logger = slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(app.logger)
	return app, nil
}

// openStore opens the configured storage driver.
func openStore(cfg StorageConfig) (storage.Provider, error) {
	switch cfg.Driver {
	case StorageDriverFS:
		return storage.NewFS(cfg.Path, cfg.Namespace)
	case StorageDriverSQLite, "":
		return storage.OpenSQLite(cfg.Path, cfg.Namespace)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// openService opens the store and loads the note collection. The returned
// function closes both.
func (a *application) openService(notifier noteservice.Notifier) (*noteservice.Service, func(), error) {
	cfg := a.config
	store, err := openStore(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	opts := []noteservice.Option{
		noteservice.WithLogger(a.logger),
		noteservice.WithExporter(transfer.NewExporter(transfer.WithPDFOptions(cfg.Export.PDF.Options()))),
		noteservice.WithEditorOptions(
			editor.WithHistoryLimit(cfg.Editor.HistoryLimit),
			editor.WithFocusDelay(cfg.Editor.FocusDelay),
		),
	}
	if notifier != nil {
		opts = append(opts, noteservice.WithNotifier(notifier))
	}
	svc, err := noteservice.New(store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("init notes: %w", err)
	}
	return svc, func() {
		svc.Close()
		if err := store.Close(); err != nil {
			a.logger.Error("storage: close failed", slog.String("error", err.Error()))
		}
	}, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("namespace", cfg.Storage.Namespace),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, closeSvc, err := app.openService(broker)
	if err != nil {
		return err
	}
	defer closeSvc()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start drop-folder watcher.
	if cfg.Inbox.Enabled() {
		w, err := inbox.New(cfg.Inbox.Path, svc, logger, inbox.WithCallback(
			func(action models.ImportAction, path, id string) {
				logger.Info("inbox: note imported",
					slog.String("path", path),
					slog.String("action", string(action)),
					slog.String("id", id))
			}))
		if err != nil {
			return fmt.Errorf("init inbox: %w", err)
		}
		g.Go(func() error {
			return w.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
