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

	"github.com/hallgard/furrow/internal/api"
	"github.com/hallgard/furrow/internal/fieldservice"
	"github.com/hallgard/furrow/internal/ledger"
	"github.com/hallgard/furrow/internal/mcpserver"
	"github.com/hallgard/furrow/internal/models"
	"github.com/hallgard/furrow/internal/session"
	"github.com/hallgard/furrow/internal/sse"
	"github.com/hallgard/furrow/internal/watch"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_path", cfg.Workspace.Path),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer store.Close()

	sessions := session.NewManager()
	defer sessions.Close()

	svc := fieldservice.NewService(sessions, store, cfg.Workspace.Path)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Optionally open a session over the configured import root.
	var configured *session.Session
	if cfg.Import.Configured() {
		configured, err = svc.OpenRoot(ctx, cfg.Import.Mode, cfg.Import.Root)
		if err != nil {
			return fmt.Errorf("open configured import root: %w", err)
		}
		logger.Info("Configured import root opened",
			slog.String("root", configured.Root),
			slog.String("mode", string(configured.Mode)),
			slog.String("session", configured.ID))
	}

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

	g, gCtx := errgroup.WithContext(ctx)

	// Watch a configured root so on-disk edits invalidate cached decodes
	// and reach SSE clients.
	if configured != nil {
		root := configured.Root
		g.Go(func() error {
			return watch.Watch(gCtx, root, logger, func(path string) {
				svc.InvalidateDecodes()
				broker.PublishSourceChanged(path)
			})
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

// RunConvert performs a one-shot conversion of an import root into a
// shapefile archive at outPath, without starting any server.
func RunConvert(ctx context.Context, cfg *Config, mode models.ImportMode, root, outPath string) error {
	logger := newLogger(cfg.App.LogLevel)

	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	// One-shot runs have no edits to replay, so the ledger stays in memory.
	store := ledger.NewMemory()

	sessions := session.NewManager()
	defer sessions.Close()

	svc := fieldservice.NewService(sessions, store, cfg.Workspace.Path)

	sess, err := svc.OpenRoot(ctx, mode, root)
	if err != nil {
		return fmt.Errorf("open import root: %w", err)
	}

	report, err := svc.ExportAll(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	archive, err := svc.Archive(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if err := os.WriteFile(outPath, archive, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	logger.Info("Conversion finished",
		slog.Int("exported", report.Exported),
		slog.Int("skipped", report.Skipped),
		slog.String("archive", outPath))
	fmt.Print(report.Render())
	return nil
}

// RunMCP serves the MCP tools over stdio, bound to a session on the
// configured import root.
func RunMCP(ctx context.Context, cfg *Config) error {
	if !cfg.Import.Configured() {
		return fmt.Errorf("mcp mode requires a configured import root")
	}

	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer store.Close()

	sessions := session.NewManager()
	defer sessions.Close()

	svc := fieldservice.NewService(sessions, store, cfg.Workspace.Path)

	sess, err := svc.OpenRoot(ctx, cfg.Import.Mode, cfg.Import.Root)
	if err != nil {
		return fmt.Errorf("open configured import root: %w", err)
	}

	return mcpserver.New(svc, sess.ID).ServeStdio()
}

// newLogger builds the shared structured JSON logger and installs it as
// the process default.
func newLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

