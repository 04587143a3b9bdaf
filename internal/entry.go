// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/explode/internal/api"
	"github.com/starford/explode/internal/commands"
	"github.com/starford/explode/internal/docservice"
	"github.com/starford/explode/internal/mcpserver"
	"github.com/starford/explode/internal/mdoutline"
	"github.com/starford/explode/internal/session"
	"github.com/starford/explode/internal/sse"
	"github.com/starford/explode/internal/storage"
	"github.com/starford/explode/internal/watch"
)

// services is the object graph shared by the HTTP and MCP front ends.
type services struct {
	store    *storage.FS
	outlines *mdoutline.Cache
	docs     *docservice.Service
	sessions *session.Manager
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// newServices builds storage, commands, documents and sessions. A nil broker
// disables event publishing.
func newServices(cfg *Config, logger *slog.Logger, broker *sse.Broker) (*services, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	outlines := mdoutline.NewCache(mdoutline.NewParser(), cfg.Outline.CacheSize)
	registry := commands.NewRegistry(outlines)

	docOpts := []docservice.Option{docservice.WithLogger(logger)}
	sessionOpts := []session.Option{
		session.WithLocale(cfg.Dates.LocaleValue()),
		session.WithLivePreview(cfg.Dates.LivePreview),
		session.WithLogger(logger),
	}
	if broker != nil {
		docOpts = append(docOpts, docservice.WithPublisher(broker))
		sessionOpts = append(sessionOpts, session.WithPublisher(broker))
	}

	return &services{
		store:    store,
		outlines: outlines,
		docs:     docservice.NewService(store, registry, docOpts...),
		sessions: session.NewManager(store, cfg.Dates.Decorator(), sessionOpts...),
	}, nil
}

// vaultChanged forwards one watcher change to the outline cache, the event
// stream and the open sessions.
func (s *services) vaultChanged(logger *slog.Logger, broker *sse.Broker) watch.Callback {
	return func(kind, path string) {
		broker.PublishDocumentEvent("document."+kind, sse.DocumentEvent{Path: path})
		if kind == watch.Deleted {
			s.outlines.Forget(path)
			return
		}
		if err := s.sessions.DocumentChanged(path); err != nil {
			logger.Warn("session reload failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("date_grammar", cfg.Dates.GrammarValue().String()),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, err := newServices(cfg, logger, broker)
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(svc.docs, svc.sessions, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// Start file watcher with SSE callback.
	if cfg.Watch.Enabled {
		g.Go(func() error {
			w := watch.New(svc.store,
				watch.WithDebounce(cfg.Watch.Debounce),
				watch.WithLogger(logger))
			if err := w.Run(gCtx, svc.vaultChanged(logger, broker)); err != nil {
				// Live reloads are optional; keep serving.
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
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
		defer signal.Stop(quit)

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

		// Stops the watcher.
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they do
// not corrupt the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	svc, err := newServices(cfg, logger, nil)
	if err != nil {
		return err
	}

	logger.Info("MCP server starting", slog.String("vault_path", cfg.Vault.Path))
	return mcpserver.New(svc.docs, svc.sessions, app.version).ServeStdio()
}
