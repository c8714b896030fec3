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

	"github.com/mattvik/texsnap/internal/api"
	"github.com/mattvik/texsnap/internal/controller"
	"github.com/mattvik/texsnap/internal/gateway"
	"github.com/mattvik/texsnap/internal/ledger"
	"github.com/mattvik/texsnap/internal/manual"
	"github.com/mattvik/texsnap/internal/mcpserver"
	"github.com/mattvik/texsnap/internal/notify"
	"github.com/mattvik/texsnap/internal/resolve"
	"github.com/mattvik/texsnap/internal/storage"
	"github.com/mattvik/texsnap/internal/watch"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Structured JSON logger. In MCP mode stdout carries the protocol,
	// so logs go to stderr.
	var logOut io.Writer = os.Stdout
	if app.mcp {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("gateway_endpoint", cfg.Gateway.Endpoint),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Submission ledger, optionally backed by SQLite across restarts.
	led := ledger.New()
	var persist func(map[string][]string)
	if cfg.Auto.PersistLedger {
		ledgerStore, storeErr := ledger.OpenStore(cfg.SQLite.Path)
		if storeErr != nil {
			return fmt.Errorf("init ledger store: %w", storeErr)
		}
		defer ledgerStore.Close()

		contents, loadErr := ledgerStore.Load()
		if loadErr != nil {
			logger.Warn("ledger load failed", slog.String("error", loadErr.Error()))
		} else {
			led.Restore(contents)
		}
		persist = func(contents map[string][]string) {
			if saveErr := ledgerStore.Save(contents); saveErr != nil {
				logger.Warn("ledger save failed", slog.String("error", saveErr.Error()))
			}
		}
	}

	// SSE broker doubles as the user-notice sink.
	broker := notify.NewBroker()
	defer broker.Close()

	gw := gateway.NewClient(cfg.Gateway.Endpoint, gateway.Credentials{
		AppID:  cfg.Gateway.AppID,
		AppKey: cfg.Gateway.AppKey,
	}, cfg.Gateway.Timeout())

	resolver := resolve.New(store, cfg.Vault.AttachmentsDir, cfg.Resolve.Attempts, cfg.Resolve.RetryDelay())

	ctrl := controller.New(controller.Params{
		Store:    store,
		Resolver: resolver,
		Gateway:  gw,
		Ledger:   led,
		Notifier: broker,
		Logger:   logger,
		Debounce: cfg.Auto.Debounce(),
		Persist:  persist,
	})

	man := manual.NewService(store, resolver, gw, broker, logger)

	g, gCtx := errgroup.WithContext(ctx)

	// Auto-OCR controller loop.
	g.Go(func() error {
		return ctrl.Run(gCtx)
	})
	if cfg.Auto.StartEnabled {
		ctrl.SetAuto(true)
	}

	// Vault change watcher feeding the controller.
	g.Go(func() error {
		return watch.Watch(gCtx, cfg.Vault.Path, logger, ctrl.OnChange)
	})

	if app.mcp {
		return runMCP(gCtx, g, store, ctrl, man, logger)
	}
	return runHTTP(gCtx, g, cfg, store, ctrl, man, broker, logger)
}

// runHTTP mounts the REST API and blocks until shutdown.
func runHTTP(gCtx context.Context, g *errgroup.Group, cfg *Config,
	store storage.Provider, ctrl *controller.Controller, man *manual.Service,
	broker *notify.Broker, logger *slog.Logger) error {

	apiRouter := api.NewRouter(store, ctrl, man, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	g.Go(func() error {
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

// runMCP serves the MCP tools on stdin/stdout and blocks until EOF or signal.
func runMCP(gCtx context.Context, g *errgroup.Group,
	store storage.Provider, ctrl *controller.Controller, man *manual.Service,
	logger *slog.Logger) error {

	srv := mcpserver.New(store, ctrl, man)

	logger.Info("MCP server starting on stdio")

	g.Go(func() error {
		if err := srv.ServeStdio(); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			os.Exit(0)
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
