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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notenest/internal/api"
	"github.com/starford/notenest/internal/entryservice"
	"github.com/starford/notenest/internal/mcpserver"
	"github.com/starford/notenest/internal/sqlstore"
	"github.com/starford/notenest/internal/sse"
	"github.com/starford/notenest/internal/storage"
)

// runtime is everything the HTTP and MCP front ends share.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	store  storage.EntryStore
	svc    *entryservice.Service
	close  func()
}

func setup(opts []Option, publisher entryservice.Publisher) (*runtime, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.String("sqlite_path", cfg.Store.SQLitePath),
		slog.Bool("honor_sort_order", cfg.Cache.HonorSortOrder),
		slog.String("backup_policy", cfg.Cache.Policy().String()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, closeStore, err := openStore(&cfg.Store)
	if err != nil {
		return nil, err
	}

	svcOpts := []entryservice.Option{
		entryservice.WithOrdering(cfg.Cache.HonorSortOrder),
		entryservice.WithBackupPolicy(cfg.Cache.Policy()),
		entryservice.WithLogger(logger),
	}
	if publisher != nil {
		svcOpts = append(svcOpts, entryservice.WithPublisher(publisher))
	}
	svc := entryservice.New(store, svcOpts...)

	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  store,
		svc:    svc,
		close: func() {
			svc.Close()
			if err := closeStore(); err != nil {
				logger.Error("close store", slog.String("error", err.Error()))
			}
		},
	}, nil
}

// openStore builds the durable store selected by cfg.Driver.
func openStore(cfg *StoreConfig) (storage.EntryStore, func() error, error) {
	switch cfg.Driver {
	case StoreDriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		db, err := sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("init store: %w", err)
		}
		return db, db.Close, nil
	default:
		return storage.NewCodableEntryStore(cfg.Path), func() error { return nil }, nil
	}
}

// watch reloads the service whenever another process rewrites the JSON
// document. It is a no-op for other drivers or when watching is disabled.
func (rt *runtime) watch(ctx context.Context) error {
	doc, ok := rt.store.(*storage.CodableEntryStore)
	if !ok || !rt.cfg.Cache.Watch {
		return nil
	}
	err := storage.Watch(ctx, doc.Path(), rt.logger, doc.OwnsContent, func(kind string) {
		rt.svc.Invalidate("store " + kind)
	})
	if err != nil {
		// The API keeps working without live reloads.
		rt.logger.Warn("watcher unavailable", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	rt, err := setup(opts, broker)
	if err != nil {
		broker.Close()
		return err
	}
	defer rt.close()

	cfg, logger := rt.cfg, rt.logger

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := rt.svc.List(req.Context(), entryservice.Query{}); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
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

	// Reload the cache on external edits of the store.
	g.Go(func() error {
		return rt.watch(gCtx)
	})

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

		// Ends open event streams so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the entry tools over stdio until the client disconnects.
// Logs go to stderr unless WithLogOutput says otherwise.
func RunMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	rt, err := setup(opts, nil)
	if err != nil {
		return err
	}
	defer rt.close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.watch(gCtx)
	})

	g.Go(func() error {
		rt.logger.Info("MCP server starting on stdio")
		if err := mcpserver.New(rt.svc).ServeStdio(); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		rt.logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
