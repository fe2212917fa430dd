// Package main is the entrypoint for the bizlens API server.
package main

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

	"github.com/kiranshivaraju/bizlens/internal/agent"
	"github.com/kiranshivaraju/bizlens/internal/analysis"
	"github.com/kiranshivaraju/bizlens/internal/api"
	"github.com/kiranshivaraju/bizlens/internal/api/handler"
	mw "github.com/kiranshivaraju/bizlens/internal/api/middleware"
	"github.com/kiranshivaraju/bizlens/internal/backend"
	"github.com/kiranshivaraju/bizlens/internal/cache"
	"github.com/kiranshivaraju/bizlens/internal/config"
	"github.com/kiranshivaraju/bizlens/internal/logger"
	"github.com/kiranshivaraju/bizlens/internal/markdown"
	"github.com/kiranshivaraju/bizlens/internal/pdf"
	"github.com/kiranshivaraju/bizlens/internal/storage"
	"github.com/kiranshivaraju/bizlens/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	migrationsDir   = "migrations"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// components are the optional and required collaborators the router is built from.
type components struct {
	cfg     *config.Config
	cache   cache.Cache
	backend backend.Client
	store   store.Store
	agent   *agent.Client
	exports storage.ExportStore
}

func run() error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log, os.Stdout)
	slog.Info("config loaded", "env", cfg.Server.Env, "backend", cfg.Backend.BaseURL, "cache", cfg.Cache.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := components{cfg: cfg, backend: backend.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)}

	// 2. Report cache
	c.cache, err = cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer c.cache.Close()
	if err := c.cache.Ping(ctx); err != nil {
		return fmt.Errorf("ping cache: %w", err)
	}
	slog.Info("cache connected", "backend", cfg.Cache.Backend)

	// 3. Report archive (optional)
	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		if err := store.RunMigrations(cfg.Database.URL, migrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		c.store = store.NewPostgresStore(pool)
		slog.Info("database connected, migrations applied")
	}

	// 4. PDF export bucket (optional)
	if cfg.Minio.Enabled() {
		ms, err := storage.New(cfg.Minio)
		if err != nil {
			return fmt.Errorf("create export store: %w", err)
		}
		if err := ms.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure export bucket: %w", err)
		}
		c.exports = ms
		slog.Info("export bucket ready", "bucket", cfg.Minio.Bucket)
	}

	// 5. Agent socket (optional). A failed first connect is not fatal: the
	// agent route answers 503 until the socket comes up.
	if cfg.Agent.URL != "" {
		c.agent = newAgent(cfg.Agent)
		if err := c.agent.Connect(ctx); err != nil {
			slog.Warn("agent socket unavailable", "url", cfg.Agent.URL, "error", err)
		}
		defer c.agent.Close()
	}

	// 6. Build router
	router := newRouter(c)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func newAgent(cfg config.AgentConfig) *agent.Client {
	opts := agent.OptionsFromConfig(cfg)
	opts.Hooks = agent.Hooks{
		OnConnect: func() {
			slog.Info("agent socket connected", "url", cfg.URL)
		},
		OnDisconnect: func(err error) {
			slog.Warn("agent socket disconnected", "error", err)
		},
		OnConnectError: func(err error, attempt int) {
			slog.Warn("agent socket connect failed", "attempt", attempt, "error", err)
		},
	}
	return agent.New(opts)
}

// newRouter wires the analysis service and handlers over c.
func newRouter(c components) http.Handler {
	var opts []analysis.Option
	if c.store != nil {
		opts = append(opts, analysis.WithArchive(c.store))
	}
	if c.agent != nil {
		opts = append(opts, analysis.WithAgent(c.agent))
	}
	opts = append(opts, analysis.WithObserver(func(t analysis.Transition) {
		slog.Debug("analysis state", "feature", t.Feature, "from", t.From, "to", t.To, "error", t.Err)
	}))
	svc := analysis.NewService(c.backend, c.cache, opts...)

	formatter := markdown.NewFormatter(markdown.DefaultClasses)
	analyses := handler.NewAnalyses(svc, formatter, pdf.NewExporter(), c.exports)

	var archive handler.Archive
	if c.store != nil {
		archive = handler.StoreArchive(c.store)
	} else {
		archive = handler.BackendArchive(c.backend)
	}

	checks := map[string]handler.Pinger{"cache": c.cache, "database": nil, "agent": nil}
	if c.store != nil {
		checks["database"] = c.store
	}
	if c.agent != nil {
		ag := c.agent
		checks["agent"] = handler.PingerFunc(func(context.Context) error {
			if !ag.Connected() {
				return agent.ErrNotConnected
			}
			return nil
		})
	}

	return api.NewRouter(api.Dependencies{
		Auth:        mw.NewAuth(c.cfg.Auth.APIKeyHash),
		RateLimit:   mw.NewRateLimit(c.cache, c.cfg.Auth.RateLimitPerMin),
		CORSOrigins: c.cfg.Server.CORSOrigins,

		HealthHandler:   handler.NewHealthHandler(checks),
		FeaturesHandler: handler.NewFeaturesHandler(),
		RenderHandler:   handler.NewRenderHandler(formatter),

		SubmitHandler:       analyses.Submit,
		ListReportsHandler:  analyses.ListReports,
		ClearReportsHandler: analyses.ClearReports,
		GetCurrentHandler:   analyses.GetCurrent,
		NewAnalysisHandler:  analyses.NewAnalysis,
		LoadSavedHandler:    analyses.LoadSaved,
		ExportPDFHandler:    analyses.ExportPDF,

		AgentHandler: handler.NewAgentHandler(svc, formatter),

		ListArchiveHandler:   handler.NewListArchiveHandler(archive),
		ReportContentHandler: handler.NewReportContentHandler(archive),
	})
}
