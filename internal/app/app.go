// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/incident-room/internal/config"
	"github.com/bissquit/incident-room/internal/enrichment"
	"github.com/bissquit/incident-room/internal/incidents"
	"github.com/bissquit/incident-room/internal/pkg/ctxlog"
	"github.com/bissquit/incident-room/internal/pkg/httputil"
	"github.com/bissquit/incident-room/internal/pkg/metrics"
	"github.com/bissquit/incident-room/internal/room"
	"github.com/bissquit/incident-room/internal/store"
	"github.com/bissquit/incident-room/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config         *config.Config
	logger         *slog.Logger
	server         *http.Server
	metricsServer  *http.Server
	pool           *enrichment.Pool
	pipelineCancel context.CancelFunc
}

// New creates a new application instance and starts the enrichment pool.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	metrics.RecordBuildInfo(version.Version, version.GitCommit)

	timelineStore := store.New()
	rooms := room.NewBroadcaster()
	queue := enrichment.NewQueue(cfg.Enrichment.QueueSize, enrichment.FullPolicy(cfg.Enrichment.QueuePolicy))

	summarizer := &enrichment.SimulatedSummarizer{
		Delay:  cfg.Enrichment.SummaryDelay,
		MaxLen: cfg.Enrichment.SummaryMaxLength,
	}

	pool := enrichment.NewPool(enrichment.Config{
		Workers:        cfg.Enrichment.Workers,
		SummaryTimeout: cfg.Enrichment.SummaryTimeout,
	}, queue, timelineStore, rooms, summarizer)

	pipelineCtx, pipelineCancel := context.WithCancel(context.Background())
	pool.Start(pipelineCtx)

	service := incidents.NewService(timelineStore, queue, rooms)

	app := &App{
		config:         cfg,
		logger:         logger,
		pool:           pool,
		pipelineCancel: pipelineCancel,
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           app.setupRouter(service, rooms),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	// Start metrics server in background
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	// Start main server
	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	// Stop the pipeline before the servers go away.
	a.pipelineCancel()
	a.pool.Stop()

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(service *incidents.Service, rooms *room.Broadcaster) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.healthzHandler)
	r.Get("/version", a.versionHandler)

	handler := incidents.NewHandler(service)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Route("/api/v1", func(r chi.Router) {
			handler.RegisterRoutes(r)
		})
	})

	// Room connections are long-lived, keep them out of the timeout group.
	roomHandler := incidents.NewRoomHandler(service, rooms, incidents.WSConfig{
		AllowedOrigins: a.config.CORS.AllowedOrigins,
		MessageRate:    a.config.WS.MessageRate,
		MessageBurst:   a.config.WS.MessageBurst,
	})
	roomHandler.RegisterRoutes(r)

	return r
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(r.Context()).Debug("version requested")
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
