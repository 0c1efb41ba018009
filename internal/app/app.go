package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"salesdash/internal/analytics"
	"salesdash/internal/config"
	"salesdash/internal/dataset"
	"salesdash/internal/errors"
	"salesdash/internal/exporter"
	"salesdash/internal/infrastructure"
	customMiddleware "salesdash/internal/middleware"
	"salesdash/internal/services"
	handlers "salesdash/internal/transport/http"
	"salesdash/internal/validation"
)

const (
	Version = "1.0.0"
	AppName = "salesdash"
)

// Application is the dependency container.
type Application struct {
	Config  *config.Config
	Router  *chi.Mux
	Server  *http.Server
	Logger  *slog.Logger
	Metrics *infrastructure.Metrics

	Dashboard *services.DashboardService
}

// NewApplication builds the application from configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig builds the application from an existing
// configuration. Split out so tests can inject their own.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	metrics, err := infrastructure.InitializeMetrics(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	app := &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the dashboard service from its parts.
func (a *Application) initializeServices() {
	loader := dataset.NewLoader(a.Logger, dataset.DefaultSchema())
	store := dataset.NewStore()
	engine := analytics.NewEngine(a.Logger, a.Config.Dashboard.TopN)
	validator := validation.NewUploadValidator(a.Logger, a.Config.Dataset.MaxUploadBytes)

	a.Dashboard = services.NewDashboardService(
		a.Logger, loader, store, engine, validator, a.Metrics, a.Config.Dashboard)
}

// setupRouter configures the HTTP router with all routes.
// Middleware ordering: RequestID -> RealIP -> Metrics -> Logger ->
// Recoverer -> SecurityHeaders -> CORS -> RateLimiter -> Timeout.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.Metrics(a.Metrics))
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			ExposedHeaders: []string{"X-Request-ID"},
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	errorHandler := errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, a.Logger, errorHandler)
	datasetHandler := handlers.NewDatasetHandler(
		a.Dashboard,
		exporter.NewCSVExporter(a.Logger),
		a.Logger,
		errorHandler,
		a.Config.Dataset.MaxUploadBytes,
	)
	healthHandler := handlers.NewHealthHandler(a.Dashboard, a.Logger, Version)

	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Get("/healthz", healthHandler.HealthCheck)

		r.Get("/dashboard", dashboardHandler.GetDashboard)
		r.Get("/trend", dashboardHandler.GetTrend)
		r.Get("/filters/options", dashboardHandler.GetFilterOptions)

		r.Post("/dataset", datasetHandler.UploadDataset)
		r.Get("/export/records.csv", datasetHandler.ExportRecords)
		r.Get("/export/customers.csv", datasetHandler.ExportCustomers)
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Prometheus scrape endpoint stays outside the middleware chain
	r.Handle("/metrics", a.Metrics.Handler)

	a.Router = r
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run starts the application and blocks until interrupted or the
// server fails.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seed the store before accepting traffic so the first request
	// never races the bundled load.
	if err := a.Dashboard.LoadBundledFile(ctx, a.Config.Dataset.BundledFile); err != nil {
		return fmt.Errorf("failed to load bundled dataset: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "HTTP server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the server and flushes metrics.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Metrics != nil {
		if err := a.Metrics.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down metrics",
				slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing log file",
			slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}
