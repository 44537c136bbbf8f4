package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/config"
	httpcontroller "github.com/mattedwardseo/nk-seo-tool-sub005/internal/controller/http"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/database"
	campaigndao "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/dao"
	campaignservice "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/service"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/dao"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/policy"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/scheduler"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/service"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/httpx/upstream/places"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	pool *pgxpool.Pool

	// Domain entry points (interfaces for HTTP handlers)
	scanPolicy      *policy.Policy
	campaignService *campaignservice.Service

	// Scheduler for recurring campaign scans and stale-scan sweeps
	scheduler *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	if err := app.initDomains(ctx); err != nil {
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server. Write timeout must cover a full synchronous
	// scan, which can run for minutes on large grids.
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initInfrastructure initializes infrastructure components (DB, etc.)
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, a.cfg.Database.PostgresDSN, a.cfg.Database.MaxConns, a.cfg.Database.MinConns)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(ctx context.Context) error {
	// Repositories
	campaignsRepo := campaigndao.NewCampaignPostgres(a.pool)
	scansRepo := dao.NewScanPostgres(a.pool)
	resultsRepo := dao.NewResultPostgres(a.pool)
	statsRepo := dao.NewCompetitorStatPostgres(a.pool)

	// Ranking data provider
	placesClient := places.New(
		places.WithBaseURL(a.cfg.Places.BaseURL),
		places.WithAPIKey(a.cfg.Places.APIKey),
		places.WithDepth(a.cfg.Places.Depth),
	)

	// The rate semaphore is shared by every scan in the process so
	// concurrent scans stay inside one upstream rate budget together.
	rateSem := semaphore.NewWeighted(int64(a.cfg.Scanner.RateLimit))
	scanner := service.NewScanner(
		&placesLookupAdapter{client: placesClient},
		rateSem,
		service.WithConcurrency(a.cfg.Scanner.Concurrency),
		service.WithScannerLogger(a.logger),
	)

	orchOpts := []service.OrchestratorOption{
		service.WithMaxConcurrentScans(a.cfg.Scanner.MaxConcurrentScans),
		service.WithCostPerCall(a.cfg.Places.CostPerCall),
		service.WithProfileRefresher(&placesProfileAdapter{client: placesClient}),
		service.WithOrchestratorLogger(a.logger),
	}

	if a.cfg.S3.Enabled {
		store, err := storage.NewSnapshotStore(storage.S3Config{
			Endpoint:        a.cfg.S3.Endpoint,
			AccessKeyID:     a.cfg.S3.AccessKeyID,
			SecretAccessKey: a.cfg.S3.SecretAccessKey,
			Bucket:          a.cfg.S3.Bucket,
			Region:          a.cfg.S3.Region,
		})
		if err != nil {
			return fmt.Errorf("initializing snapshot store: %w", err)
		}
		orchOpts = append(orchOpts, service.WithSnapshotArchiver(store))
	}

	orch := service.NewOrchestrator(campaignsRepo, scansRepo, resultsRepo, statsRepo, scanner, orchOpts...)

	a.scanPolicy = policy.New(orch, scansRepo, resultsRepo, statsRepo)
	a.campaignService = campaignservice.New(campaignsRepo)

	if a.cfg.Scheduler.Enabled {
		a.scheduler = scheduler.New(
			&scanTriggerAdapter{orch: orch},
			campaignsRepo,
			scansRepo,
			scheduler.Config{
				Interval:     a.cfg.Scheduler.Interval,
				StaleTimeout: a.cfg.Scheduler.StaleTimeout,
				BatchSize:    a.cfg.Scheduler.BatchSize,
			},
			a.logger,
		)
	}

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	// Prometheus metrics
	a.router.Handle("/metrics", promhttp.Handler())

	// Swagger UI documentation
	swaggerHandler := httpcontroller.NewSwaggerHandler("Geo-Grid Rank Tracker API", OpenAPISpec)
	swaggerHandler.RegisterRoutes(a.router)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		campaignHandler := httpcontroller.NewCampaignHandler(a.campaignService)
		campaignHandler.RegisterRoutes(r)

		scanHandler := httpcontroller.NewScanHandler(a.scanPolicy)
		scanHandler.RegisterRoutes(r)
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := a.pool.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start scheduler if enabled
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop scheduler
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}

// placesLookupAdapter adapts places.Client to service.RankLookup
type placesLookupAdapter struct {
	client *places.Client
}

func (a *placesLookupAdapter) LookupRank(ctx context.Context, keyword string, lat, lng float64, targetPlaceID string) (*service.LookupResult, error) {
	out, err := a.client.LookupRank(ctx, places.LookupRankInput{
		Keyword:       keyword,
		Lat:           lat,
		Lng:           lng,
		TargetPlaceID: targetPlaceID,
	})
	if err != nil {
		return nil, err
	}

	top := make([]entity.RankedBusiness, 0, len(out.Listings))
	for _, l := range out.Listings {
		top = append(top, entity.RankedBusiness{
			Name:        l.Name,
			PlaceID:     l.PlaceID,
			Rank:        l.Rank,
			Rating:      l.Rating,
			ReviewCount: l.ReviewCount,
		})
	}

	return &service.LookupResult{
		TargetRank: out.TargetRank,
		TopResults: top,
	}, nil
}

// placesProfileAdapter adapts places.Client to service.ProfileRefresher
type placesProfileAdapter struct {
	client *places.Client
}

func (a *placesProfileAdapter) RefreshProfile(ctx context.Context, placeID string) error {
	_, err := a.client.GetBusinessProfile(ctx, placeID)
	return err
}

// scanTriggerAdapter adapts the orchestrator to scheduler.ScanTrigger
type scanTriggerAdapter struct {
	orch *service.Orchestrator
}

func (a *scanTriggerAdapter) RunScan(ctx context.Context, campaignID string, keywords []string) error {
	_, err := a.orch.RunScan(ctx, campaignID, keywords)
	return err
}
