package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/semaphore"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/config"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/consumer"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/database"
	campaigndao "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/dao"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/dao"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/service"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/httpx/upstream/places"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/storage"
)

// The worker consumes scan requests from Kafka and runs them with the
// same orchestrator the API uses, so queued and synchronous scans share
// one set of invariants.
func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.PostgresDSN, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	campaignsRepo := campaigndao.NewCampaignPostgres(pool)
	scansRepo := dao.NewScanPostgres(pool)
	resultsRepo := dao.NewResultPostgres(pool)
	statsRepo := dao.NewCompetitorStatPostgres(pool)

	placesClient := places.New(
		places.WithBaseURL(cfg.Places.BaseURL),
		places.WithAPIKey(cfg.Places.APIKey),
		places.WithDepth(cfg.Places.Depth),
	)

	rateSem := semaphore.NewWeighted(int64(cfg.Scanner.RateLimit))
	scanner := service.NewScanner(
		&lookupAdapter{client: placesClient},
		rateSem,
		service.WithConcurrency(cfg.Scanner.Concurrency),
		service.WithScannerLogger(logger),
	)

	orchOpts := []service.OrchestratorOption{
		service.WithMaxConcurrentScans(cfg.Scanner.MaxConcurrentScans),
		service.WithCostPerCall(cfg.Places.CostPerCall),
		service.WithOrchestratorLogger(logger),
	}
	if cfg.S3.Enabled {
		store, err := storage.NewSnapshotStore(storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
		})
		if err != nil {
			log.Fatalf("failed to initialize snapshot store: %v", err)
		}
		orchOpts = append(orchOpts, service.WithSnapshotArchiver(store))
	}

	orch := service.NewOrchestrator(campaignsRepo, scansRepo, resultsRepo, statsRepo, scanner, orchOpts...)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(cfg.Kafka.Brokers, ","),
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer reader.Close()

	processor := consumer.NewProcessor(reader, &runnerAdapter{orch: orch}, consumer.WithLogger(logger))

	logger.Info("worker started", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	if err := processor.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("processor stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
