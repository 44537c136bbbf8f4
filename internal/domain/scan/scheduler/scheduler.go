package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	campaignentity "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
)

// ScanTrigger starts a grid scan for a campaign
type ScanTrigger interface {
	RunScan(ctx context.Context, campaignID string, keywords []string) error
}

// CampaignSource lists campaigns whose scheduled scan is due
type CampaignSource interface {
	GetDueForScan(ctx context.Context, now time.Time, limit int) ([]campaignentity.Campaign, error)
}

// ScanSweeper reconciles scans abandoned mid-run (e.g. by a process
// restart) by failing running scans older than a cutoff
type ScanSweeper interface {
	FailStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Config holds scheduler configuration
type Config struct {
	Interval     time.Duration
	StaleTimeout time.Duration
	BatchSize    int
}

// Scheduler periodically triggers due campaign scans and sweeps stale
// running scans
type Scheduler struct {
	trigger      ScanTrigger
	campaigns    CampaignSource
	sweeper      ScanSweeper
	interval     time.Duration
	staleTimeout time.Duration
	batchSize    int
	logger       *slog.Logger
	stopCh       chan struct{}
	wg           sync.WaitGroup
	running      bool
	mu           sync.Mutex
}

// New creates a new scan scheduler
func New(trigger ScanTrigger, campaigns CampaignSource, sweeper ScanSweeper, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.StaleTimeout == 0 {
		cfg.StaleTimeout = 2 * time.Hour
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}

	return &Scheduler{
		trigger:      trigger,
		campaigns:    campaigns,
		sweeper:      sweeper,
		interval:     cfg.Interval,
		staleTimeout: cfg.StaleTimeout,
		batchSize:    cfg.BatchSize,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("scan scheduler started", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("scan scheduler stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.tick(ctx)

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick runs one scheduler pass: sweep stale scans, then trigger due campaigns
func (s *Scheduler) tick(ctx context.Context) {
	swept, err := s.sweeper.FailStale(ctx, time.Now().Add(-s.staleTimeout))
	if err != nil {
		s.logger.Error("stale scan sweep failed", "error", err)
	} else if swept > 0 {
		s.logger.Warn("swept stale scans", "count", swept)
	}

	due, err := s.campaigns.GetDueForScan(ctx, time.Now(), s.batchSize)
	if err != nil {
		s.logger.Error("listing due campaigns failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	s.logger.Info("triggering due campaign scans", "count", len(due))

	// Each scan runs in its own goroutine; the orchestrator's global
	// semaphore bounds how many actually execute at once.
	for _, campaign := range due {
		s.wg.Add(1)
		go func(id string) {
			defer s.wg.Done()
			if err := s.trigger.RunScan(ctx, id, nil); err != nil {
				s.logger.Warn("scheduled scan failed", "campaign_id", id, "error", err)
			}
		}(campaign.ID)
	}
}
