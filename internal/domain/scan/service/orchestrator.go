package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	campaigndao "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/dao"
	campaignentity "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/dao"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/geo"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/observability"
)

const (
	defaultMaxConcurrentScans = 5
	followUpTimeout           = 30 * time.Second
)

// ProfileRefresher refreshes a business profile after a completed scan.
// Interface is defined by consumer (orchestrator), not provider.
type ProfileRefresher interface {
	RefreshProfile(ctx context.Context, placeID string) error
}

// Snapshot is the archived document of a completed scan
type Snapshot struct {
	Scan    entity.Scan                `json:"scan"`
	Results []entity.KeywordScanResult `json:"results"`
	Stats   []entity.CompetitorStat    `json:"stats"`
}

// SnapshotArchiver stores completed-scan snapshots for later map rendering
type SnapshotArchiver interface {
	ArchiveScan(ctx context.Context, snap Snapshot) error
}

// ScanOutcome summarizes a finished scan for the caller
type ScanOutcome struct {
	ScanID        string   `json:"scan_id"`
	AvgRank       *float64 `json:"avg_rank,omitempty"`
	ShareOfVoice  *float64 `json:"share_of_voice,omitempty"`
	TopCompetitor string   `json:"top_competitor,omitempty"`
	APICallsUsed  int      `json:"api_calls_used"`
	FailedPoints  int      `json:"failed_points"`
}

// ScanProgress is the read model for the progress endpoint
type ScanProgress struct {
	Status   entity.ScanStatus `json:"status"`
	Progress int               `json:"progress"`
}

// Orchestrator coordinates one scan end to end: grid generation, the
// keyword fan-out, aggregation, rank-change computation, and persistence.
type Orchestrator struct {
	campaigns campaigndao.CampaignRepository
	scans     dao.ScanRepository
	results   dao.ResultRepository
	stats     dao.CompetitorStatRepository
	scanner   *Scanner
	profiles  ProfileRefresher
	archiver  SnapshotArchiver
	logger    *slog.Logger

	costPerCall float64

	// scanSem bounds how many scans run concurrently across all campaigns.
	scanSem *semaphore.Weighted

	// running tracks campaign ids with an in-flight scan so a second start
	// for the same campaign is rejected instead of queued.
	running map[string]struct{}
	mu      sync.Mutex
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithMaxConcurrentScans sets the global ceiling on concurrent scans
func WithMaxConcurrentScans(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.scanSem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithCostPerCall sets the per-lookup cost used for scan cost estimates
func WithCostPerCall(cost float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.costPerCall = cost
	}
}

// WithProfileRefresher sets the best-effort post-scan profile refresher
func WithProfileRefresher(p ProfileRefresher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.profiles = p
	}
}

// WithSnapshotArchiver sets the best-effort snapshot store
func WithSnapshotArchiver(a SnapshotArchiver) OrchestratorOption {
	return func(o *Orchestrator) {
		o.archiver = a
	}
}

// WithOrchestratorLogger sets a custom logger
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates a new scan orchestrator
func NewOrchestrator(
	campaigns campaigndao.CampaignRepository,
	scans dao.ScanRepository,
	results dao.ResultRepository,
	stats dao.CompetitorStatRepository,
	scanner *Scanner,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		campaigns: campaigns,
		scans:     scans,
		results:   results,
		stats:     stats,
		scanner:   scanner,
		scanSem:   semaphore.NewWeighted(defaultMaxConcurrentScans),
		running:   make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o
}

// RunScan executes one grid scan for the campaign. An optional keyword
// override replaces the campaign's keyword list for this scan only.
//
// Point-level lookup failures are tolerated and reported through the
// scan's failed-point count; the scan fails as a whole only when its
// preconditions do not hold or persistence breaks. A persistence failure
// leaves the scan in its last known state for the stale sweep to reconcile
// rather than reporting a completion that was never recorded.
func (o *Orchestrator) RunScan(ctx context.Context, campaignID string, keywords []string) (*ScanOutcome, error) {
	if !o.tryAcquireCampaign(campaignID) {
		return nil, entity.ErrScanAlreadyRunning
	}
	defer o.releaseCampaign(campaignID)

	// The global ceiling rejects rather than queues, same as the
	// per-campaign guard.
	if !o.scanSem.TryAcquire(1) {
		return nil, entity.ErrScanLimitReached
	}
	defer o.scanSem.Release(1)

	campaign, err := o.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("loading campaign: %w", err)
	}
	if campaign == nil {
		return nil, campaignentity.ErrCampaignNotFound
	}
	if campaign.Archived {
		return nil, campaignentity.ErrCampaignArchived
	}

	if len(keywords) == 0 {
		keywords = campaign.Keywords
	}

	scan := &entity.Scan{
		ID:         uuid.New().String(),
		CampaignID: campaignID,
		Status:     entity.ScanStatusPending,
		Keywords:   keywords,
		GridSize:   campaign.GridSize,
		RadiusKm:   campaign.RadiusKm,
		CreatedAt:  time.Now(),
	}
	if err := o.scans.Create(ctx, scan); err != nil {
		return nil, fmt.Errorf("creating scan: %w", err)
	}

	startedAt := time.Now()
	if err := o.scans.MarkRunning(ctx, scan.ID, startedAt); err != nil {
		return nil, fmt.Errorf("starting scan: %w", err)
	}
	scan.StartedAt = &startedAt
	observability.RecordScanStarted()

	o.logger.Info("scan started",
		"scan_id", scan.ID,
		"campaign_id", campaignID,
		"keywords", len(keywords),
		"grid_size", campaign.GridSize,
	)

	outcome, err := o.execute(ctx, campaign, scan)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// execute runs the scan body once the scan record is in the running state
func (o *Orchestrator) execute(ctx context.Context, campaign *campaignentity.Campaign, scan *entity.Scan) (*ScanOutcome, error) {
	// Precondition failures make the whole scan meaningless and fail it
	// immediately; they are distinct from tolerated point-level failures.
	if len(scan.Keywords) == 0 {
		return nil, o.fail(ctx, scan, entity.ErrNoKeywords)
	}

	points, err := geo.Grid(campaign.CenterLat, campaign.CenterLng, campaign.GridSize, campaign.RadiusKm)
	if err != nil {
		return nil, o.fail(ctx, scan, fmt.Errorf("generating grid: %w", err))
	}

	progress := newProgressSink(func(pct int) {
		if err := o.scans.UpdateProgress(ctx, scan.ID, pct); err != nil {
			o.logger.Warn("progress write failed", "scan_id", scan.ID, "error", err)
		}
	})

	batch, err := o.scanner.Run(ctx, scan.ID, campaign.TargetPlaceID, scan.Keywords, points, progress.observe)
	if err != nil {
		return nil, o.fail(ctx, scan, fmt.Errorf("running keyword grid: %w", err))
	}

	agg := Aggregate(scan.ID, batch.Results, campaign.TargetPlaceID, campaign.TargetName)

	previous, err := o.stats.GetPreviousCompleted(ctx, campaign.ID, scan.ID)
	if err != nil {
		// Persistence read failure: leave the scan running for reconciliation.
		return nil, fmt.Errorf("loading previous stats: %w", err)
	}
	ApplyRankChanges(agg.Stats, previous)

	if err := o.results.ReplaceForScan(ctx, scan.ID, batch.Results); err != nil {
		return nil, fmt.Errorf("persisting point results: %w", err)
	}
	if err := o.stats.ReplaceForScan(ctx, scan.ID, agg.Stats); err != nil {
		return nil, fmt.Errorf("persisting competitor stats: %w", err)
	}

	completedAt := time.Now()
	scan.AvgRank = agg.AvgRank
	scan.ShareOfVoice = agg.ShareOfVoice
	scan.TopCompetitor = agg.TopCompetitor
	scan.APICallCount = batch.APICalls
	scan.CostEstimate = float64(batch.APICalls) * o.costPerCall
	scan.FailedPoints = batch.Failed
	scan.CompletedAt = &completedAt
	scan.Progress = 100

	if err := o.scans.MarkCompleted(ctx, scan); err != nil {
		return nil, fmt.Errorf("completing scan: %w", err)
	}
	scan.Status = entity.ScanStatusCompleted
	observability.RecordScanCompleted(valueOrZero(scan.StartedAt), completedAt)

	o.logger.Info("scan completed",
		"scan_id", scan.ID,
		"campaign_id", campaign.ID,
		"api_calls", batch.APICalls,
		"failed_points", batch.Failed,
	)

	o.scheduleNext(ctx, campaign, completedAt)
	o.fireFollowUps(campaign, scan, batch.Results, agg.Stats)

	return &ScanOutcome{
		ScanID:        scan.ID,
		AvgRank:       agg.AvgRank,
		ShareOfVoice:  agg.ShareOfVoice,
		TopCompetitor: agg.TopCompetitor,
		APICallsUsed:  batch.APICalls,
		FailedPoints:  batch.Failed,
	}, nil
}

// fail marks the scan failed with the first orchestration-level error
func (o *Orchestrator) fail(ctx context.Context, scan *entity.Scan, cause error) error {
	observability.RecordScanFailed()
	if err := o.scans.MarkFailed(ctx, scan.ID, cause.Error(), time.Now()); err != nil {
		o.logger.Error("failed to record scan failure", "scan_id", scan.ID, "error", err)
	}
	o.logger.Warn("scan failed", "scan_id", scan.ID, "error", cause)
	return cause
}

// scheduleNext advances the campaign's next scan time per its cadence
func (o *Orchestrator) scheduleNext(ctx context.Context, campaign *campaignentity.Campaign, lastRunAt time.Time) {
	next := campaign.NextRun(lastRunAt)
	if err := o.campaigns.SetNextScanAt(ctx, campaign.ID, next); err != nil {
		o.logger.Warn("scheduling next scan failed", "campaign_id", campaign.ID, "error", err)
	}
}

// fireFollowUps runs the best-effort post-completion tasks: a profile
// refresh for the target business and the snapshot archive. Both are
// fire-and-forget; their failure never flips a completed scan.
func (o *Orchestrator) fireFollowUps(campaign *campaignentity.Campaign, scan *entity.Scan, results []entity.KeywordScanResult, stats []entity.CompetitorStat) {
	if o.profiles != nil && campaign.TargetPlaceID != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), followUpTimeout)
			defer cancel()
			if err := o.profiles.RefreshProfile(ctx, campaign.TargetPlaceID); err != nil {
				o.logger.Warn("profile refresh failed", "place_id", campaign.TargetPlaceID, "error", err)
			}
		}()
	}

	if o.archiver != nil {
		snap := Snapshot{Scan: *scan, Results: results, Stats: stats}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), followUpTimeout)
			defer cancel()
			if err := o.archiver.ArchiveScan(ctx, snap); err != nil {
				o.logger.Warn("snapshot archive failed", "scan_id", snap.Scan.ID, "error", err)
			}
		}()
	}
}

// GetScanProgress returns the scan's status and persisted progress
func (o *Orchestrator) GetScanProgress(ctx context.Context, scanID string) (*ScanProgress, error) {
	scan, err := o.scans.GetByID(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("loading scan: %w", err)
	}
	if scan == nil {
		return nil, entity.ErrScanNotFound
	}
	return &ScanProgress{Status: scan.Status, Progress: scan.Progress}, nil
}

func (o *Orchestrator) tryAcquireCampaign(campaignID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.running[campaignID]; ok {
		return false
	}
	o.running[campaignID] = struct{}{}
	return true
}

func (o *Orchestrator) releaseCampaign(campaignID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.running, campaignID)
}

func valueOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// progressSink forwards progress on whole 10% increments only, and never
// reports a value lower than one already written.
type progressSink struct {
	mu    sync.Mutex
	last  int
	write func(pct int)
}

func newProgressSink(write func(pct int)) *progressSink {
	return &progressSink{write: write}
}

func (p *progressSink) observe(completed, total int) {
	if total <= 0 {
		return
	}
	pct := completed * 100 / total

	p.mu.Lock()
	if pct <= p.last || (pct/10 == p.last/10 && pct != 100) {
		p.mu.Unlock()
		return
	}
	p.last = pct
	p.mu.Unlock()

	p.write(pct)
}
