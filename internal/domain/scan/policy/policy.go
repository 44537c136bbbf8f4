package policy

import (
	"context"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/dao"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/service"
)

// Policy orchestrates scan use-cases for the transport layer
type Policy struct {
	orch    *service.Orchestrator
	scans   dao.ScanRepository
	results dao.ResultRepository
	stats   dao.CompetitorStatRepository
}

// New creates a new scan policy
func New(orch *service.Orchestrator, scans dao.ScanRepository, results dao.ResultRepository, stats dao.CompetitorStatRepository) *Policy {
	return &Policy{
		orch:    orch,
		scans:   scans,
		results: results,
		stats:   stats,
	}
}

// RunScan executes a grid scan for the campaign and blocks until it
// finishes. An empty keyword list means the campaign's own keywords.
func (p *Policy) RunScan(ctx context.Context, campaignID string, keywords []string) (*service.ScanOutcome, error) {
	return p.orch.RunScan(ctx, campaignID, keywords)
}

// GetScanProgress returns the scan's status and progress percentage
func (p *Policy) GetScanProgress(ctx context.Context, scanID string) (*service.ScanProgress, error) {
	return p.orch.GetScanProgress(ctx, scanID)
}

// GetScan retrieves a scan by ID
func (p *Policy) GetScan(ctx context.Context, scanID string) (*entity.Scan, error) {
	scan, err := p.scans.GetByID(ctx, scanID)
	if err != nil {
		return nil, err
	}
	if scan == nil {
		return nil, entity.ErrScanNotFound
	}
	return scan, nil
}

// ListScans retrieves a campaign's scans, newest first
func (p *Policy) ListScans(ctx context.Context, campaignID string, limit int) ([]entity.Scan, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return p.scans.ListByCampaign(ctx, campaignID, limit)
}

// ListCompetitors retrieves a scan's competitor stats ordered by share of voice
func (p *Policy) ListCompetitors(ctx context.Context, scanID string) ([]entity.CompetitorStat, error) {
	if _, err := p.GetScan(ctx, scanID); err != nil {
		return nil, err
	}
	return p.stats.ListByScan(ctx, scanID)
}

// ListPointResults retrieves a scan's raw per-point results
func (p *Policy) ListPointResults(ctx context.Context, scanID string) ([]entity.KeywordScanResult, error) {
	if _, err := p.GetScan(ctx, scanID); err != nil {
		return nil, err
	}
	return p.results.ListByScan(ctx, scanID)
}

// DeleteScan removes a scan and its owned data. Running scans are kept
// until they finish or the stale sweep reconciles them.
func (p *Policy) DeleteScan(ctx context.Context, scanID string) error {
	scan, err := p.GetScan(ctx, scanID)
	if err != nil {
		return err
	}
	if !scan.IsDeletable() {
		return entity.ErrInvalidTransition
	}
	return p.scans.Delete(ctx, scanID)
}
