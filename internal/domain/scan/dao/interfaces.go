package dao

import (
	"context"
	"time"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

// ScanRepository defines the interface for scan data access
type ScanRepository interface {
	// Create inserts a new scan
	Create(ctx context.Context, s *entity.Scan) error

	// GetByID retrieves a scan by its ID, or nil if not found
	GetByID(ctx context.Context, id string) (*entity.Scan, error)

	// ListByCampaign retrieves scans for a campaign, newest first
	ListByCampaign(ctx context.Context, campaignID string, limit int) ([]entity.Scan, error)

	// MarkRunning transitions a pending scan to running
	MarkRunning(ctx context.Context, id string, startedAt time.Time) error

	// UpdateProgress writes the scan's progress percentage. The write never
	// lowers a previously persisted value.
	UpdateProgress(ctx context.Context, id string, progress int) error

	// MarkCompleted transitions a running scan to completed with its metrics
	MarkCompleted(ctx context.Context, s *entity.Scan) error

	// MarkFailed transitions a running scan to failed with an error message
	MarkFailed(ctx context.Context, id string, errorMessage string, failedAt time.Time) error

	// FailStale marks running scans started before the cutoff as failed,
	// reconciling scans abandoned by a process restart. Returns the number
	// of scans swept.
	FailStale(ctx context.Context, cutoff time.Time) (int, error)

	// Delete removes a scan and its owned results and stats
	Delete(ctx context.Context, id string) error
}

// ResultRepository defines the interface for per-point result data access
type ResultRepository interface {
	// ReplaceForScan idempotently writes the scan's point results,
	// replacing any earlier write for the same scan id
	ReplaceForScan(ctx context.Context, scanID string, results []entity.KeywordScanResult) error

	// ListByScan retrieves all point results for a scan
	ListByScan(ctx context.Context, scanID string) ([]entity.KeywordScanResult, error)
}

// CompetitorStatRepository defines the interface for aggregate stat access
type CompetitorStatRepository interface {
	// ReplaceForScan idempotently writes the scan's competitor stats
	ReplaceForScan(ctx context.Context, scanID string, stats []entity.CompetitorStat) error

	// ListByScan retrieves all competitor stats for a scan, ordered by
	// share of voice descending
	ListByScan(ctx context.Context, scanID string) ([]entity.CompetitorStat, error)

	// GetPreviousCompleted retrieves the stat set of the most recent
	// completed scan for the campaign, excluding the given scan id.
	// Returns nil when the campaign has no earlier completed scan.
	GetPreviousCompleted(ctx context.Context, campaignID, excludeScanID string) ([]entity.CompetitorStat, error)
}
