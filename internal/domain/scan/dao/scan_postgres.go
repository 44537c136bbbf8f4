package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

// ScanPostgres implements ScanRepository for PostgreSQL
type ScanPostgres struct {
	pool *pgxpool.Pool
}

// NewScanPostgres creates a new PostgreSQL scan repository
func NewScanPostgres(pool *pgxpool.Pool) *ScanPostgres {
	return &ScanPostgres{pool: pool}
}

const scanColumns = `
	id, campaign_id, status, progress, keywords, grid_size, radius_km,
	avg_rank, share_of_voice, top_competitor, api_call_count, cost_estimate,
	failed_points, error_message, created_at, started_at, completed_at
`

// Create inserts a new scan
func (r *ScanPostgres) Create(ctx context.Context, s *entity.Scan) error {
	query := `
		INSERT INTO scans (` + scanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.CampaignID,
		s.Status,
		s.Progress,
		s.Keywords,
		s.GridSize,
		s.RadiusKm,
		s.AvgRank,
		s.ShareOfVoice,
		s.TopCompetitor,
		s.APICallCount,
		s.CostEstimate,
		s.FailedPoints,
		s.ErrorMessage,
		s.CreatedAt,
		s.StartedAt,
		s.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting scan: %w", err)
	}

	return nil
}

// GetByID retrieves a scan by ID
func (r *ScanPostgres) GetByID(ctx context.Context, id string) (*entity.Scan, error) {
	query := `SELECT ` + scanColumns + ` FROM scans WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	s, err := scanScan(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scan row: %w", err)
	}
	return s, nil
}

// ListByCampaign retrieves scans for a campaign, newest first
func (r *ScanPostgres) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]entity.Scan, error) {
	query := `
		SELECT ` + scanColumns + `
		FROM scans
		WHERE campaign_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer rows.Close()

	var scans []entity.Scan
	for rows.Next() {
		s, err := scanScan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning scan row: %w", err)
		}
		scans = append(scans, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scans: %w", err)
	}

	return scans, nil
}

// MarkRunning transitions a pending scan to running. The status predicate
// keeps terminal scans immutable even under a racing writer.
func (r *ScanPostgres) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE scans SET status = $2, started_at = $3 WHERE id = $1 AND status = $4",
		id, entity.ScanStatusRunning, startedAt, entity.ScanStatusPending,
	)
	if err != nil {
		return fmt.Errorf("marking scan running: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrInvalidTransition
	}
	return nil
}

// UpdateProgress writes the scan progress, clamped so a persisted value
// never decreases under out-of-order writes.
func (r *ScanPostgres) UpdateProgress(ctx context.Context, id string, progress int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE scans SET progress = GREATEST(progress, $2) WHERE id = $1 AND status = $3",
		id, progress, entity.ScanStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("updating scan progress: %w", err)
	}
	return nil
}

// MarkCompleted transitions a running scan to completed with its metrics
func (r *ScanPostgres) MarkCompleted(ctx context.Context, s *entity.Scan) error {
	query := `
		UPDATE scans
		SET status = $2, progress = 100, avg_rank = $3, share_of_voice = $4,
		    top_competitor = $5, api_call_count = $6, cost_estimate = $7,
		    failed_points = $8, completed_at = $9
		WHERE id = $1 AND status = $10
	`

	tag, err := r.pool.Exec(ctx, query,
		s.ID,
		entity.ScanStatusCompleted,
		s.AvgRank,
		s.ShareOfVoice,
		s.TopCompetitor,
		s.APICallCount,
		s.CostEstimate,
		s.FailedPoints,
		s.CompletedAt,
		entity.ScanStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("marking scan completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrInvalidTransition
	}
	return nil
}

// MarkFailed transitions a running scan to failed with an error message
func (r *ScanPostgres) MarkFailed(ctx context.Context, id string, errorMessage string, failedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE scans SET status = $2, error_message = $3, completed_at = $4 WHERE id = $1 AND status = $5",
		id, entity.ScanStatusFailed, errorMessage, failedAt, entity.ScanStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("marking scan failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrInvalidTransition
	}
	return nil
}

// FailStale marks running scans started before the cutoff as failed
func (r *ScanPostgres) FailStale(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE scans
		 SET status = $1, error_message = 'scan abandoned: exceeded running timeout', completed_at = $2
		 WHERE status = $3 AND started_at < $4`,
		entity.ScanStatusFailed, time.Now(), entity.ScanStatusRunning, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("sweeping stale scans: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Delete removes a scan and its owned results and stats
func (r *ScanPostgres) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, q := range []string{
		"DELETE FROM competitor_stats WHERE scan_id = $1",
		"DELETE FROM keyword_scan_results WHERE scan_id = $1",
		"DELETE FROM scans WHERE id = $1",
	} {
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("deleting scan: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// scanScan scans a scan row from either a Row or Rows
func scanScan(row pgx.Row) (*entity.Scan, error) {
	var s entity.Scan
	var avgRank, shareOfVoice *float64
	var topCompetitor, errorMessage *string
	var startedAt, completedAt *time.Time

	err := row.Scan(
		&s.ID,
		&s.CampaignID,
		&s.Status,
		&s.Progress,
		&s.Keywords,
		&s.GridSize,
		&s.RadiusKm,
		&avgRank,
		&shareOfVoice,
		&topCompetitor,
		&s.APICallCount,
		&s.CostEstimate,
		&s.FailedPoints,
		&errorMessage,
		&s.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	s.AvgRank = avgRank
	s.ShareOfVoice = shareOfVoice
	if topCompetitor != nil {
		s.TopCompetitor = *topCompetitor
	}
	if errorMessage != nil {
		s.ErrorMessage = *errorMessage
	}
	s.StartedAt = startedAt
	s.CompletedAt = completedAt

	return &s, nil
}
