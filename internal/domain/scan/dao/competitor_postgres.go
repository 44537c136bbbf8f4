package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

// CompetitorStatPostgres implements CompetitorStatRepository for PostgreSQL
type CompetitorStatPostgres struct {
	pool *pgxpool.Pool
}

// NewCompetitorStatPostgres creates a new PostgreSQL competitor stat repository
func NewCompetitorStatPostgres(pool *pgxpool.Pool) *CompetitorStatPostgres {
	return &CompetitorStatPostgres{pool: pool}
}

const statColumns = `
	scan_id, place_id, name, is_target, avg_rank, appearances,
	top3_count, top10_count, top20_count, share_of_voice, rank_change,
	rating, review_count
`

// ReplaceForScan idempotently writes the scan's competitor stats
func (r *CompetitorStatPostgres) ReplaceForScan(ctx context.Context, scanID string, stats []entity.CompetitorStat) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning stat write: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM competitor_stats WHERE scan_id = $1", scanID); err != nil {
		return fmt.Errorf("clearing earlier stats: %w", err)
	}

	query := `
		INSERT INTO competitor_stats (` + statColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for _, s := range stats {
		_, err := tx.Exec(ctx, query,
			scanID,
			s.PlaceID,
			s.Name,
			s.IsTarget,
			s.AvgRank,
			s.Appearances,
			s.Top3Count,
			s.Top10Count,
			s.Top20Count,
			s.ShareOfVoice,
			s.RankChange,
			s.Rating,
			s.ReviewCount,
		)
		if err != nil {
			return fmt.Errorf("inserting competitor stat: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing stats: %w", err)
	}
	return nil
}

// ListByScan retrieves all competitor stats for a scan
func (r *CompetitorStatPostgres) ListByScan(ctx context.Context, scanID string) ([]entity.CompetitorStat, error) {
	query := `
		SELECT ` + statColumns + `
		FROM competitor_stats
		WHERE scan_id = $1
		ORDER BY share_of_voice DESC, avg_rank ASC, name ASC
	`

	rows, err := r.pool.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("listing competitor stats: %w", err)
	}
	defer rows.Close()

	return collectStats(rows)
}

// GetPreviousCompleted retrieves the stat set of the most recent completed
// scan for the campaign, excluding the given scan id
func (r *CompetitorStatPostgres) GetPreviousCompleted(ctx context.Context, campaignID, excludeScanID string) ([]entity.CompetitorStat, error) {
	query := `
		SELECT ` + statColumns + `
		FROM competitor_stats
		WHERE scan_id = (
			SELECT id FROM scans
			WHERE campaign_id = $1 AND id <> $2 AND status = $3
			ORDER BY completed_at DESC
			LIMIT 1
		)
	`

	rows, err := r.pool.Query(ctx, query, campaignID, excludeScanID, entity.ScanStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("querying previous stats: %w", err)
	}
	defer rows.Close()

	return collectStats(rows)
}

func collectStats(rows pgx.Rows) ([]entity.CompetitorStat, error) {
	var stats []entity.CompetitorStat
	for rows.Next() {
		var s entity.CompetitorStat
		var placeID *string

		err := rows.Scan(
			&s.ScanID,
			&placeID,
			&s.Name,
			&s.IsTarget,
			&s.AvgRank,
			&s.Appearances,
			&s.Top3Count,
			&s.Top10Count,
			&s.Top20Count,
			&s.ShareOfVoice,
			&s.RankChange,
			&s.Rating,
			&s.ReviewCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning competitor stat: %w", err)
		}

		if placeID != nil {
			s.PlaceID = *placeID
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating competitor stats: %w", err)
	}

	return stats, nil
}
