package dao

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

// ResultPostgres implements ResultRepository for PostgreSQL
type ResultPostgres struct {
	pool *pgxpool.Pool
}

// NewResultPostgres creates a new PostgreSQL point-result repository
func NewResultPostgres(pool *pgxpool.Pool) *ResultPostgres {
	return &ResultPostgres{pool: pool}
}

// ReplaceForScan idempotently writes the scan's point results. The write is
// keyed by scan id: a retried hand-off after a partial failure replaces the
// earlier rows instead of duplicating them.
func (r *ResultPostgres) ReplaceForScan(ctx context.Context, scanID string, results []entity.KeywordScanResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning result write: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM keyword_scan_results WHERE scan_id = $1", scanID); err != nil {
		return fmt.Errorf("clearing earlier results: %w", err)
	}

	query := `
		INSERT INTO keyword_scan_results
			(scan_id, keyword, grid_row, grid_col, lat, lng, success, target_rank, top_results, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, res := range results {
		topResults, err := json.Marshal(res.TopResults)
		if err != nil {
			return fmt.Errorf("encoding top results: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			scanID,
			res.Keyword,
			res.Row,
			res.Col,
			res.Lat,
			res.Lng,
			res.Success,
			res.TargetRank,
			topResults,
			res.ErrorMessage,
			res.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting point result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing results: %w", err)
	}
	return nil
}

// ListByScan retrieves all point results for a scan
func (r *ResultPostgres) ListByScan(ctx context.Context, scanID string) ([]entity.KeywordScanResult, error) {
	query := `
		SELECT scan_id, keyword, grid_row, grid_col, lat, lng, success, target_rank, top_results, error_message, created_at
		FROM keyword_scan_results
		WHERE scan_id = $1
		ORDER BY keyword, grid_row, grid_col
	`

	rows, err := r.pool.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("listing point results: %w", err)
	}
	defer rows.Close()

	var results []entity.KeywordScanResult
	for rows.Next() {
		var res entity.KeywordScanResult
		var topResults []byte
		var errorMessage *string

		err := rows.Scan(
			&res.ScanID,
			&res.Keyword,
			&res.Row,
			&res.Col,
			&res.Lat,
			&res.Lng,
			&res.Success,
			&res.TargetRank,
			&topResults,
			&errorMessage,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning point result: %w", err)
		}

		if len(topResults) > 0 {
			if err := json.Unmarshal(topResults, &res.TopResults); err != nil {
				return nil, fmt.Errorf("decoding top results: %w", err)
			}
		}
		if errorMessage != nil {
			res.ErrorMessage = *errorMessage
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating point results: %w", err)
	}

	return results, nil
}
