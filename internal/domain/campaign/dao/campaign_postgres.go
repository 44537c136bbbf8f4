package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
)

// CampaignPostgres implements CampaignRepository for PostgreSQL
type CampaignPostgres struct {
	pool *pgxpool.Pool
}

// NewCampaignPostgres creates a new PostgreSQL campaign repository
func NewCampaignPostgres(pool *pgxpool.Pool) *CampaignPostgres {
	return &CampaignPostgres{pool: pool}
}

const campaignColumns = `
	id, name, target_place_id, target_name, center_lat, center_lng,
	grid_size, radius_km, keywords, frequency, next_scan_at, archived,
	created_at, updated_at
`

// Create inserts a new campaign
func (r *CampaignPostgres) Create(ctx context.Context, c *entity.Campaign) error {
	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.TargetPlaceID,
		c.TargetName,
		c.CenterLat,
		c.CenterLng,
		c.GridSize,
		c.RadiusKm,
		c.Keywords,
		c.Frequency,
		c.NextScanAt,
		c.Archived,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by ID
func (r *CampaignPostgres) GetByID(ctx context.Context, id string) (*entity.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	c, err := scanCampaign(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning campaign: %w", err)
	}
	return c, nil
}

// Update updates an existing campaign's mutable settings
func (r *CampaignPostgres) Update(ctx context.Context, c *entity.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $2, target_place_id = $3, target_name = $4, center_lat = $5,
		    center_lng = $6, grid_size = $7, radius_km = $8, keywords = $9,
		    frequency = $10, updated_at = $11
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.TargetPlaceID,
		c.TargetName,
		c.CenterLat,
		c.CenterLng,
		c.GridSize,
		c.RadiusKm,
		c.Keywords,
		c.Frequency,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("updating campaign: %w", err)
	}

	return nil
}

// Archive soft-deletes a campaign
func (r *CampaignPostgres) Archive(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE campaigns SET archived = true, updated_at = $2 WHERE id = $1",
		id, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("archiving campaign: %w", err)
	}
	return nil
}

// List retrieves campaigns with pagination
func (r *CampaignPostgres) List(ctx context.Context, filter CampaignFilter, opts ListOptions) ([]entity.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	if !filter.IncludeArchived {
		query += " WHERE archived = false"
	}
	query += " ORDER BY created_at DESC"

	args := []interface{}{}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, opts.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []entity.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating campaigns: %w", err)
	}

	return campaigns, nil
}

// GetDueForScan retrieves active campaigns whose next_scan_at is due
func (r *CampaignPostgres) GetDueForScan(ctx context.Context, now time.Time, limit int) ([]entity.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE archived = false
		  AND next_scan_at IS NOT NULL
		  AND next_scan_at <= $1
		ORDER BY next_scan_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("querying due campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []entity.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating due campaigns: %w", err)
	}

	return campaigns, nil
}

// SetNextScanAt updates only the next scheduled scan time
func (r *CampaignPostgres) SetNextScanAt(ctx context.Context, id string, nextScanAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE campaigns SET next_scan_at = $2, updated_at = $3 WHERE id = $1",
		id, nextScanAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("setting next scan time: %w", err)
	}
	return nil
}

// scanCampaign scans a campaign row from either a Row or Rows
func scanCampaign(row pgx.Row) (*entity.Campaign, error) {
	var c entity.Campaign
	var nextScanAt *time.Time

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.TargetPlaceID,
		&c.TargetName,
		&c.CenterLat,
		&c.CenterLng,
		&c.GridSize,
		&c.RadiusKm,
		&c.Keywords,
		&c.Frequency,
		&nextScanAt,
		&c.Archived,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.NextScanAt = nextScanAt
	return &c, nil
}
