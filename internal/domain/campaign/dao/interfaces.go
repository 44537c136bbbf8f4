package dao

import (
	"context"
	"time"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
)

// CampaignFilter contains filters for listing campaigns
type CampaignFilter struct {
	IncludeArchived bool
}

// ListOptions contains pagination options
type ListOptions struct {
	Limit  int
	Offset int
}

// CampaignRepository defines the interface for campaign data access
type CampaignRepository interface {
	// Create inserts a new campaign
	Create(ctx context.Context, c *entity.Campaign) error

	// GetByID retrieves a campaign by its ID, or nil if not found
	GetByID(ctx context.Context, id string) (*entity.Campaign, error)

	// Update updates an existing campaign's mutable settings
	Update(ctx context.Context, c *entity.Campaign) error

	// Archive soft-deletes a campaign; scans referencing it are kept
	Archive(ctx context.Context, id string) error

	// List retrieves campaigns with pagination
	List(ctx context.Context, filter CampaignFilter, opts ListOptions) ([]entity.Campaign, error)

	// GetDueForScan retrieves active campaigns whose next_scan_at is due
	GetDueForScan(ctx context.Context, now time.Time, limit int) ([]entity.Campaign, error)

	// SetNextScanAt updates only the next scheduled scan time
	SetNextScanAt(ctx context.Context, id string, nextScanAt time.Time) error
}
