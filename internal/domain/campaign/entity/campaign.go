package entity

import (
	"strings"
	"time"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/geo"
)

// ScanFrequency represents how often a campaign's grid scan runs
type ScanFrequency string

const (
	ScanFrequencyWeekly   ScanFrequency = "weekly"
	ScanFrequencyBiweekly ScanFrequency = "biweekly"
	ScanFrequencyMonthly  ScanFrequency = "monthly"
)

// Interval returns the duration between scheduled scans
func (f ScanFrequency) Interval() time.Duration {
	switch f {
	case ScanFrequencyBiweekly:
		return 14 * 24 * time.Hour
	case ScanFrequencyMonthly:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// Campaign represents a tracked business location with its scan settings
type Campaign struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	TargetPlaceID string        `json:"target_place_id"`
	TargetName    string        `json:"target_name"`
	CenterLat     float64       `json:"center_lat"`
	CenterLng     float64       `json:"center_lng"`
	GridSize      int           `json:"grid_size"`
	RadiusKm      float64       `json:"radius_km"`
	Keywords      []string      `json:"keywords"`
	Frequency     ScanFrequency `json:"frequency"`
	NextScanAt    *time.Time    `json:"next_scan_at,omitempty"`
	Archived      bool          `json:"archived"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsScannable returns true if the campaign can run a grid scan
func (c *Campaign) IsScannable() bool {
	return !c.Archived && len(c.Keywords) > 0
}

// NextRun returns when the next scan should run after the given completion time
func (c *Campaign) NextRun(lastRunAt time.Time) time.Time {
	return lastRunAt.Add(c.Frequency.Interval())
}

// Validate validates the campaign settings
func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.TargetName) == "" {
		return ErrEmptyTargetName
	}
	if c.CenterLat < -90 || c.CenterLat > 90 || c.CenterLng < -180 || c.CenterLng > 180 {
		return ErrInvalidCoordinate
	}
	if err := geo.ValidateGridSize(c.GridSize); err != nil {
		return ErrInvalidGridSize
	}
	if c.RadiusKm <= 0 {
		return ErrInvalidRadius
	}
	if !isValidFrequency(c.Frequency) {
		return ErrInvalidFrequency
	}
	for _, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			return ErrEmptyKeyword
		}
	}
	return nil
}

func isValidFrequency(f ScanFrequency) bool {
	switch f {
	case ScanFrequencyWeekly, ScanFrequencyBiweekly, ScanFrequencyMonthly:
		return true
	default:
		return false
	}
}
