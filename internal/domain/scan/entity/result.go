package entity

import (
	"fmt"
	"strings"
	"time"
)

// RankedBusiness is one listing returned by a ranking lookup at a grid point
type RankedBusiness struct {
	Name        string   `json:"name"`
	PlaceID     string   `json:"place_id,omitempty"`
	Rank        int      `json:"rank"` // 1-based
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
}

// Identity returns the stable key used to match this business across grid
// points and scans: the external place ID when present, otherwise the
// normalized name. Name matching is a known approximation; two distinct
// businesses with identical names in different locations will collapse.
func (b RankedBusiness) Identity() string {
	if b.PlaceID != "" {
		return b.PlaceID
	}
	return NormalizeName(b.Name)
}

// NormalizeName lower-cases and trims a business name for identity matching
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// KeywordScanResult is the raw outcome of one (keyword, grid point) lookup.
// It is owned by exactly one scan and written once.
type KeywordScanResult struct {
	ScanID       string           `json:"scan_id"`
	Keyword      string           `json:"keyword"`
	Row          int              `json:"row"`
	Col          int              `json:"col"`
	Lat          float64          `json:"lat"`
	Lng          float64          `json:"lng"`
	Success      bool             `json:"success"`
	TargetRank   *int             `json:"target_rank,omitempty"`
	TopResults   []RankedBusiness `json:"top_results,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// PairKey returns the unique (keyword, point) key of this result within its scan
func (r KeywordScanResult) PairKey() string {
	return fmt.Sprintf("%s/%d/%d", r.Keyword, r.Row, r.Col)
}
