package entity

// CompetitorStat is the per-business aggregate for one scan. It is derived
// from the scan's point results and is not independently mutable.
type CompetitorStat struct {
	ScanID       string   `json:"scan_id"`
	PlaceID      string   `json:"place_id,omitempty"`
	Name         string   `json:"name"`
	IsTarget     bool     `json:"is_target"`
	AvgRank      float64  `json:"avg_rank"`
	Appearances  int      `json:"appearances"` // point-results the business ranked in
	Top3Count    int      `json:"top3_count"`
	Top10Count   int      `json:"top10_count"`
	Top20Count   int      `json:"top20_count"`
	ShareOfVoice float64  `json:"share_of_voice"` // 0-1
	RankChange   *float64 `json:"rank_change,omitempty"` // vs previous completed scan; positive = improvement
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *int     `json:"review_count,omitempty"`
}

// Identity returns the stable matching key for this stat
func (s CompetitorStat) Identity() string {
	if s.PlaceID != "" {
		return s.PlaceID
	}
	return NormalizeName(s.Name)
}
