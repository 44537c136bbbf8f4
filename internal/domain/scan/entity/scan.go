package entity

import (
	"time"
)

// ScanStatus represents the current status of a grid scan
type ScanStatus string

const (
	ScanStatusPending   ScanStatus = "pending"
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// IsTerminal returns true if the status allows no further transitions
func (s ScanStatus) IsTerminal() bool {
	return s == ScanStatusCompleted || s == ScanStatusFailed
}

// CanTransitionTo reports whether the status may move to next. The state
// machine is pending -> running -> completed|failed; terminal states are
// immutable and running never skips back to pending.
func (s ScanStatus) CanTransitionTo(next ScanStatus) bool {
	switch s {
	case ScanStatusPending:
		return next == ScanStatusRunning
	case ScanStatusRunning:
		return next == ScanStatusCompleted || next == ScanStatusFailed
	default:
		return false
	}
}

// Scan represents one execution instance of a campaign's grid scan
type Scan struct {
	ID           string     `json:"id"`
	CampaignID   string     `json:"campaign_id"`
	Status       ScanStatus `json:"status"`
	Progress     int        `json:"progress"` // 0-100
	Keywords     []string   `json:"keywords"`
	GridSize     int        `json:"grid_size"`
	RadiusKm     float64    `json:"radius_km"`
	AvgRank      *float64   `json:"avg_rank,omitempty"`
	ShareOfVoice *float64   `json:"share_of_voice,omitempty"`
	TopCompetitor string    `json:"top_competitor,omitempty"`
	APICallCount int        `json:"api_call_count"`
	CostEstimate float64    `json:"cost_estimate"`
	FailedPoints int        `json:"failed_points"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// IsDeletable returns true if the scan can be removed. Running scans hold
// in-flight work and must finish or be swept first.
func (s *Scan) IsDeletable() bool {
	return s.Status != ScanStatusRunning
}

// Transition moves the scan to the next status, enforcing the state machine
func (s *Scan) Transition(next ScanStatus) error {
	if !s.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	s.Status = next
	return nil
}
