package entity

import "errors"

// Domain errors for scans
var (
	// State machine errors
	ErrInvalidTransition = errors.New("invalid scan status transition")
	ErrScanNotFound      = errors.New("scan not found")

	// Orchestration errors: conditions that make the whole scan meaningless
	ErrNoKeywords         = errors.New("campaign has no keywords to scan")
	ErrScanAlreadyRunning = errors.New("a scan is already running for this campaign")
	ErrScanLimitReached   = errors.New("too many scans running")
)
