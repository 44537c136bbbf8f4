package entity

import "errors"

// Domain errors for campaigns
var (
	// Validation errors
	ErrEmptyName         = errors.New("campaign name is required")
	ErrEmptyTargetName   = errors.New("target business name is required")
	ErrInvalidCoordinate = errors.New("center coordinate is out of range")
	ErrInvalidGridSize   = errors.New("grid size must be odd and between 3 and 11")
	ErrInvalidRadius     = errors.New("radius must be positive")
	ErrInvalidFrequency  = errors.New("invalid scan frequency")
	ErrEmptyKeyword      = errors.New("keywords must not be blank")

	// Business logic errors
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignArchived = errors.New("campaign is archived")
)
