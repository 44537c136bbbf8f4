package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/dao"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
)

// Service handles business logic for campaigns
type Service struct {
	campaigns dao.CampaignRepository
}

// New creates a new campaign service
func New(campaigns dao.CampaignRepository) *Service {
	return &Service{campaigns: campaigns}
}

// CreateInput represents input for creating a campaign
type CreateInput struct {
	Name          string
	TargetPlaceID string
	TargetName    string
	CenterLat     float64
	CenterLng     float64
	GridSize      int
	RadiusKm      float64
	Keywords      []string
	Frequency     entity.ScanFrequency
}

// CreateCampaign creates a new campaign
func (s *Service) CreateCampaign(ctx context.Context, in CreateInput) (*entity.Campaign, error) {
	now := time.Now()

	c := &entity.Campaign{
		ID:            uuid.New().String(),
		Name:          in.Name,
		TargetPlaceID: in.TargetPlaceID,
		TargetName:    in.TargetName,
		CenterLat:     in.CenterLat,
		CenterLng:     in.CenterLng,
		GridSize:      in.GridSize,
		RadiusKm:      in.RadiusKm,
		Keywords:      in.Keywords,
		Frequency:     in.Frequency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.campaigns.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// GetCampaign retrieves a campaign by ID
func (s *Service) GetCampaign(ctx context.Context, id string) (*entity.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, entity.ErrCampaignNotFound
	}
	return c, nil
}

// UpdateInput represents input for updating a campaign
type UpdateInput struct {
	ID        string
	Name      *string
	Keywords  []string
	GridSize  *int
	RadiusKm  *float64
	Frequency *entity.ScanFrequency
}

// UpdateCampaign updates a campaign's mutable settings
func (s *Service) UpdateCampaign(ctx context.Context, in UpdateInput) (*entity.Campaign, error) {
	c, err := s.GetCampaign(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if c.Archived {
		return nil, entity.ErrCampaignArchived
	}

	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Keywords != nil {
		c.Keywords = in.Keywords
	}
	if in.GridSize != nil {
		c.GridSize = *in.GridSize
	}
	if in.RadiusKm != nil {
		c.RadiusKm = *in.RadiusKm
	}
	if in.Frequency != nil {
		c.Frequency = *in.Frequency
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.campaigns.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// ArchiveCampaign soft-deletes a campaign. Scans that reference it are
// never removed, so historical results stay readable.
func (s *Service) ArchiveCampaign(ctx context.Context, id string) error {
	if _, err := s.GetCampaign(ctx, id); err != nil {
		return err
	}
	return s.campaigns.Archive(ctx, id)
}

// ListCampaigns retrieves campaigns with pagination
func (s *Service) ListCampaigns(ctx context.Context, includeArchived bool, limit, offset int) ([]entity.Campaign, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.campaigns.List(ctx,
		dao.CampaignFilter{IncludeArchived: includeArchived},
		dao.ListOptions{Limit: limit, Offset: offset},
	)
}
