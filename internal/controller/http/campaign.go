package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/service"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/httpx/response"
)

// CampaignService defines the interface for campaign operations
type CampaignService interface {
	CreateCampaign(ctx context.Context, in service.CreateInput) (*entity.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*entity.Campaign, error)
	UpdateCampaign(ctx context.Context, in service.UpdateInput) (*entity.Campaign, error)
	ArchiveCampaign(ctx context.Context, id string) error
	ListCampaigns(ctx context.Context, includeArchived bool, limit, offset int) ([]entity.Campaign, error)
}

// CampaignHandler handles HTTP requests for campaigns
type CampaignHandler struct {
	svc CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(svc CampaignService) *CampaignHandler {
	return &CampaignHandler{svc: svc}
}

// RegisterRoutes registers campaign routes
func (h *CampaignHandler) RegisterRoutes(r chi.Router) {
	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Get("/{id}", h.Get())
		r.Put("/{id}", h.Update())
		r.Post("/{id}/archive", h.Archive())
	})
}

// CreateCampaignRequest represents the request body for creating a campaign
type CreateCampaignRequest struct {
	Name          string   `json:"name"`
	TargetPlaceID string   `json:"target_place_id"`
	TargetName    string   `json:"target_name"`
	CenterLat     float64  `json:"center_lat"`
	CenterLng     float64  `json:"center_lng"`
	GridSize      int      `json:"grid_size"`
	RadiusKm      float64  `json:"radius_km"`
	Keywords      []string `json:"keywords"`
	Frequency     string   `json:"frequency"`
}

// Create handles POST /campaigns
func (h *CampaignHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCampaignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		campaign, err := h.svc.CreateCampaign(r.Context(), service.CreateInput{
			Name:          req.Name,
			TargetPlaceID: req.TargetPlaceID,
			TargetName:    req.TargetName,
			CenterLat:     req.CenterLat,
			CenterLng:     req.CenterLng,
			GridSize:      req.GridSize,
			RadiusKm:      req.RadiusKm,
			Keywords:      req.Keywords,
			Frequency:     entity.ScanFrequency(req.Frequency),
		})
		if err != nil {
			writeCampaignError(w, err)
			return
		}

		response.Created(w, campaign)
	}
}

// Get handles GET /campaigns/{id}
func (h *CampaignHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaign, err := h.svc.GetCampaign(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeCampaignError(w, err)
			return
		}
		response.OK(w, campaign)
	}
}

// UpdateCampaignRequest represents the request body for updating a campaign
type UpdateCampaignRequest struct {
	Name      *string  `json:"name,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	GridSize  *int     `json:"grid_size,omitempty"`
	RadiusKm  *float64 `json:"radius_km,omitempty"`
	Frequency *string  `json:"frequency,omitempty"`
}

// Update handles PUT /campaigns/{id}
func (h *CampaignHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateCampaignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		in := service.UpdateInput{
			ID:       chi.URLParam(r, "id"),
			Name:     req.Name,
			Keywords: req.Keywords,
			GridSize: req.GridSize,
			RadiusKm: req.RadiusKm,
		}
		if req.Frequency != nil {
			freq := entity.ScanFrequency(*req.Frequency)
			in.Frequency = &freq
		}

		campaign, err := h.svc.UpdateCampaign(r.Context(), in)
		if err != nil {
			writeCampaignError(w, err)
			return
		}

		response.OK(w, campaign)
	}
}

// Archive handles POST /campaigns/{id}/archive
func (h *CampaignHandler) Archive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.ArchiveCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeCampaignError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// List handles GET /campaigns
func (h *CampaignHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		includeArchived := q.Get("include_archived") == "true"

		campaigns, err := h.svc.ListCampaigns(r.Context(), includeArchived, limit, offset)
		if err != nil {
			writeCampaignError(w, err)
			return
		}

		response.OK(w, map[string]interface{}{"campaigns": campaigns})
	}
}

// writeCampaignError maps campaign domain errors to HTTP status codes
func writeCampaignError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrCampaignNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrEmptyName),
		errors.Is(err, entity.ErrEmptyTargetName),
		errors.Is(err, entity.ErrInvalidCoordinate),
		errors.Is(err, entity.ErrInvalidGridSize),
		errors.Is(err, entity.ErrInvalidRadius),
		errors.Is(err, entity.ErrInvalidFrequency),
		errors.Is(err, entity.ErrEmptyKeyword),
		errors.Is(err, entity.ErrCampaignArchived):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}
