package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	campaignentity "github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/service"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/httpx/response"
)

// ScanPolicy defines the interface for scan operations
// Interface is defined by consumer (handler), not provider (policy)
type ScanPolicy interface {
	RunScan(ctx context.Context, campaignID string, keywords []string) (*service.ScanOutcome, error)
	GetScanProgress(ctx context.Context, scanID string) (*service.ScanProgress, error)
	GetScan(ctx context.Context, scanID string) (*entity.Scan, error)
	ListScans(ctx context.Context, campaignID string, limit int) ([]entity.Scan, error)
	ListCompetitors(ctx context.Context, scanID string) ([]entity.CompetitorStat, error)
	ListPointResults(ctx context.Context, scanID string) ([]entity.KeywordScanResult, error)
	DeleteScan(ctx context.Context, scanID string) error
}

// ScanHandler handles HTTP requests for grid scans
type ScanHandler struct {
	policy ScanPolicy
}

// NewScanHandler creates a new scan handler
func NewScanHandler(p ScanPolicy) *ScanHandler {
	return &ScanHandler{policy: p}
}

// RegisterRoutes registers scan routes
func (h *ScanHandler) RegisterRoutes(r chi.Router) {
	r.Route("/campaigns/{campaignID}/scans", func(r chi.Router) {
		r.Post("/", h.Run())
		r.Get("/", h.List())
	})
	r.Route("/scans/{id}", func(r chi.Router) {
		r.Get("/", h.Get())
		r.Delete("/", h.Delete())
		r.Get("/progress", h.Progress())
		r.Get("/competitors", h.Competitors())
		r.Get("/results", h.PointResults())
	})
}

// RunRequest represents the request body for triggering a scan
type RunRequest struct {
	Keywords []string `json:"keywords,omitempty"` // optional override of campaign keywords
}

// Run handles POST /campaigns/{campaignID}/scans. The call blocks until
// the scan finishes and returns its outcome; clients wanting progress
// should poll the progress endpoint from another request.
func (h *ScanHandler) Run() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID := chi.URLParam(r, "campaignID")

		var req RunRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				response.BadRequest(w, "invalid JSON")
				return
			}
		}

		outcome, err := h.policy.RunScan(r.Context(), campaignID, req.Keywords)
		if err != nil {
			writeScanError(w, err)
			return
		}

		response.OK(w, outcome)
	}
}

// Progress handles GET /scans/{id}/progress
func (h *ScanHandler) Progress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		progress, err := h.policy.GetScanProgress(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeScanError(w, err)
			return
		}
		response.OK(w, progress)
	}
}

// Get handles GET /scans/{id}
func (h *ScanHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scan, err := h.policy.GetScan(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeScanError(w, err)
			return
		}
		response.OK(w, scan)
	}
}

// List handles GET /campaigns/{campaignID}/scans
func (h *ScanHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		scans, err := h.policy.ListScans(r.Context(), chi.URLParam(r, "campaignID"), limit)
		if err != nil {
			writeScanError(w, err)
			return
		}
		response.OK(w, map[string]interface{}{"scans": scans})
	}
}

// Competitors handles GET /scans/{id}/competitors
func (h *ScanHandler) Competitors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.policy.ListCompetitors(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeScanError(w, err)
			return
		}
		response.OK(w, map[string]interface{}{"competitors": stats})
	}
}

// PointResults handles GET /scans/{id}/results
func (h *ScanHandler) PointResults() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := h.policy.ListPointResults(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeScanError(w, err)
			return
		}
		response.OK(w, map[string]interface{}{"results": results})
	}
}

// Delete handles DELETE /scans/{id}
func (h *ScanHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.policy.DeleteScan(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeScanError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// writeScanError maps scan domain errors to HTTP status codes
func writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrScanNotFound), errors.Is(err, campaignentity.ErrCampaignNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrScanAlreadyRunning):
		response.Conflict(w, err.Error())
	case errors.Is(err, entity.ErrScanLimitReached):
		response.TooManyRequests(w, err.Error())
	case errors.Is(err, campaignentity.ErrCampaignArchived),
		errors.Is(err, entity.ErrNoKeywords),
		errors.Is(err, entity.ErrInvalidTransition):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, err.Error())
	}
}
