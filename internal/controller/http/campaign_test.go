package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/campaign/service"
)

// fakeCampaignService implements CampaignService with canned responses
type fakeCampaignService struct {
	campaign  *entity.Campaign
	campaigns []entity.Campaign
	err       error
	gotCreate service.CreateInput
	gotUpdate service.UpdateInput
}

func (f *fakeCampaignService) CreateCampaign(_ context.Context, in service.CreateInput) (*entity.Campaign, error) {
	f.gotCreate = in
	return f.campaign, f.err
}

func (f *fakeCampaignService) GetCampaign(context.Context, string) (*entity.Campaign, error) {
	return f.campaign, f.err
}

func (f *fakeCampaignService) UpdateCampaign(_ context.Context, in service.UpdateInput) (*entity.Campaign, error) {
	f.gotUpdate = in
	return f.campaign, f.err
}

func (f *fakeCampaignService) ArchiveCampaign(context.Context, string) error {
	return f.err
}

func (f *fakeCampaignService) ListCampaigns(context.Context, bool, int, int) ([]entity.Campaign, error) {
	return f.campaigns, f.err
}

func campaignRouter(svc CampaignService) *chi.Mux {
	r := chi.NewRouter()
	NewCampaignHandler(svc).RegisterRoutes(r)
	return r
}

func TestCampaignHandlerCreate(t *testing.T) {
	svc := &fakeCampaignService{campaign: &entity.Campaign{ID: "camp-1", Name: "Downtown Plumbing"}}
	router := campaignRouter(svc)

	body := strings.NewReader(`{
		"name": "Downtown Plumbing",
		"target_place_id": "place-123",
		"target_name": "Joe's Plumbing",
		"center_lat": 30.2672,
		"center_lng": -97.7431,
		"grid_size": 7,
		"radius_km": 5,
		"keywords": ["plumber"],
		"frequency": "weekly"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/campaigns", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Downtown Plumbing", svc.gotCreate.Name)
	assert.Equal(t, 7, svc.gotCreate.GridSize)
	assert.Equal(t, entity.ScanFrequencyWeekly, svc.gotCreate.Frequency)

	var created entity.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "camp-1", created.ID)
}

func TestCampaignHandlerCreateInvalidJSON(t *testing.T) {
	router := campaignRouter(&fakeCampaignService{})

	req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCampaignHandlerCreateValidationError(t *testing.T) {
	router := campaignRouter(&fakeCampaignService{err: entity.ErrInvalidGridSize})

	req := httptest.NewRequest(http.MethodPost, "/campaigns", strings.NewReader(`{"name":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCampaignHandlerGetNotFound(t *testing.T) {
	router := campaignRouter(&fakeCampaignService{err: entity.ErrCampaignNotFound})

	req := httptest.NewRequest(http.MethodGet, "/campaigns/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCampaignHandlerUpdate(t *testing.T) {
	svc := &fakeCampaignService{campaign: &entity.Campaign{ID: "camp-1", Name: "Renamed"}}
	router := campaignRouter(svc)

	body := strings.NewReader(`{"name": "Renamed", "frequency": "monthly"}`)
	req := httptest.NewRequest(http.MethodPut, "/campaigns/camp-1", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "camp-1", svc.gotUpdate.ID)
	require.NotNil(t, svc.gotUpdate.Name)
	assert.Equal(t, "Renamed", *svc.gotUpdate.Name)
	require.NotNil(t, svc.gotUpdate.Frequency)
	assert.Equal(t, entity.ScanFrequencyMonthly, *svc.gotUpdate.Frequency)
}

func TestCampaignHandlerArchive(t *testing.T) {
	router := campaignRouter(&fakeCampaignService{})

	req := httptest.NewRequest(http.MethodPost, "/campaigns/camp-1/archive", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCampaignHandlerList(t *testing.T) {
	router := campaignRouter(&fakeCampaignService{campaigns: []entity.Campaign{
		{ID: "camp-1"}, {ID: "camp-2"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/campaigns?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Campaigns []entity.Campaign `json:"campaigns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Campaigns, 2)
}
