package main

import (
	"context"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/service"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/httpx/upstream/places"
)

// lookupAdapter adapts places.Client to service.RankLookup
type lookupAdapter struct {
	client *places.Client
}

func (a *lookupAdapter) LookupRank(ctx context.Context, keyword string, lat, lng float64, targetPlaceID string) (*service.LookupResult, error) {
	out, err := a.client.LookupRank(ctx, places.LookupRankInput{
		Keyword:       keyword,
		Lat:           lat,
		Lng:           lng,
		TargetPlaceID: targetPlaceID,
	})
	if err != nil {
		return nil, err
	}

	top := make([]entity.RankedBusiness, 0, len(out.Listings))
	for _, l := range out.Listings {
		top = append(top, entity.RankedBusiness{
			Name:        l.Name,
			PlaceID:     l.PlaceID,
			Rank:        l.Rank,
			Rating:      l.Rating,
			ReviewCount: l.ReviewCount,
		})
	}

	return &service.LookupResult{
		TargetRank: out.TargetRank,
		TopResults: top,
	}, nil
}

// runnerAdapter adapts the orchestrator to consumer.ScanRunner
type runnerAdapter struct {
	orch *service.Orchestrator
}

func (a *runnerAdapter) RunScan(ctx context.Context, campaignID string, keywords []string) error {
	_, err := a.orch.RunScan(ctx, campaignID, keywords)
	return err
}
