package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

func TestApplyRankChangesFirstScanKeepsNil(t *testing.T) {
	current := []entity.CompetitorStat{
		{PlaceID: "a", Name: "A", AvgRank: 3.0},
	}

	ApplyRankChanges(current, nil)

	assert.Nil(t, current[0].RankChange)
}

func TestApplyRankChangesPositiveMeansImprovement(t *testing.T) {
	current := []entity.CompetitorStat{
		{PlaceID: "a", Name: "A", AvgRank: 4.0},
		{PlaceID: "b", Name: "B", AvgRank: 6.0},
	}
	previous := []entity.CompetitorStat{
		{PlaceID: "a", Name: "A", AvgRank: 10.0},
		{PlaceID: "b", Name: "B", AvgRank: 2.0},
	}

	ApplyRankChanges(current, previous)

	require.NotNil(t, current[0].RankChange)
	assert.InDelta(t, 6.0, *current[0].RankChange, 1e-9)

	require.NotNil(t, current[1].RankChange)
	assert.InDelta(t, -4.0, *current[1].RankChange, 1e-9)
}

func TestApplyRankChangesNewEntrantStaysNil(t *testing.T) {
	current := []entity.CompetitorStat{
		{PlaceID: "a", Name: "A", AvgRank: 4.0},
		{PlaceID: "new", Name: "Newcomer", AvgRank: 1.0},
	}
	previous := []entity.CompetitorStat{
		{PlaceID: "a", Name: "A", AvgRank: 5.0},
		{PlaceID: "gone", Name: "Departed", AvgRank: 2.0},
	}

	ApplyRankChanges(current, previous)

	require.NotNil(t, current[0].RankChange)
	assert.InDelta(t, 1.0, *current[0].RankChange, 1e-9)
	assert.Nil(t, current[1].RankChange)

	// Businesses present only in the previous scan are not carried forward.
	assert.Len(t, current, 2)
}

func TestApplyRankChangesMatchesByIdentityFallback(t *testing.T) {
	// No place IDs; matching falls back to normalized names.
	current := []entity.CompetitorStat{
		{Name: "Joe's Plumbing", AvgRank: 2.0},
	}
	previous := []entity.CompetitorStat{
		{Name: "JOE'S PLUMBING", AvgRank: 5.0},
	}

	ApplyRankChanges(current, previous)

	require.NotNil(t, current[0].RankChange)
	assert.InDelta(t, 3.0, *current[0].RankChange, 1e-9)
}
