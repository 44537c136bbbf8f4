package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

func successResult(keyword string, row, col int, listings ...entity.RankedBusiness) entity.KeywordScanResult {
	return entity.KeywordScanResult{
		ScanID:     "scan-1",
		Keyword:    keyword,
		Row:        row,
		Col:        col,
		Success:    true,
		TopResults: listings,
	}
}

func failedResult(keyword string, row, col int) entity.KeywordScanResult {
	return entity.KeywordScanResult{
		ScanID:       "scan-1",
		Keyword:      keyword,
		Row:          row,
		Col:          col,
		Success:      false,
		ErrorMessage: "lookup failed",
	}
}

func findStat(t *testing.T, stats []entity.CompetitorStat, identity string) entity.CompetitorStat {
	t.Helper()
	for _, s := range stats {
		if s.Identity() == identity {
			return s
		}
	}
	t.Fatalf("no stat with identity %q", identity)
	return entity.CompetitorStat{}
}

func TestAggregateRankOneEverywhereScoresFullShareOfVoice(t *testing.T) {
	target := entity.RankedBusiness{Name: "Joe's Plumbing", PlaceID: "target", Rank: 1}

	var results []entity.KeywordScanResult
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			results = append(results, successResult("plumber", row, col, target))
		}
	}

	agg := Aggregate("scan-1", results, "target", "Joe's Plumbing")

	require.NotNil(t, agg.ShareOfVoice)
	assert.InDelta(t, 1.0, *agg.ShareOfVoice, 1e-9)
	require.NotNil(t, agg.AvgRank)
	assert.InDelta(t, 1.0, *agg.AvgRank, 1e-9)
	assert.Equal(t, 9, agg.SuccessCount)
	assert.Equal(t, "Joe's Plumbing", agg.TopCompetitor)
}

func TestAggregateCountsAndShareOfVoice(t *testing.T) {
	target := func(rank int) entity.RankedBusiness {
		return entity.RankedBusiness{Name: "Joe's Plumbing", PlaceID: "target", Rank: rank}
	}
	rival := func(rank int) entity.RankedBusiness {
		return entity.RankedBusiness{Name: "Ace Plumbing", PlaceID: "rival", Rank: rank}
	}

	results := []entity.KeywordScanResult{
		successResult("plumber", 0, 0, target(1), rival(2)),
		successResult("plumber", 0, 1, target(2), rival(1)),
		successResult("plumber", 0, 2, target(4), rival(1)),
		failedResult("plumber", 1, 0),
	}

	agg := Aggregate("scan-1", results, "target", "Joe's Plumbing")

	assert.Equal(t, 3, agg.SuccessCount)
	assert.Equal(t, 1, agg.FailedCount)

	targetStat := findStat(t, agg.Stats, "target")
	assert.True(t, targetStat.IsTarget)
	assert.Equal(t, 3, targetStat.Appearances)
	assert.InDelta(t, 7.0/3.0, targetStat.AvgRank, 1e-9)
	assert.Equal(t, 2, targetStat.Top3Count)
	assert.Equal(t, 3, targetStat.Top10Count)
	// (1/1 + 1/2 + 1/4) / 3
	assert.InDelta(t, 1.75/3.0, targetStat.ShareOfVoice, 1e-9)

	rivalStat := findStat(t, agg.Stats, "rival")
	assert.False(t, rivalStat.IsTarget)
	assert.InDelta(t, 4.0/3.0, rivalStat.AvgRank, 1e-9)
	// (1/2 + 1/1 + 1/1) / 3
	assert.InDelta(t, 2.5/3.0, rivalStat.ShareOfVoice, 1e-9)

	// The rival outranks the target overall and leads the ordering.
	assert.Equal(t, "Ace Plumbing", agg.TopCompetitor)
	assert.Equal(t, "rival", agg.Stats[0].Identity())
}

func TestAggregateShareOfVoiceStaysInRange(t *testing.T) {
	results := []entity.KeywordScanResult{
		successResult("plumber", 0, 0,
			entity.RankedBusiness{Name: "A", PlaceID: "a", Rank: 1},
			entity.RankedBusiness{Name: "B", PlaceID: "b", Rank: 2},
			entity.RankedBusiness{Name: "C", PlaceID: "c", Rank: 3},
		),
		successResult("plumber", 0, 1,
			entity.RankedBusiness{Name: "B", PlaceID: "b", Rank: 1},
			entity.RankedBusiness{Name: "C", PlaceID: "c", Rank: 7},
		),
	}

	agg := Aggregate("scan-1", results, "a", "A")
	for _, s := range agg.Stats {
		assert.GreaterOrEqual(t, s.ShareOfVoice, 0.0)
		assert.LessOrEqual(t, s.ShareOfVoice, 1.0)
	}
}

func TestAggregateTargetAbsentFromResults(t *testing.T) {
	results := []entity.KeywordScanResult{
		successResult("plumber", 0, 0, entity.RankedBusiness{Name: "Ace Plumbing", PlaceID: "rival", Rank: 1}),
	}

	agg := Aggregate("scan-1", results, "target", "Joe's Plumbing")

	assert.Nil(t, agg.AvgRank)
	assert.Nil(t, agg.ShareOfVoice)
	assert.Equal(t, 1, agg.SuccessCount)
	assert.Equal(t, "Ace Plumbing", agg.TopCompetitor)
}

func TestAggregateAllPointsFailed(t *testing.T) {
	results := []entity.KeywordScanResult{
		failedResult("plumber", 0, 0),
		failedResult("plumber", 0, 1),
	}

	agg := Aggregate("scan-1", results, "target", "Joe's Plumbing")

	assert.Nil(t, agg.AvgRank)
	assert.Nil(t, agg.ShareOfVoice)
	assert.Empty(t, agg.Stats)
	assert.Equal(t, 2, agg.FailedCount)
	assert.Empty(t, agg.TopCompetitor)
}

func TestAggregateMatchesTargetByNormalizedName(t *testing.T) {
	// No place ID on either side; identity falls back to the lowercased name.
	results := []entity.KeywordScanResult{
		successResult("plumber", 0, 0, entity.RankedBusiness{Name: "JOE'S PLUMBING", Rank: 2}),
	}

	agg := Aggregate("scan-1", results, "", "Joe's Plumbing")

	require.NotNil(t, agg.AvgRank)
	assert.InDelta(t, 2.0, *agg.AvgRank, 1e-9)
	stat := findStat(t, agg.Stats, "joe's plumbing")
	assert.True(t, stat.IsTarget)
}

func TestAggregateKeepsLatestProfileFields(t *testing.T) {
	rating1 := 4.2
	rating2 := 4.5
	reviews := 120

	results := []entity.KeywordScanResult{
		successResult("plumber", 0, 0, entity.RankedBusiness{Name: "A", PlaceID: "a", Rank: 1, Rating: &rating1}),
		successResult("plumber", 0, 1, entity.RankedBusiness{Name: "A", PlaceID: "a", Rank: 1, Rating: &rating2, ReviewCount: &reviews}),
	}

	agg := Aggregate("scan-1", results, "a", "A")

	stat := findStat(t, agg.Stats, "a")
	require.NotNil(t, stat.Rating)
	assert.InDelta(t, 4.5, *stat.Rating, 1e-9)
	require.NotNil(t, stat.ReviewCount)
	assert.Equal(t, 120, *stat.ReviewCount)
}
