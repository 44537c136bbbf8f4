package service

import (
	"sort"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

// Aggregation is the reduced view of a scan's raw point results
type Aggregation struct {
	Stats        []entity.CompetitorStat
	AvgRank      *float64 // target's average rank; nil if it never ranked
	ShareOfVoice *float64 // target's share of voice; nil with no successful results
	TopCompetitor string  // business with the highest share of voice
	SuccessCount int
	FailedCount  int
}

// competitorAcc accumulates one business's appearances across point results
type competitorAcc struct {
	placeID     string
	name        string
	rankSum     int
	appearances int
	top3        int
	top10       int
	top20       int
	weight      float64
	rating      *float64
	reviewCount *int
}

// Aggregate reduces a scan's point results into one CompetitorStat per
// distinct business identity observed, including the target.
//
// Average rank is the mean over point-results the business actually ranked
// in; absences are excluded, not treated as worst-case ranks. Share of
// voice weights each appearance by 1/rank and divides by the number of
// successful point-results, so a business at rank 1 everywhere scores 1.0
// and the values always fall in [0, 1]. Each business is scored against
// that per-business maximum independently, so the scores of different
// businesses at one point can sum past 1.0.
func Aggregate(scanID string, results []entity.KeywordScanResult, targetPlaceID, targetName string) Aggregation {
	agg := Aggregation{}
	accs := make(map[string]*competitorAcc)

	for _, r := range results {
		if !r.Success {
			agg.FailedCount++
			continue
		}
		agg.SuccessCount++

		for _, b := range r.TopResults {
			key := b.Identity()
			acc, ok := accs[key]
			if !ok {
				acc = &competitorAcc{placeID: b.PlaceID, name: b.Name}
				accs[key] = acc
			}

			acc.rankSum += b.Rank
			acc.appearances++
			acc.weight += 1.0 / float64(b.Rank)
			if b.Rank <= 3 {
				acc.top3++
			}
			if b.Rank <= 10 {
				acc.top10++
			}
			if b.Rank <= 20 {
				acc.top20++
			}
			// Keep the latest observed profile fields.
			if b.Rating != nil {
				acc.rating = b.Rating
			}
			if b.ReviewCount != nil {
				acc.reviewCount = b.ReviewCount
			}
		}
	}

	if agg.SuccessCount == 0 {
		return agg
	}

	targetKey := targetIdentity(targetPlaceID, targetName)
	stats := make([]entity.CompetitorStat, 0, len(accs))
	for key, acc := range accs {
		stat := entity.CompetitorStat{
			ScanID:       scanID,
			PlaceID:      acc.placeID,
			Name:         acc.name,
			IsTarget:     key == targetKey,
			AvgRank:      float64(acc.rankSum) / float64(acc.appearances),
			Appearances:  acc.appearances,
			Top3Count:    acc.top3,
			Top10Count:   acc.top10,
			Top20Count:   acc.top20,
			ShareOfVoice: acc.weight / float64(agg.SuccessCount),
			Rating:       acc.rating,
			ReviewCount:  acc.reviewCount,
		}
		stats = append(stats, stat)

		if stat.IsTarget {
			avg := stat.AvgRank
			sov := stat.ShareOfVoice
			agg.AvgRank = &avg
			agg.ShareOfVoice = &sov
		}
	}

	sortStats(stats)
	agg.Stats = stats
	if len(stats) > 0 {
		agg.TopCompetitor = stats[0].Name
	}

	return agg
}

// sortStats orders stats by share of voice descending, ties broken by lower
// average rank, then by identity string for a deterministic order.
func sortStats(stats []entity.CompetitorStat) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].ShareOfVoice != stats[j].ShareOfVoice {
			return stats[i].ShareOfVoice > stats[j].ShareOfVoice
		}
		if stats[i].AvgRank != stats[j].AvgRank {
			return stats[i].AvgRank < stats[j].AvgRank
		}
		return stats[i].Identity() < stats[j].Identity()
	})
}

func targetIdentity(placeID, name string) string {
	if placeID != "" {
		return placeID
	}
	return entity.NormalizeName(name)
}
