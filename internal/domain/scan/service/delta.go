package service

import (
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
)

// ApplyRankChanges augments each current stat with the signed change in
// average rank against the previous completed scan's stats for the same
// campaign: previous - current, so a positive value means the business
// moved toward rank 1.
//
// New entrants keep a nil change, and businesses present only in the
// previous scan are not carried forward. With no previous stats (first
// scan for a campaign) every change stays nil.
func ApplyRankChanges(current []entity.CompetitorStat, previous []entity.CompetitorStat) {
	if len(previous) == 0 {
		return
	}

	prevByIdentity := make(map[string]float64, len(previous))
	for _, p := range previous {
		prevByIdentity[p.Identity()] = p.AvgRank
	}

	for i := range current {
		if prevAvg, ok := prevByIdentity[current[i].Identity()]; ok {
			change := prevAvg - current[i].AvgRank
			current[i].RankChange = &change
		}
	}
}
