package match

import (
	"math"

	"github.com/ebakoking/cardmatchapp-sub000/internal/config"
)

// PairGuard answers the persistent pair constraints: previous match history
// and blocks in either direction.
type PairGuard interface {
	HaveMatched(userA, userB string) (bool, error)
	IsBlockedEither(userA, userB string) (bool, error)
}

// Strategy picks a partner for the seeker from the pool. The pool arrives
// pre-sorted by priority descending, join time ascending, and is already
// capped. Returns nil when nobody fits.
type Strategy interface {
	FindMatch(seeker *QueueEntry, pool []*QueueEntry, guard PairGuard) *QueueEntry
}

// BestScoreStrategy scans the whole pool, scores every eligible candidate
// and picks the maximum; earliest join time breaks ties.
type BestScoreStrategy struct{}

func (BestScoreStrategy) FindMatch(seeker *QueueEntry, pool []*QueueEntry, guard PairGuard) *QueueEntry {
	var best *QueueEntry
	bestScore := -1
	for _, cand := range pool {
		if !eligible(seeker, cand, guard) {
			continue
		}
		score := Score(seeker, cand)
		if score > bestScore || (score == bestScore && best != nil && cand.JoinedAt.Before(best.JoinedAt)) {
			best = cand
			bestScore = score
		}
	}
	return best
}

// FirstEligibleStrategy is the legacy pairwise scan: the first candidate that
// passes the symmetric checks wins. Kept selectable until product settles on
// one algorithm.
type FirstEligibleStrategy struct{}

func (FirstEligibleStrategy) FindMatch(seeker *QueueEntry, pool []*QueueEntry, guard PairGuard) *QueueEntry {
	for _, cand := range pool {
		if eligible(seeker, cand, guard) {
			return cand
		}
	}
	return nil
}

func eligible(seeker, cand *QueueEntry, guard PairGuard) bool {
	if cand.UserID == seeker.UserID {
		return false
	}
	// Guard errors fail closed: skipping a candidate is recoverable on the
	// next tick, a bad pairing is not.
	if matched, err := guard.HaveMatched(seeker.UserID, cand.UserID); err != nil || matched {
		return false
	}
	if blocked, err := guard.IsBlockedEither(seeker.UserID, cand.UserID); err != nil || blocked {
		return false
	}
	return PassesFilters(seeker, cand) && PassesFilters(cand, seeker)
}

// PassesFilters reports whether b satisfies a's filter snapshot. The full
// eligibility check applies it in both directions.
func PassesFilters(a, b *QueueEntry) bool {
	if a.Filters.GenderWant != "" && a.Filters.GenderWant != b.Gender {
		return false
	}
	if a.Filters.AgeMin > 0 && b.Age < a.Filters.AgeMin {
		return false
	}
	if a.Filters.AgeMax > 0 && b.Age > a.Filters.AgeMax {
		return false
	}
	if a.Filters.MaxDistanceKm > 0 {
		if DistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude) > a.Filters.MaxDistanceKm {
			return false
		}
	}
	if a.Filters.MinCommonAnswers > 0 && CommonAnswers(a, b) < a.Filters.MinCommonAnswers {
		return false
	}
	return true
}

// Score computes the compatibility score between two eligible entries.
func Score(a, b *QueueEntry) int {
	score := CommonAnswers(a, b) * config.ScorePerCommonAnswer

	sparkGap := a.SparkTotal - b.SparkTotal
	if sparkGap < 0 {
		sparkGap = -sparkGap
	}
	if prox := config.ScoreSparkProximity - sparkGap; prox > 0 {
		score += prox
	}

	if a.Prime && b.Prime {
		score += config.ScoreBothPrime
	}
	if a.Verified && b.Verified {
		score += config.ScoreBothVerified
	}

	ageGap := a.Age - b.Age
	if ageGap < 0 {
		ageGap = -ageGap
	}
	if ageGap <= config.CloseAgeYears {
		score += config.ScoreCloseAge
	}

	if DistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude) < config.NearbyDistanceKm {
		score += config.ScoreNearby
	}
	return score
}

// CommonAnswers counts quiz answers both users share.
func CommonAnswers(a, b *QueueEntry) int {
	if len(a.Answers) == 0 || len(b.Answers) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a.Answers))
	for _, ans := range a.Answers {
		set[ans] = struct{}{}
	}
	n := 0
	for _, ans := range b.Answers {
		if _, ok := set[ans]; ok {
			n++
		}
	}
	return n
}

const earthRadiusKm = 6371.0

// DistanceKm is the haversine great-circle distance between two coordinates.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
