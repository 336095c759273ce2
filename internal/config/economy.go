package config

import "time"

const (
	// Matchmaking
	MaxJoinsPerWindow  = 3
	JoinRateWindow     = 60 * time.Second
	CandidateScanLimit = 500
	MatcherTickPeriod  = 2 * time.Second

	// Match score weights
	ScorePerCommonAnswer = 200
	ScoreSparkProximity  = 1000
	ScoreBothPrime       = 300
	ScoreBothVerified    = 200
	ScoreCloseAge        = 100
	ScoreNearby          = 150
	CloseAgeYears        = 5
	NearbyDistanceKm     = 10.0

	// Queue priority weights
	PriorityBoost         = 1000
	PriorityPrime         = 500
	PriorityVerified      = 200
	PrioritySparkDivisor  = 10
	PrioritySparkCap      = 300
	PriorityAccountAgeCap = 100

	// Gifts
	GiftMaxAmount = 1000
)

// Media unlock prices per type. The first item of a type a sender posts in a
// session is always free; every later one starts locked at this price.
var MediaPrices = map[string]int{
	"audio": 5,
	"photo": 20,
	"video": 50,
}

// StageDurations is how long a session stays in each stage before the
// time-based advancement moves it forward. Stage 5 has no duration: it is
// terminal and unlimited.
var StageDurations = map[int]time.Duration{
	1: 10 * time.Minute,
	2: 10 * time.Minute,
	3: 15 * time.Minute,
	4: 20 * time.Minute,
}
