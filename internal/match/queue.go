// Package match holds the matchmaking queue and the pairing strategies.
package match

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ebakoking/cardmatchapp-sub000/internal/config"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
)

// QueueEntry is a waiting user with the filter and profile snapshot taken at
// join time. The snapshot already has the effective gender want and the
// prime gating resolved, so strategies never touch the live profile.
type QueueEntry struct {
	UserID   string
	Nickname string
	JoinedAt time.Time
	Filters  models.FilterSnapshot
	Priority int

	Age        int
	Gender     string
	Prime      bool
	Verified   bool
	SparkTotal int
	Latitude   float64
	Longitude  float64
	Answers    []string
}

// NewEntry builds a queue entry from a live profile. Requested age range and
// max distance filters only take effect for prime users.
func NewEntry(u *models.User, req models.FilterSnapshot, now time.Time) *QueueEntry {
	e := &QueueEntry{
		UserID:     u.ID,
		Nickname:   u.Nickname,
		JoinedAt:   now,
		Age:        u.Age,
		Gender:     u.Gender,
		Prime:      u.IsPrime(now),
		Verified:   u.Verified,
		SparkTotal: u.SparkTotal,
		Latitude:   u.Latitude,
		Longitude:  u.Longitude,
		Answers:    u.Answers,
		Priority:   PriorityScore(u, now),
	}
	e.Filters.GenderWant = u.EffectiveGenderWant(now)
	e.Filters.MinCommonAnswers = req.MinCommonAnswers
	if e.Prime {
		e.Filters.AgeMin = req.AgeMin
		e.Filters.AgeMax = req.AgeMax
		e.Filters.MaxDistanceKm = req.MaxDistanceKm
	}
	return e
}

// PriorityScore ranks a waiting user for the candidate scan: boost, prime and
// verified status dominate, then accumulated spark and account age.
func PriorityScore(u *models.User, now time.Time) int {
	score := 0
	if u.IsBoosted(now) {
		score += config.PriorityBoost
	}
	if u.IsPrime(now) {
		score += config.PriorityPrime
	}
	if u.Verified {
		score += config.PriorityVerified
	}
	spark := u.SparkTotal / config.PrioritySparkDivisor
	if spark > config.PrioritySparkCap {
		spark = config.PrioritySparkCap
	}
	score += spark
	ageDays := int(now.Sub(u.CreatedAt).Hours() / 24)
	if ageDays > config.PriorityAccountAgeCap {
		ageDays = config.PriorityAccountAgeCap
	}
	if ageDays > 0 {
		score += ageDays
	}
	return score
}

// Registry holds the waiting users. One entry per user; all access goes
// through the mutex with narrow critical sections.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*QueueEntry
	limiters map[string]*rate.Limiter
}

func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*QueueEntry),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Join inserts or refreshes the entry for the user. Re-joining keeps the
// original join time so waiting users do not lose their place. Returns a
// RATE_LIMIT error after more than MaxJoinsPerWindow joins per window.
func (r *Registry) Join(e *QueueEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lim, ok := r.limiters[e.UserID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(config.JoinRateWindow/config.MaxJoinsPerWindow), config.MaxJoinsPerWindow)
		r.limiters[e.UserID] = lim
	}
	if !lim.Allow() {
		return models.NewAppError(models.CodeRateLimit, "too many join attempts, slow down")
	}

	if prev, ok := r.entries[e.UserID]; ok {
		e.JoinedAt = prev.JoinedAt
	}
	r.entries[e.UserID] = e
	return nil
}

// Restore puts an entry back without consuming the rate limit, used when a
// match attempt fails after the pair was already removed.
func (r *Registry) Restore(e *QueueEntry) {
	r.mu.Lock()
	r.entries[e.UserID] = e
	r.mu.Unlock()
}

// Leave removes the entry if present.
func (r *Registry) Leave(userID string) {
	r.mu.Lock()
	delete(r.entries, userID)
	r.mu.Unlock()
}

// Get returns the entry for userID, or nil.
func (r *Registry) Get(userID string) *QueueEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[userID]
}

// Len returns the number of waiting users.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns up to limit entries excluding excludeID, ordered by
// priority descending then join time ascending.
func (r *Registry) Snapshot(excludeID string, limit int) []*QueueEntry {
	r.mu.Lock()
	out := make([]*QueueEntry, 0, len(r.entries))
	for id, e := range r.entries {
		if id == excludeID {
			continue
		}
		out = append(out, e)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RemovePair removes both entries in one critical section, but only if both
// are still queued. Every match trigger funnels through here, so the same
// user can never be paired twice.
func (r *Registry) RemovePair(a, b string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[a]; !ok {
		return false
	}
	if _, ok := r.entries[b]; !ok {
		return false
	}
	delete(r.entries, a)
	delete(r.entries, b)
	return true
}
