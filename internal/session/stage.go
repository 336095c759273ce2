// Package session implements the time-based stage progression of a chat
// session and its exactly-once termination.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebakoking/cardmatchapp-sub000/internal/config"
)

// Stage bounds. A session starts at MinStage and only ever moves forward;
// MaxStage is terminal and has no duration.
const (
	MinStage = 1
	MaxStage = 5
)

var stageNames = map[int]string{
	1: "TEXT_GIFT",
	2: "AUDIO",
	3: "PHOTO",
	4: "VIDEO",
	5: "FRIEND",
}

// Feature flags per stage; sets are additive.
const (
	FeatureText   = "text"
	FeatureGift   = "gift"
	FeatureAudio  = "audio"
	FeaturePhoto  = "photo"
	FeatureVideo  = "video"
	FeatureFriend = "friend_request"
)

var stageFeatures = map[int][]string{
	1: {FeatureText, FeatureGift},
	2: {FeatureAudio},
	3: {FeaturePhoto},
	4: {FeatureVideo},
	5: {FeatureFriend},
}

// StageName returns the human-readable name of a stage.
func StageName(stage int) string {
	return stageNames[stage]
}

// Features returns the full additive feature set active at the given stage.
func Features(stage int) []string {
	var out []string
	for s := MinStage; s <= stage && s <= MaxStage; s++ {
		out = append(out, stageFeatures[s]...)
	}
	return out
}

// HasFeature reports whether the feature is available at the stage.
func HasFeature(stage int, feature string) bool {
	for _, f := range Features(stage) {
		if f == feature {
			return true
		}
	}
	return false
}

// MediaFeature maps a media type to the stage feature that gates it.
func MediaFeature(mediaType string) string {
	switch mediaType {
	case "audio":
		return FeatureAudio
	case "photo":
		return FeaturePhoto
	case "video":
		return FeatureVideo
	default:
		return FeatureText
	}
}

// Active is the in-memory runtime of one live session. Stage mutation is
// mutex-guarded; ending uses a CAS flag so leave and disconnect can both
// fire without ending the session twice.
type Active struct {
	ID      string
	User1ID string
	User2ID string

	mu             sync.Mutex
	stage          int
	stageStartedAt time.Time

	ended atomic.Bool

	// Now is the clock; tests swap it for a fake.
	Now func() time.Time
}

// NewActive starts a session runtime at stage 1.
func NewActive(id, user1, user2 string, startedAt time.Time) *Active {
	return &Active{
		ID:             id,
		User1ID:        user1,
		User2ID:        user2,
		stage:          MinStage,
		stageStartedAt: startedAt,
		Now:            time.Now,
	}
}

// RestoreStage sets the stage when rebuilding runtime state from storage,
// clamped to the valid range.
func (a *Active) RestoreStage(stage int) {
	if stage < MinStage {
		stage = MinStage
	}
	if stage > MaxStage {
		stage = MaxStage
	}
	a.mu.Lock()
	a.stage = stage
	a.mu.Unlock()
}

// Stage returns the current stage.
func (a *Active) Stage() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stage
}

// PeerOf returns the other participant, or "" for a non-participant.
func (a *Active) PeerOf(userID string) string {
	switch userID {
	case a.User1ID:
		return a.User2ID
	case a.User2ID:
		return a.User1ID
	}
	return ""
}

// Advance moves the session to the next stage when the current stage's
// duration has elapsed. Purely time based; safe to call redundantly from
// activity handlers and the periodic tick, since an already-advanced stage is
// a no-op. Returns the stage after evaluation and whether it just advanced.
func (a *Active) Advance() (stage int, advanced bool) {
	if a.ended.Load() {
		return a.Stage(), false
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	dur, ok := config.StageDurations[a.stage]
	if !ok || a.stage >= MaxStage {
		return a.stage, false
	}
	now := a.Now()
	if now.Sub(a.stageStartedAt) < dur {
		return a.stage, false
	}
	a.stage++
	a.stageStartedAt = now
	return a.stage, true
}

// End marks the session ended. Only the first caller gets true; every later
// trigger (explicit leave, transport close) sees false.
func (a *Active) End() bool {
	return a.ended.CompareAndSwap(false, true)
}

// Ended reports whether the session has been ended.
func (a *Active) Ended() bool {
	return a.ended.Load()
}
