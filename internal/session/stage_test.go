package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebakoking/cardmatchapp-sub000/internal/session"
)

func newClockedSession(t0 time.Time) (*session.Active, *time.Time) {
	cur := t0
	act := session.NewActive("s1", "u1", "u2", t0)
	act.Now = func() time.Time { return cur }
	return act, &cur
}

func TestAdvanceWaitsForStageDuration(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	act, cur := newClockedSession(t0)

	*cur = t0.Add(9 * time.Minute)
	stage, advanced := act.Advance()
	assert.Equal(t, 1, stage)
	assert.False(t, advanced)
}

func TestAdvanceFiresExactlyOnce(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	act, cur := newClockedSession(t0)

	*cur = t0.Add(11 * time.Minute)
	stage, advanced := act.Advance()
	require.True(t, advanced)
	assert.Equal(t, 2, stage)

	// The stage clock restarted; a redundant evaluation is a no-op.
	stage, advanced = act.Advance()
	assert.Equal(t, 2, stage)
	assert.False(t, advanced)
}

func TestAdvanceStopsAtFinalStage(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	act, cur := newClockedSession(t0)

	// Walk the full ladder: 10m, 10m, 15m, 20m.
	for _, want := range []int{2, 3, 4, 5} {
		*cur = cur.Add(21 * time.Minute)
		stage, advanced := act.Advance()
		require.True(t, advanced)
		require.Equal(t, want, stage)
	}

	*cur = cur.Add(24 * time.Hour)
	stage, advanced := act.Advance()
	assert.Equal(t, session.MaxStage, stage)
	assert.False(t, advanced)
}

func TestAdvanceAfterEndIsNoop(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	act, cur := newClockedSession(t0)

	require.True(t, act.End())
	*cur = t0.Add(time.Hour)

	stage, advanced := act.Advance()
	assert.Equal(t, 1, stage)
	assert.False(t, advanced)
}

func TestEndIsExactlyOnce(t *testing.T) {
	act := session.NewActive("s1", "u1", "u2", time.Now())

	assert.True(t, act.End())
	assert.False(t, act.End())
	assert.True(t, act.Ended())
}

func TestRestoreStageClampsToValidRange(t *testing.T) {
	act := session.NewActive("s1", "u1", "u2", time.Now())

	act.RestoreStage(0)
	assert.Equal(t, session.MinStage, act.Stage())

	act.RestoreStage(9)
	assert.Equal(t, session.MaxStage, act.Stage())

	act.RestoreStage(3)
	assert.Equal(t, 3, act.Stage())
}

func TestPeerOf(t *testing.T) {
	act := session.NewActive("s1", "u1", "u2", time.Now())
	assert.Equal(t, "u2", act.PeerOf("u1"))
	assert.Equal(t, "u1", act.PeerOf("u2"))
	assert.Empty(t, act.PeerOf("stranger"))
}

func TestFeaturesAreAdditive(t *testing.T) {
	assert.ElementsMatch(t, []string{"text", "gift"}, session.Features(1))
	assert.ElementsMatch(t, []string{"text", "gift", "audio", "photo"}, session.Features(3))
	assert.Len(t, session.Features(5), 6)

	assert.True(t, session.HasFeature(1, session.FeatureText))
	assert.False(t, session.HasFeature(2, session.FeaturePhoto))
	assert.True(t, session.HasFeature(4, session.FeatureAudio))
}

func TestMediaFeatureMapping(t *testing.T) {
	assert.Equal(t, session.FeatureAudio, session.MediaFeature("audio"))
	assert.Equal(t, session.FeaturePhoto, session.MediaFeature("photo"))
	assert.Equal(t, session.FeatureVideo, session.MediaFeature("video"))
	assert.Equal(t, session.FeatureText, session.MediaFeature("text"))
}
