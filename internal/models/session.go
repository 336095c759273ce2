package models

import "time"

// ChatSession is a 1-on-1 session between two matched users. The stage is
// monotonic in [1,5]; EndedAt is set exactly once, after which the row is
// immutable history.
type ChatSession struct {
	// SessionID is the unique identifier for the session (UUID).
	SessionID string `gorm:"primaryKey" json:"sessionId"`
	User1ID   string `gorm:"index" json:"user1Id"`
	User2ID   string `gorm:"index" json:"user2Id"`
	// Stage is the current progression level, 1..5, non-decreasing.
	Stage          int        `gorm:"not null;default:1" json:"stage"`
	StageStartedAt time.Time  `json:"stageStartedAt"`
	StartedAt      time.Time  `json:"startedAt"`
	EndedAt        *time.Time `json:"endedAt"`
}

// PeerOf returns the other participant of the session, or "" if userID is
// not a participant.
func (s *ChatSession) PeerOf(userID string) string {
	switch userID {
	case s.User1ID:
		return s.User2ID
	case s.User2ID:
		return s.User1ID
	}
	return ""
}

// MatchRecord is the permanent pair history. Two users present together in
// this table are never paired again.
type MatchRecord struct {
	ID        uint   `gorm:"primaryKey"`
	MatchID   string `gorm:"uniqueIndex"`
	User1ID   string `gorm:"index:idx_match_pair"`
	User2ID   string `gorm:"index:idx_match_pair"`
	SessionID string
	CreatedAt time.Time
}

// UserBlock bars matching in both directions between blocker and blocked.
type UserBlock struct {
	ID        uint   `gorm:"primaryKey"`
	BlockerID string `gorm:"index"`
	BlockedID string `gorm:"index"`
	CreatedAt time.Time
}
