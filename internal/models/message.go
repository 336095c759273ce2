package models

import (
	"time"

	"gorm.io/gorm"
)

// Media types a message can carry.
const (
	MediaNone  = "none"
	MediaPhoto = "photo"
	MediaVideo = "video"
	MediaAudio = "audio"
	MediaGift  = "gift"
)

// Message represents a saved chat message. The embedded gorm.Model provides
// ID, CreatedAt, UpdatedAt, and DeletedAt fields.
type Message struct {
	gorm.Model

	SessionID string `gorm:"type:uuid;not null;index:idx_session_msg" json:"sessionId"`
	SenderID  string `gorm:"type:text;not null;index:idx_session_msg" json:"senderId"`
	// MediaType is one of the Media* constants; "none" for plain text.
	MediaType string `gorm:"type:text;not null" json:"mediaType"`
	// Content is the text body or the media URL.
	Content string `gorm:"type:text" json:"content"`
	// DurationSec applies to audio/video media.
	DurationSec int `json:"duration,omitempty"`

	// Locked transitions true -> false exactly once and never reverses.
	Locked      bool `gorm:"not null;default:false" json:"locked"`
	IsFirstFree bool `gorm:"not null;default:false" json:"isFirstFree"`
	MediaPrice  int  `gorm:"not null;default:0" json:"mediaPrice"`

	ViewedBy *string    `json:"viewedBy,omitempty"`
	ViewedAt *time.Time `json:"viewedAt,omitempty"`
}

// Gift is a direct token transfer between two users. It is always persisted
// inside the same transaction as the paired balance debit and credit.
type Gift struct {
	ID         uint   `gorm:"primaryKey"`
	SenderID   string `gorm:"index"`
	ReceiverID string `gorm:"index"`
	SessionID  string `gorm:"index"`
	Amount     int    `gorm:"not null"`
	CreatedAt  time.Time
}

// SparkTransaction is an append-only ledger row recorded whenever a media
// unlock charges tokens.
type SparkTransaction struct {
	ID         uint   `gorm:"primaryKey"`
	FromUserID string `gorm:"index"`
	ToUserID   string `gorm:"index"`
	Amount     int    `gorm:"not null"`
	Reason     string `gorm:"type:text"`
	CreatedAt  time.Time
}
