package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
)

// Storage is the persistence surface the realtime core consumes. The
// relational store backs the entities and the atomic financial transactions;
// redis backs presence.
type Storage interface {
	GetUserByID(id string) (*models.User, error)
	SaveUser(user *models.User) error

	SaveSession(session *models.ChatSession) error
	GetSessionByID(sessionID string) (*models.ChatSession, error)
	CloseSession(sessionID string, endedAt time.Time) error
	UpdateSessionStage(sessionID string, stage int, startedAt time.Time) error
	GetActiveSessions() ([]models.ChatSession, error)

	SaveMatchRecord(rec *models.MatchRecord) error
	HaveMatched(userA, userB string) (bool, error)
	IsBlockedEither(userA, userB string) (bool, error)
	SaveBlock(blockerID, blockedID string) error

	SaveMessage(msg *models.Message) error
	GetMessageByID(id uint) (*models.Message, error)
	CountPriorMedia(sessionID, senderID, mediaType string) (int64, error)
	MarkViewed(messageID uint, viewerID string, at time.Time) error

	UnlockMedia(messageID uint, viewerID string, at time.Time) (*UnlockResult, error)
	TransferTokens(fromID, toID, sessionID string, amount int) (*TransferResult, error)

	SetOnline(userID string) error
	SetOffline(userID string) (int64, error)
}

// Service implements Storage on top of gorm (PostgreSQL) and redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService constructor.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// GetUserByID loads a user, mapping gorm's not-found to a NOT_FOUND error.
func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewAppError(models.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveUser persists a user.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// SaveSession persists a chat session.
func (s *Service) SaveSession(session *models.ChatSession) error {
	return s.DB.Save(session).Error
}

// GetSessionByID loads a session by its UUID.
func (s *Service) GetSessionByID(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.DB.First(&session, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewAppError(models.CodeNotFound, "session not found")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseSession sets the ended timestamp. The WHERE guard keeps it idempotent:
// a session already ended is untouched.
func (s *Service) CloseSession(sessionID string, endedAt time.Time) error {
	return s.DB.Model(&models.ChatSession{}).
		Where("session_id = ? AND ended_at IS NULL", sessionID).
		Update("ended_at", endedAt).Error
}

// UpdateSessionStage persists a stage advancement. The stage guard keeps the
// column monotonic even under redundant concurrent evaluation.
func (s *Service) UpdateSessionStage(sessionID string, stage int, startedAt time.Time) error {
	return s.DB.Model(&models.ChatSession{}).
		Where("session_id = ? AND stage < ?", sessionID, stage).
		Updates(map[string]interface{}{
			"stage":            stage,
			"stage_started_at": startedAt,
		}).Error
}

// GetActiveSessions returns every session without an ended timestamp, used
// to restore runtime state after a restart.
func (s *Service) GetActiveSessions() ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := s.DB.Where("ended_at IS NULL").Find(&sessions).Error; err != nil {
		log.Error().Err(err).Msg("failed to load active sessions")
		return nil, err
	}
	return sessions, nil
}

// SaveMatchRecord appends a pair to the permanent match history.
func (s *Service) SaveMatchRecord(rec *models.MatchRecord) error {
	return s.DB.Create(rec).Error
}

// HaveMatched reports whether the two users appear together in the match
// history, in either order.
func (s *Service) HaveMatched(userA, userB string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.MatchRecord{}).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", userA, userB, userB, userA).
		Count(&count).Error
	return count > 0, err
}

// IsBlockedEither reports whether either user has blocked the other.
func (s *Service) IsBlockedEither(userA, userB string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", userA, userB, userB, userA).
		Count(&count).Error
	return count > 0, err
}

// SaveBlock records a block between two users.
func (s *Service) SaveBlock(blockerID, blockedID string) error {
	return s.DB.Create(&models.UserBlock{BlockerID: blockerID, BlockedID: blockedID}).Error
}

// SaveMessage persists a message; the generated ID is written back so it can
// be published.
func (s *Service) SaveMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Error().Err(err).Str("session", msg.SessionID).Msg("failed to save message")
		return err
	}
	return nil
}

// GetMessageByID loads a message by primary key.
func (s *Service) GetMessageByID(id uint) (*models.Message, error) {
	var msg models.Message
	err := s.DB.First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewAppError(models.CodeNotFound, "message not found")
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CountPriorMedia counts messages of the given media type this sender has
// already posted in the session. Zero means the next one is the free one.
func (s *Service) CountPriorMedia(sessionID, senderID, mediaType string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Message{}).
		Where("session_id = ? AND sender_id = ? AND media_type = ?", sessionID, senderID, mediaType).
		Count(&count).Error
	return count, err
}

// MarkViewed records a free view. No balance is involved.
func (s *Service) MarkViewed(messageID uint, viewerID string, at time.Time) error {
	return s.DB.Model(&models.Message{}).
		Where("id = ? AND viewed_by IS NULL", messageID).
		Updates(map[string]interface{}{
			"viewed_by": viewerID,
			"viewed_at": at,
		}).Error
}
