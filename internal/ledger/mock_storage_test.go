package ledger_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ebakoking/cardmatchapp-sub000/internal/features"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
	"github.com/ebakoking/cardmatchapp-sub000/internal/storage"
)

// MockStorage is a testify/mock implementation of storage.Storage for ledger
// tests.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveUser(user *models.User) error {
	return m.Called(user).Error(0)
}

func (m *MockStorage) SaveSession(session *models.ChatSession) error {
	return m.Called(session).Error(0)
}

func (m *MockStorage) GetSessionByID(sessionID string) (*models.ChatSession, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

func (m *MockStorage) CloseSession(sessionID string, endedAt time.Time) error {
	return m.Called(sessionID, endedAt).Error(0)
}

func (m *MockStorage) UpdateSessionStage(sessionID string, stage int, startedAt time.Time) error {
	return m.Called(sessionID, stage, startedAt).Error(0)
}

func (m *MockStorage) GetActiveSessions() ([]models.ChatSession, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatSession), args.Error(1)
}

func (m *MockStorage) SaveMatchRecord(rec *models.MatchRecord) error {
	return m.Called(rec).Error(0)
}

func (m *MockStorage) HaveMatched(userA, userB string) (bool, error) {
	args := m.Called(userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) IsBlockedEither(userA, userB string) (bool, error) {
	args := m.Called(userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) SaveBlock(blockerID, blockedID string) error {
	return m.Called(blockerID, blockedID).Error(0)
}

func (m *MockStorage) SaveMessage(msg *models.Message) error {
	return m.Called(msg).Error(0)
}

func (m *MockStorage) GetMessageByID(id uint) (*models.Message, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) CountPriorMedia(sessionID, senderID, mediaType string) (int64, error) {
	args := m.Called(sessionID, senderID, mediaType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) MarkViewed(messageID uint, viewerID string, at time.Time) error {
	return m.Called(messageID, viewerID, at).Error(0)
}

func (m *MockStorage) UnlockMedia(messageID uint, viewerID string, at time.Time) (*storage.UnlockResult, error) {
	args := m.Called(messageID, viewerID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UnlockResult), args.Error(1)
}

func (m *MockStorage) TransferTokens(fromID, toID, sessionID string, amount int) (*storage.TransferResult, error) {
	args := m.Called(fromID, toID, sessionID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.TransferResult), args.Error(1)
}

func (m *MockStorage) SetOnline(userID string) error {
	return m.Called(userID).Error(0)
}

func (m *MockStorage) SetOffline(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

// stubFlags is a fixed FlagSource.
type stubFlags struct {
	flags features.Flags
	err   error
}

func (s stubFlags) Flags(ctx context.Context) (features.Flags, error) {
	return s.flags, s.err
}
