package chathub_test

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ebakoking/cardmatchapp-sub000/internal/chathub"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
	"github.com/ebakoking/cardmatchapp-sub000/internal/storage"
)

// MockStorage is a testify/mock implementation of the storage.Storage
// interface for hub and matcher tests.
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
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) SaveSession(session *models.ChatSession) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockStorage) GetSessionByID(sessionID string) (*models.ChatSession, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSession), args.Error(1)
}

func (m *MockStorage) CloseSession(sessionID string, endedAt time.Time) error {
	args := m.Called(sessionID, endedAt)
	return args.Error(0)
}

func (m *MockStorage) UpdateSessionStage(sessionID string, stage int, startedAt time.Time) error {
	args := m.Called(sessionID, stage, startedAt)
	return args.Error(0)
}

func (m *MockStorage) GetActiveSessions() ([]models.ChatSession, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatSession), args.Error(1)
}

func (m *MockStorage) SaveMatchRecord(rec *models.MatchRecord) error {
	args := m.Called(rec)
	return args.Error(0)
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
	args := m.Called(blockerID, blockedID)
	return args.Error(0)
}

func (m *MockStorage) SaveMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
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
	args := m.Called(messageID, viewerID, at)
	return args.Error(0)
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
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) SetOffline(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockClient is a test double for the chathub.Client interface. The send
// channel is buffered so hub tests never block.
type MockClient struct {
	userID    string
	sessionID string
	send      chan models.Event
	closed    bool
}

func newMockClient(id string) *MockClient {
	return newMockClientWithBuffer(id, 16)
}

func newMockClientWithBuffer(id string, size int) *MockClient {
	return &MockClient{
		userID: id,
		send:   make(chan models.Event, size),
	}
}

func (c *MockClient) GetUserID() string                   { return c.userID }
func (c *MockClient) GetSessionID() string                { return c.sessionID }
func (c *MockClient) SetSessionID(id string)              { c.sessionID = id }
func (c *MockClient) GetSendChannel() chan<- models.Event { return c.send }
func (c *MockClient) Run()                                {}

func (c *MockClient) Close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Drain returns every event buffered for this client.
func (c *MockClient) Drain() []models.Event {
	var out []models.Event
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

// CountType counts buffered events of one type.
func (c *MockClient) CountType(evType string) int {
	n := 0
	for _, ev := range c.Drain() {
		if ev.Type == evType {
			n++
		}
	}
	return n
}

var _ chathub.Client = (*MockClient)(nil)
