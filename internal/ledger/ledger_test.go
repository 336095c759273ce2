package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ebakoking/cardmatchapp-sub000/internal/features"
	"github.com/ebakoking/cardmatchapp-sub000/internal/ledger"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
	"github.com/ebakoking/cardmatchapp-sub000/internal/storage"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(ms *MockStorage) *ledger.Service {
	svc := ledger.NewService(ms, stubFlags{flags: features.Flags{TokenGiftEnabled: true}})
	svc.Now = func() time.Time { return testNow }
	return svc
}

func TestPrepareMediaFirstOfTypeIsFree(t *testing.T) {
	ms := new(MockStorage)
	svc := newTestService(ms)

	ms.On("CountPriorMedia", "s1", "u1", "photo").Return(int64(0), nil)
	ms.On("SaveMessage", mock.AnythingOfType("*models.Message")).Return(nil)

	msg, err := svc.PrepareMedia("s1", "u1", "photo", "https://cdn/img.jpg", 0)
	require.NoError(t, err)
	assert.True(t, msg.IsFirstFree)
	assert.False(t, msg.Locked)
	assert.Zero(t, msg.MediaPrice)
	ms.AssertExpectations(t)
}

func TestPrepareMediaSubsequentIsLockedAtTypePrice(t *testing.T) {
	cases := []struct {
		mediaType string
		price     int
	}{
		{"audio", 5},
		{"photo", 20},
		{"video", 50},
	}
	for _, tc := range cases {
		t.Run(tc.mediaType, func(t *testing.T) {
			ms := new(MockStorage)
			svc := newTestService(ms)

			ms.On("CountPriorMedia", "s1", "u1", tc.mediaType).Return(int64(2), nil)
			ms.On("SaveMessage", mock.AnythingOfType("*models.Message")).Return(nil)

			msg, err := svc.PrepareMedia("s1", "u1", tc.mediaType, "url", 10)
			require.NoError(t, err)
			assert.False(t, msg.IsFirstFree)
			assert.True(t, msg.Locked)
			assert.Equal(t, tc.price, msg.MediaPrice)
		})
	}
}

func TestPrepareMediaRejectsUnknownType(t *testing.T) {
	ms := new(MockStorage)
	svc := newTestService(ms)

	_, err := svc.PrepareMedia("s1", "u1", "hologram", "url", 0)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	ms.AssertNotCalled(t, "SaveMessage", mock.Anything)
}

func TestViewOwnMessageIsFree(t *testing.T) {
	ms := new(MockStorage)
	svc := newTestService(ms)

	ms.On("GetMessageByID", uint(7)).Return(&models.Message{
		SenderID: "u1", MediaType: models.MediaPhoto, Locked: true, MediaPrice: 20,
	}, nil)
	ms.On("MarkViewed", uint(7), "u1", testNow).Return(nil)
	ms.On("GetUserByID", "u1").Return(&models.User{ID: "u1", Balance: 42}, nil)

	out, err := svc.View(7, "u1")
	require.NoError(t, err)
	assert.True(t, out.Viewed.Free)
	assert.Zero(t, out.Viewed.Cost)
	assert.Equal(t, 42, out.Viewed.NewBalance)
	assert.Nil(t, out.SparkUpdate)
	ms.AssertNotCalled(t, "UnlockMedia", mock.Anything, mock.Anything, mock.Anything)
}

func TestViewIsIdempotentForTheSameViewer(t *testing.T) {
	ms := new(MockStorage)
	svc := newTestService(ms)

	viewer := "u2"
	ms.On("GetMessageByID", uint(7)).Return(&models.Message{
		SenderID: "u1", MediaType: models.MediaPhoto, ViewedBy: &viewer,
	}, nil)
	ms.On("GetUserByID", "u2").Return(&models.User{ID: "u2", Balance: 80}, nil)

	out, err := svc.View(7, "u2")
	require.NoError(t, err)
	assert.True(t, out.Viewed.Free)
	assert.Zero(t, out.Viewed.Cost)
	ms.AssertNotCalled(t, "MarkViewed", mock.Anything, mock.Anything, mock.Anything)
	ms.AssertNotCalled(t, "UnlockMedia", mock.Anything, mock.Anything, mock.Anything)
}

func TestViewUnlockedMessageIsFree(t *testing.T) {
	ms := new(MockStorage)
	svc := newTestService(ms)

	ms.On("GetMessageByID", uint(7)).Return(&models.Message{
		SenderID: "u1", MediaType: models.MediaPhoto, IsFirstFree: true,
	}, nil)
	ms.On("MarkViewed", uint(7), "u2", testNow).Return(nil)
	ms.On("GetUserByID", "u2").Return(&models.User{ID: "u2", Balance: 80}, nil)

	out, err := svc.View(7, "u2")
	require.NoError(t, err)
	assert.True(t, out.Viewed.Free)
	assert.Equal(t, "u1", out.SenderID)
}

func TestViewLockedMessageChargesAndCreditsSpark(t *testing.T) {
	ms := new(MockStorage)
	svc := newTestService(ms)

	ms.On("GetMessageByID", uint(7)).Return(&models.Message{
		SenderID: "u1", MediaType: models.MediaPhoto, Locked: true, MediaPrice: 20,
	}, nil)
	ms.On("UnlockMedia", uint(7), "u2", testNow).Return(&storage.UnlockResult{
		Price:              20,
		ViewerBalance:      0,
		SenderID:           "u1",
		SenderSparkMonthly: 20,
		SenderSparkTotal:   120,
	}, nil)

	out, err := svc.View(7, "u2")
	require.NoError(t, err)
	assert.False(t, out.Viewed.Free)
	assert.Equal(t, 20, out.Viewed.Cost)
	assert.Zero(t, out.Viewed.NewBalance)
	assert.Equal(t, "u1", out.SenderID)
	require.NotNil(t, out.SparkUpdate)
	assert.Equal(t, 20, out.SparkUpdate.SparkMonthly)
	assert.Equal(t, 120, out.SparkUpdate.SparkTotal)
}

func TestViewLockedAlreadyUnlockedByRaceIsFree(t *testing.T) {
	ms := new(MockStorage)
	svc := newTestService(ms)

	ms.On("GetMessageByID", uint(7)).Return(&models.Message{
		SenderID: "u1", MediaType: models.MediaPhoto, Locked: true, MediaPrice: 20,
	}, nil)
	ms.On("UnlockMedia", uint(7), "u2", testNow).Return(&storage.UnlockResult{
		SenderID: "u1", AlreadyUnlocked: true,
	}, nil)
	ms.On("MarkViewed", uint(7), "u2", testNow).Return(nil)
	ms.On("GetUserByID", "u2").Return(&models.User{ID: "u2", Balance: 80}, nil)

	out, err := svc.View(7, "u2")
	require.NoError(t, err)
	assert.True(t, out.Viewed.Free)
	assert.Nil(t, out.SparkUpdate)
}

func TestViewInsufficientBalance(t *testing.T) {
	ms := new(MockStorage)
	svc := newTestService(ms)

	ms.On("GetMessageByID", uint(7)).Return(&models.Message{
		SenderID: "u1", MediaType: models.MediaVideo, Locked: true, MediaPrice: 50,
	}, nil)
	ms.On("UnlockMedia", uint(7), "u2", testNow).Return(nil, models.NewInsufficientBalance(50, 10))

	_, err := svc.View(7, "u2")
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeInsufficientBalance, appErr.Code)
	assert.Equal(t, 50, appErr.Required)
	assert.Equal(t, 10, appErr.Balance)
}
