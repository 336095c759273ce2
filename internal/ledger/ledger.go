// Package ledger owns the token economy: send-time media pricing, the paid
// reveal flow, and direct gifts.
package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ebakoking/cardmatchapp-sub000/internal/config"
	"github.com/ebakoking/cardmatchapp-sub000/internal/features"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
	"github.com/ebakoking/cardmatchapp-sub000/internal/storage"
)

// FlagSource yields the runtime feature flags the ledger consults.
type FlagSource interface {
	Flags(ctx context.Context) (features.Flags, error)
}

// Service executes unlock and gift flows against the storage layer.
type Service struct {
	Storage storage.Storage
	Flags   FlagSource

	// Now is the clock; tests swap it for a fake.
	Now func() time.Time
}

// NewService creates a ledger service.
func NewService(s storage.Storage, flags FlagSource) *Service {
	return &Service{Storage: s, Flags: flags, Now: time.Now}
}

// PrepareMedia persists a media message with its lock state decided at send
// time: the first item of a type from this sender in this session is free
// and unlocked, every later one starts locked at the type's configured
// price.
func (s *Service) PrepareMedia(sessionID, senderID, mediaType, content string, durationSec int) (*models.Message, error) {
	price, ok := config.MediaPrices[mediaType]
	if !ok {
		return nil, models.NewAppError(models.CodeValidation, "unknown media type")
	}

	prior, err := s.Storage.CountPriorMedia(sessionID, senderID, mediaType)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SessionID:   sessionID,
		SenderID:    senderID,
		MediaType:   mediaType,
		Content:     content,
		DurationSec: durationSec,
	}
	if prior == 0 {
		msg.IsFirstFree = true
	} else {
		msg.Locked = true
		msg.MediaPrice = price
	}

	if err := s.Storage.SaveMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ViewOutcome is the result of a media:view request: the answer for the
// viewer and, when tokens moved, the spark update for the sender.
type ViewOutcome struct {
	Viewed      models.MediaViewedPayload
	SenderID    string
	SparkUpdate *models.SparkUpdatePayload
}

// View resolves a reveal request. Self-views, already-viewed messages and
// unlocked messages are free; a locked message charges the viewer inside a
// single storage transaction.
func (s *Service) View(messageID uint, viewerID string) (*ViewOutcome, error) {
	msg, err := s.Storage.GetMessageByID(messageID)
	if err != nil {
		return nil, err
	}

	free := func(markViewed bool) (*ViewOutcome, error) {
		if markViewed {
			if err := s.Storage.MarkViewed(messageID, viewerID, s.Now()); err != nil {
				return nil, err
			}
		}
		viewer, err := s.Storage.GetUserByID(viewerID)
		if err != nil {
			return nil, err
		}
		return &ViewOutcome{
			Viewed: models.MediaViewedPayload{
				MessageID:  messageID,
				Cost:       0,
				Free:       true,
				NewBalance: viewer.Balance,
			},
			SenderID: msg.SenderID,
		}, nil
	}

	// Sender viewing their own message is always free.
	if msg.SenderID == viewerID {
		return free(msg.ViewedBy == nil)
	}
	// Re-viewing is idempotent success, never a charge.
	if msg.ViewedBy != nil && *msg.ViewedBy == viewerID {
		return free(false)
	}
	if !msg.Locked {
		return free(true)
	}

	res, err := s.Storage.UnlockMedia(messageID, viewerID, s.Now())
	if err != nil {
		return nil, err
	}
	if res.AlreadyUnlocked {
		return free(true)
	}

	log.Info().
		Uint("message", messageID).
		Str("viewer", viewerID).
		Int("price", res.Price).
		Msg("media unlocked")

	return &ViewOutcome{
		Viewed: models.MediaViewedPayload{
			MessageID:  messageID,
			Cost:       res.Price,
			Free:       false,
			NewBalance: res.ViewerBalance,
		},
		SenderID: res.SenderID,
		SparkUpdate: &models.SparkUpdatePayload{
			SparkMonthly: res.SenderSparkMonthly,
			SparkTotal:   res.SenderSparkTotal,
		},
	}, nil
}
