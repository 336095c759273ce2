package ledger

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ebakoking/cardmatchapp-sub000/internal/config"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
)

// GiftOutcome carries the per-party answers of a committed gift.
type GiftOutcome struct {
	Sent      models.GiftSentPayload
	Received  models.GiftReceivedPayload
	MessageID uint
}

// Gift transfers spendable tokens from one user to another. The runtime kill
// switch is consulted first; with no reachable flag snapshot the transfer is
// refused. Gifts credit the receiver's balance only; spark is reserved for
// media unlocks so gifting cannot feed the leaderboard.
func (s *Service) Gift(ctx context.Context, fromID, toID, sessionID string, amount int) (*GiftOutcome, error) {
	flags, err := s.Flags.Flags(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("feature flags unreachable, refusing gift")
		return nil, models.NewAppError(models.CodeFeatureDisabled, "gifting is temporarily unavailable")
	}
	if !flags.TokenGiftEnabled {
		msg := flags.TokenGiftDisabledMessage
		if msg == "" {
			msg = "gifting is currently disabled"
		}
		return nil, models.NewAppError(models.CodeFeatureDisabled, msg)
	}

	if amount <= 0 || amount > config.GiftMaxAmount {
		return nil, models.NewAppError(models.CodeValidation, "invalid gift amount")
	}
	if fromID == toID {
		return nil, models.NewAppError(models.CodeValidation, "cannot gift yourself")
	}

	sender, err := s.Storage.GetUserByID(fromID)
	if err != nil {
		return nil, err
	}

	res, err := s.Storage.TransferTokens(fromID, toID, sessionID, amount)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("from", fromID).
		Str("to", toID).
		Int("amount", amount).
		Msg("gift sent")

	return &GiftOutcome{
		Sent: models.GiftSentPayload{
			Amount:     amount,
			NewBalance: res.SenderBalance,
		},
		Received: models.GiftReceivedPayload{
			FromNickname: sender.Nickname,
			Amount:       amount,
			NewBalance:   res.ReceiverBalance,
		},
		MessageID: res.MessageID,
	}, nil
}
