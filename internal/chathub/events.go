package chathub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ebakoking/cardmatchapp-sub000/internal/match"
	"github.com/ebakoking/cardmatchapp-sub000/internal/metrics"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
	"github.com/ebakoking/cardmatchapp-sub000/internal/session"
)

// route dispatches one inbound event. Runs on the hub goroutine.
func (m *ManagerService) route(in Inbound) {
	switch in.Event.Type {
	case models.EvMatchJoin:
		m.handleMatchJoin(in)
	case models.EvMatchLeave:
		m.handleMatchLeave(in)
	case models.EvStageAdvance:
		m.handleStageAdvance(in)
	case models.EvChatMessage:
		m.handleChatMessage(in)
	case models.EvMediaPhoto, models.EvMediaVideo, models.EvMediaAudio:
		m.handleMedia(in)
	case models.EvMediaView:
		m.handleMediaView(in)
	case models.EvGiftSend:
		m.handleGiftSend(in)
	case models.EvChatLeave:
		m.handleChatLeave(in)
	default:
		log.Warn().Str("type", in.Event.Type).Str("user", in.Client.GetUserID()).Msg("unknown event type")
	}
}

// sendErr answers the requesting connection only; errors never leak to the
// pairing peer.
func (m *ManagerService) sendErr(c Client, evType string, err error) {
	payload := models.ErrorPayload{Code: models.CodeInternal, Message: "internal error"}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		payload = models.ErrorPayload{
			Code:     appErr.Code,
			Message:  appErr.Message,
			Required: appErr.Required,
			Balance:  appErr.Balance,
		}
	} else {
		log.Error().Err(err).Str("user", c.GetUserID()).Msg("request failed")
	}
	m.sendTo(c.GetUserID(), models.NewEvent(evType, payload))
}

func (m *ManagerService) handleMatchJoin(in Inbound) {
	userID := in.Client.GetUserID()

	if _, busy := m.userSession[userID]; busy {
		m.sendErr(in.Client, models.EvError, models.NewAppError(models.CodeValidation, "already in an active chat"))
		return
	}

	var p models.MatchJoinPayload
	if err := json.Unmarshal(in.Event.Data, &p); err != nil {
		m.sendErr(in.Client, models.EvError, models.NewAppError(models.CodeValidation, "malformed join request"))
		return
	}

	user, err := m.Storage.GetUserByID(userID)
	if err != nil {
		m.sendErr(in.Client, models.EvError, err)
		return
	}

	entry := match.NewEntry(user, p.Filters, m.Now())
	if err := m.Registry.Join(entry); err != nil {
		m.sendErr(in.Client, models.EvError, err)
		return
	}
	metrics.QueueDepth.Set(float64(m.Registry.Len()))
	m.sendTo(userID, models.Event{Type: models.EvMatchSearching})

	// Wake the matcher; the periodic tick covers a full signal buffer.
	select {
	case m.MatchSignalCh <- userID:
	default:
	}
}

// handleMatchLeave removes the user from the queue. Mid-session it ends the
// chat; chat:ended is the one termination signal the peer receives.
func (m *ManagerService) handleMatchLeave(in Inbound) {
	userID := in.Client.GetUserID()
	m.Registry.Leave(userID)
	metrics.QueueDepth.Set(float64(m.Registry.Len()))
	m.endSessionFor(userID, "left")
}

func (m *ManagerService) handleChatLeave(in Inbound) {
	userID := in.Client.GetUserID()
	m.endSessionFor(userID, "left")
}

// handleStageAdvance treats the client event as a hint only; the server
// clock stays authoritative.
func (m *ManagerService) handleStageAdvance(in Inbound) {
	if act := m.activeSessionOf(in.Client.GetUserID()); act != nil {
		m.maybeAdvance(act)
	}
}

func (m *ManagerService) handleChatMessage(in Inbound) {
	userID := in.Client.GetUserID()
	act := m.activeSessionOf(userID)
	if act == nil {
		m.sendErr(in.Client, models.EvError, models.NewAppError(models.CodeNotFound, "no active chat session"))
		return
	}
	m.maybeAdvance(act)

	var p models.ChatMessagePayload
	if err := json.Unmarshal(in.Event.Data, &p); err != nil || p.Content == "" {
		m.sendErr(in.Client, models.EvError, models.NewAppError(models.CodeValidation, "empty message"))
		return
	}

	msg := &models.Message{
		SessionID: act.ID,
		SenderID:  userID,
		MediaType: models.MediaNone,
		Content:   p.Content,
	}
	if err := m.Storage.SaveMessage(msg); err != nil {
		m.sendErr(in.Client, models.EvError, err)
		return
	}
	m.broadcastMessage(act, msg)
	metrics.MessagesTotal.Inc()
}

func (m *ManagerService) handleMedia(in Inbound) {
	userID := in.Client.GetUserID()
	act := m.activeSessionOf(userID)
	if act == nil {
		m.sendErr(in.Client, models.EvError, models.NewAppError(models.CodeNotFound, "no active chat session"))
		return
	}
	m.maybeAdvance(act)

	var mediaType string
	switch in.Event.Type {
	case models.EvMediaPhoto:
		mediaType = models.MediaPhoto
	case models.EvMediaVideo:
		mediaType = models.MediaVideo
	case models.EvMediaAudio:
		mediaType = models.MediaAudio
	}

	if !session.HasFeature(act.Stage(), session.MediaFeature(mediaType)) {
		m.sendErr(in.Client, models.EvError, models.NewAppError(models.CodeValidation, mediaType+" is not unlocked at this stage"))
		return
	}

	var p models.ChatMessagePayload
	if err := json.Unmarshal(in.Event.Data, &p); err != nil || p.Content == "" {
		m.sendErr(in.Client, models.EvError, models.NewAppError(models.CodeValidation, "missing media url"))
		return
	}

	msg, err := m.Ledger.PrepareMedia(act.ID, userID, mediaType, p.Content, p.DurationSec)
	if err != nil {
		m.sendErr(in.Client, models.EvError, err)
		return
	}
	m.broadcastMessage(act, msg)
	metrics.MessagesTotal.Inc()
}

func (m *ManagerService) handleMediaView(in Inbound) {
	userID := in.Client.GetUserID()

	var p models.MediaViewPayload
	if err := json.Unmarshal(in.Event.Data, &p); err != nil || p.MessageID == 0 {
		m.sendErr(in.Client, models.EvError, models.NewAppError(models.CodeValidation, "missing message id"))
		return
	}

	out, err := m.Ledger.View(p.MessageID, userID)
	if err != nil {
		m.sendErr(in.Client, models.EvError, err)
		return
	}

	m.sendTo(userID, models.NewEvent(models.EvMediaViewed, out.Viewed))
	m.sendTo(userID, models.NewEvent(models.EvBalanceUpdate, models.BalanceUpdatePayload{
		Balance: out.Viewed.NewBalance,
	}))
	if out.SparkUpdate != nil {
		m.sendTo(out.SenderID, models.NewEvent(models.EvSparkUpdate, *out.SparkUpdate))
		metrics.UnlocksTotal.Inc()
	}
}

func (m *ManagerService) handleGiftSend(in Inbound) {
	userID := in.Client.GetUserID()
	act := m.activeSessionOf(userID)
	if act == nil {
		m.sendErr(in.Client, models.EvGiftError, models.NewAppError(models.CodeNotFound, "no active chat session"))
		return
	}
	m.maybeAdvance(act)

	var p models.GiftSendPayload
	if err := json.Unmarshal(in.Event.Data, &p); err != nil {
		m.sendErr(in.Client, models.EvGiftError, models.NewAppError(models.CodeValidation, "malformed gift request"))
		return
	}
	toUserID := p.ToUserID
	if toUserID == "" {
		toUserID = act.PeerOf(userID)
	}

	out, err := m.Ledger.Gift(context.Background(), userID, toUserID, act.ID, p.Amount)
	if err != nil {
		m.sendErr(in.Client, models.EvGiftError, err)
		return
	}

	m.sendTo(userID, models.NewEvent(models.EvGiftSent, out.Sent))
	m.sendTo(toUserID, models.NewEvent(models.EvGiftReceived, out.Received))
	m.broadcastMessage(act, &models.Message{
		Model:     gorm.Model{ID: out.MessageID},
		SessionID: act.ID,
		SenderID:  userID,
		MediaType: models.MediaGift,
		Content:   "gift",
	})
	metrics.GiftsTotal.Inc()
}

// broadcastMessage relays a persisted message to both session participants
// with its lock metadata.
func (m *ManagerService) broadcastMessage(act *session.Active, msg *models.Message) {
	ev := models.NewEvent(models.EvChatMessage, models.ChatMessagePayload{
		MessageID:   msg.ID,
		SessionID:   msg.SessionID,
		SenderID:    msg.SenderID,
		MediaType:   msg.MediaType,
		Content:     msg.Content,
		DurationSec: msg.DurationSec,
		Locked:      msg.Locked,
		IsFirstFree: msg.IsFirstFree,
		MediaPrice:  msg.MediaPrice,
	})
	m.sendTo(act.User1ID, ev)
	m.sendTo(act.User2ID, ev)
}
