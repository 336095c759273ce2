package chathub

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ebakoking/cardmatchapp-sub000/internal/ledger"
	"github.com/ebakoking/cardmatchapp-sub000/internal/match"
	"github.com/ebakoking/cardmatchapp-sub000/internal/metrics"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
	"github.com/ebakoking/cardmatchapp-sub000/internal/session"
	"github.com/ebakoking/cardmatchapp-sub000/internal/storage"
)

// Pairing is the matcher's instruction to the hub: both queue entries were
// already removed atomically and the session row exists; the hub now owns
// the runtime and notifies both parties.
type Pairing struct {
	MatchID   string
	SessionID string
	EntryA    *match.QueueEntry
	EntryB    *match.QueueEntry
	StartedAt time.Time
}

// ManagerService is the hub. One goroutine (Run) owns the Clients map and
// the session runtimes; every mutation arrives over a channel.
type ManagerService struct {
	Clients map[string]Client

	InboundCh     chan Inbound
	RegisterCh    chan Client
	UnregisterCh  chan Client
	PairedCh      chan Pairing
	MatchSignalCh chan string

	Storage  storage.Storage
	Ledger   *ledger.Service
	Registry *match.Registry

	sessions    map[string]*session.Active // session id -> runtime
	userSession map[string]string          // user id -> session id

	// StageTick is how often idle sessions are re-evaluated for stage
	// advancement.
	StageTick time.Duration
	// PresenceTick is how often the redis online TTL is re-armed for
	// connected clients.
	PresenceTick time.Duration
	Now          func() time.Time
}

// NewManagerService wires the hub with its collaborators.
func NewManagerService(s storage.Storage, led *ledger.Service, reg *match.Registry) *ManagerService {
	return &ManagerService{
		Clients:       make(map[string]Client),
		InboundCh:     make(chan Inbound, 64),
		RegisterCh:    make(chan Client, 16),
		UnregisterCh:  make(chan Client, 16),
		PairedCh:      make(chan Pairing, 16),
		MatchSignalCh: make(chan string, 64),
		Storage:       s,
		Ledger:        led,
		Registry:      reg,
		sessions:      make(map[string]*session.Active),
		userSession:   make(map[string]string),
		StageTick:     time.Second,
		PresenceTick:  time.Minute,
		Now:           time.Now,
	}
}

// Run is the hub's main loop.
func (m *ManagerService) Run() {
	log.Info().Msg("chat hub started")

	ticker := time.NewTicker(m.StageTick)
	defer ticker.Stop()
	presenceTicker := time.NewTicker(m.PresenceTick)
	defer presenceTicker.Stop()

	for {
		select {
		case c := <-m.RegisterCh:
			m.register(c)
		case c := <-m.UnregisterCh:
			m.unregister(c)
		case in := <-m.InboundCh:
			m.route(in)
		case p := <-m.PairedCh:
			m.handlePairing(p)
		case <-ticker.C:
			m.tickSessions()
		case <-presenceTicker.C:
			m.refreshPresence()
		}
	}
}

// RecoverActiveSessions reloads unended sessions from storage into the
// runtime, so a restart does not orphan live chats. Call before Run.
func (m *ManagerService) RecoverActiveSessions() {
	sessions, err := m.Storage.GetActiveSessions()
	if err != nil {
		log.Error().Err(err).Msg("session recovery failed")
		return
	}
	for i := range sessions {
		rec := &sessions[i]
		act := session.NewActive(rec.SessionID, rec.User1ID, rec.User2ID, rec.StageStartedAt)
		act.Now = m.Now
		act.RestoreStage(rec.Stage)
		m.sessions[rec.SessionID] = act
		m.userSession[rec.User1ID] = rec.SessionID
		m.userSession[rec.User2ID] = rec.SessionID
	}
	log.Info().Int("count", len(sessions)).Msg("active sessions recovered")
}

func (m *ManagerService) register(c Client) {
	userID := c.GetUserID()
	if old, ok := m.Clients[userID]; ok && old != c {
		// Reconnect: the user id keeps delivery stable, the old transport goes.
		old.Close()
	}
	m.Clients[userID] = c
	metrics.WsConnections.Set(float64(len(m.Clients)))

	if err := m.Storage.SetOnline(userID); err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("failed to mark user online")
	}

	if sid, ok := m.userSession[userID]; ok {
		c.SetSessionID(sid)
	}
	m.broadcastPresence(userID, true, 0)
	log.Info().Str("user", userID).Msg("client registered")
}

func (m *ManagerService) unregister(c Client) {
	userID := c.GetUserID()
	cur, ok := m.Clients[userID]
	if !ok || cur != c {
		// A reconnect already replaced this transport.
		return
	}
	delete(m.Clients, userID)
	metrics.WsConnections.Set(float64(len(m.Clients)))

	m.Registry.Leave(userID)
	metrics.QueueDepth.Set(float64(m.Registry.Len()))

	// The session teardown deletes the lookup, so capture the peer first.
	peer := ""
	if act := m.activeSessionOf(userID); act != nil {
		peer = act.PeerOf(userID)
	}

	lastSeen, err := m.Storage.SetOffline(userID)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("failed to mark user offline")
	}
	if peer != "" {
		m.sendTo(peer, models.NewEvent(models.EvPresenceUpdate, models.PresencePayload{
			UserID:   userID,
			Online:   false,
			LastSeen: lastSeen,
		}))
	}

	m.endSessionFor(userID, "disconnected")

	c.Close()
	log.Info().Str("user", userID).Msg("client unregistered")
}

func (m *ManagerService) handlePairing(p Pairing) {
	act := session.NewActive(p.SessionID, p.EntryA.UserID, p.EntryB.UserID, p.StartedAt)
	act.Now = m.Now
	m.sessions[p.SessionID] = act
	m.userSession[p.EntryA.UserID] = p.SessionID
	m.userSession[p.EntryB.UserID] = p.SessionID

	for _, e := range []*match.QueueEntry{p.EntryA, p.EntryB} {
		if c, ok := m.Clients[e.UserID]; ok {
			c.SetSessionID(p.SessionID)
		}
	}

	m.sendTo(p.EntryA.UserID, models.NewEvent(models.EvMatchFound, models.MatchFoundPayload{
		MatchID:         p.MatchID,
		SessionID:       p.SessionID,
		PartnerID:       p.EntryB.UserID,
		PartnerNickname: p.EntryB.Nickname,
	}))
	m.sendTo(p.EntryB.UserID, models.NewEvent(models.EvMatchFound, models.MatchFoundPayload{
		MatchID:         p.MatchID,
		SessionID:       p.SessionID,
		PartnerID:       p.EntryA.UserID,
		PartnerNickname: p.EntryA.Nickname,
	}))

	metrics.MatchesTotal.Inc()
	metrics.QueueDepth.Set(float64(m.Registry.Len()))
	log.Info().
		Str("session", p.SessionID).
		Str("user1", p.EntryA.UserID).
		Str("user2", p.EntryB.UserID).
		Msg("match found")
}

func (m *ManagerService) tickSessions() {
	for _, act := range m.sessions {
		m.maybeAdvance(act)
	}
}

// maybeAdvance evaluates the time-based stage transition. Safe to call on
// every activity and tick: the transition is monotonic and idempotent.
func (m *ManagerService) maybeAdvance(act *session.Active) {
	stage, advanced := act.Advance()
	if !advanced {
		return
	}
	if err := m.Storage.UpdateSessionStage(act.ID, stage, m.Now()); err != nil {
		log.Error().Err(err).Str("session", act.ID).Msg("failed to persist stage")
	}
	ev := models.NewEvent(models.EvStageAdvanced, models.StageAdvancedPayload{
		SessionID: act.ID,
		NewStage:  stage,
		Features:  session.Features(stage),
	})
	m.sendTo(act.User1ID, ev)
	m.sendTo(act.User2ID, ev)
	log.Info().Str("session", act.ID).Int("stage", stage).Msg("stage advanced")
}

// endSessionFor ends the active session of userID, if any.
func (m *ManagerService) endSessionFor(userID, reason string) {
	sid, ok := m.userSession[userID]
	if !ok {
		return
	}
	m.endSession(m.sessions[sid], userID, reason)
}

// endSession terminates a session exactly once, regardless of how many
// triggers (explicit leave, transport close) observe it.
func (m *ManagerService) endSession(act *session.Active, leaverID, reason string) {
	if act == nil || !act.End() {
		return
	}
	if err := m.Storage.CloseSession(act.ID, m.Now()); err != nil {
		log.Error().Err(err).Str("session", act.ID).Msg("failed to close session")
	}

	delete(m.sessions, act.ID)
	delete(m.userSession, act.User1ID)
	delete(m.userSession, act.User2ID)
	for _, id := range []string{act.User1ID, act.User2ID} {
		if c, ok := m.Clients[id]; ok {
			c.SetSessionID("")
		}
	}

	peer := act.PeerOf(leaverID)
	m.sendTo(peer, models.NewEvent(models.EvChatEnded, models.ChatEndedPayload{
		SessionID: act.ID,
		Reason:    reason,
	}))
	m.sendTo(leaverID, models.NewEvent(models.EvChatEnded, models.ChatEndedPayload{
		SessionID: act.ID,
		Reason:    "self",
	}))
	log.Info().Str("session", act.ID).Str("reason", reason).Msg("session ended")
}

// activeSessionOf returns the live session runtime for the user, or nil.
func (m *ManagerService) activeSessionOf(userID string) *session.Active {
	sid, ok := m.userSession[userID]
	if !ok {
		return nil
	}
	return m.sessions[sid]
}

// sendTo delivers an event to the user's connection if one is registered.
// A jammed send buffer drops the connection rather than the whole hub; the
// drop goes through the full unregister path so the disconnect cleanup
// (session end, offline mark, presence) still happens exactly once. The
// later transport-close unregister then sees a stale client and no-ops.
func (m *ManagerService) sendTo(userID string, ev models.Event) {
	c, ok := m.Clients[userID]
	if !ok {
		return
	}
	select {
	case c.GetSendChannel() <- ev:
	default:
		log.Warn().Str("user", userID).Msg("send buffer full, dropping client")
		m.unregister(c)
	}
}

// refreshPresence re-arms the redis online TTL for every connected client so
// a long-lived connection never expires into offline.
func (m *ManagerService) refreshPresence() {
	for userID := range m.Clients {
		if err := m.Storage.SetOnline(userID); err != nil {
			log.Warn().Err(err).Str("user", userID).Msg("failed to refresh presence")
		}
	}
}

func (m *ManagerService) broadcastPresence(userID string, online bool, lastSeen int64) {
	// The session peer is the audience that cares; there is no global roster.
	sid, ok := m.userSession[userID]
	if !ok {
		return
	}
	act := m.sessions[sid]
	if act == nil {
		return
	}
	m.sendTo(act.PeerOf(userID), models.NewEvent(models.EvPresenceUpdate, models.PresencePayload{
		UserID:   userID,
		Online:   online,
		LastSeen: lastSeen,
	}))
}
