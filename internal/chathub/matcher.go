package chathub

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ebakoking/cardmatchapp-sub000/internal/config"
	"github.com/ebakoking/cardmatchapp-sub000/internal/match"
	"github.com/ebakoking/cardmatchapp-sub000/internal/models"
	"github.com/ebakoking/cardmatchapp-sub000/internal/storage"
)

// MatcherService pairs waiting users. It runs both reactively (a join signal
// from the hub) and on a periodic tick; both paths go through the registry's
// atomic RemovePair, so a user can never end up in two pairings.
type MatcherService struct {
	Hub      *ManagerService
	Storage  storage.Storage
	Registry *match.Registry
	Strategy match.Strategy

	TickPeriod time.Duration
	Now        func() time.Time
}

// NewMatcherService creates a matcher using the given pairing strategy.
func NewMatcherService(hub *ManagerService, s storage.Storage, reg *match.Registry, strat match.Strategy) *MatcherService {
	return &MatcherService{
		Hub:        hub,
		Storage:    s,
		Registry:   reg,
		Strategy:   strat,
		TickPeriod: config.MatcherTickPeriod,
		Now:        time.Now,
	}
}

// Run is the matcher's main goroutine.
func (m *MatcherService) Run() {
	log.Info().Msg("matcher service started")

	ticker := time.NewTicker(m.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case userID := <-m.Hub.MatchSignalCh:
			m.TryMatch(userID)
		case <-ticker.C:
			m.scanQueue()
		}
	}
}

// scanQueue retries everyone still waiting, best-priority first.
func (m *MatcherService) scanQueue() {
	for _, e := range m.Registry.Snapshot("", config.CandidateScanLimit) {
		m.TryMatch(e.UserID)
	}
}

// TryMatch looks for a partner for the given user and, on success, hands the
// pairing to the hub.
func (m *MatcherService) TryMatch(userID string) {
	seeker := m.Registry.Get(userID)
	if seeker == nil {
		return
	}

	pool := m.Registry.Snapshot(userID, config.CandidateScanLimit)
	cand := m.Strategy.FindMatch(seeker, pool, m.Storage)
	if cand == nil {
		return
	}

	// A concurrent trigger may have consumed either side already.
	if !m.Registry.RemovePair(seeker.UserID, cand.UserID) {
		return
	}

	now := m.Now()
	sessionID := uuid.New().String()
	matchID := uuid.New().String()

	sess := &models.ChatSession{
		SessionID:      sessionID,
		User1ID:        seeker.UserID,
		User2ID:        cand.UserID,
		Stage:          1,
		StageStartedAt: now,
		StartedAt:      now,
	}
	if err := m.Storage.SaveSession(sess); err != nil {
		log.Error().Err(err).Msg("failed to save session, restoring queue entries")
		m.Registry.Restore(seeker)
		m.Registry.Restore(cand)
		return
	}
	if err := m.Storage.SaveMatchRecord(&models.MatchRecord{
		MatchID:   matchID,
		User1ID:   seeker.UserID,
		User2ID:   cand.UserID,
		SessionID: sessionID,
	}); err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("failed to save match record")
	}

	m.Hub.PairedCh <- Pairing{
		MatchID:   matchID,
		SessionID: sessionID,
		EntryA:    seeker,
		EntryB:    cand,
		StartedAt: now,
	}
}

// StrategyFromName maps a config value to a pairing strategy; the scored
// scan is the default.
func StrategyFromName(name string) match.Strategy {
	if name == "first" {
		return match.FirstEligibleStrategy{}
	}
	return match.BestScoreStrategy{}
}
