package models

import "encoding/json"

// Event is the wire envelope for every realtime message in both directions.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event types, client -> server.
const (
	EvMatchJoin    = "match:join"
	EvMatchLeave   = "match:leave"
	EvStageAdvance = "stage:advance" // client hint, server stays authoritative
	EvChatMessage  = "chat:message"
	EvMediaPhoto   = "media:photo"
	EvMediaVideo   = "media:video"
	EvMediaAudio   = "media:audio"
	EvMediaView    = "media:view"
	EvGiftSend     = "gift:send"
	EvChatLeave    = "chat:leave"
)

// Event types, server -> client.
const (
	EvMatchSearching = "match:searching"
	EvMatchFound     = "match:found"
	EvMatchEnded     = "match:ended"
	EvStageAdvanced  = "stage:advanced"
	EvMediaViewed    = "media:viewed"
	EvGiftSent       = "gift:sent"
	EvGiftReceived   = "gift:received"
	EvGiftError      = "gift:error"
	EvChatEnded      = "chat:ended"
	EvPresenceUpdate = "presence:update"
	EvSparkUpdate    = "spark:update"
	EvBalanceUpdate  = "balance:update"
	EvError          = "error"
)

// NewEvent marshals data into an Event envelope. Marshal errors are not
// expected for our own payload types and yield an empty data field.
func NewEvent(typ string, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{Type: typ}
	}
	return Event{Type: typ, Data: raw}
}

// FilterSnapshot is the matchmaking filter set captured at queue join time.
type FilterSnapshot struct {
	GenderWant       string  `json:"genderWant"`
	AgeMin           int     `json:"ageMin"`
	AgeMax           int     `json:"ageMax"`
	MaxDistanceKm    float64 `json:"maxDistanceKm"`
	MinCommonAnswers int     `json:"minCommonAnswers"`
}

// MatchJoinPayload is the body of a match:join event.
type MatchJoinPayload struct {
	Filters FilterSnapshot `json:"filters"`
}

// MatchFoundPayload notifies both parties of a successful pairing.
type MatchFoundPayload struct {
	MatchID         string `json:"matchId"`
	SessionID       string `json:"sessionId"`
	PartnerID       string `json:"partnerId"`
	PartnerNickname string `json:"partnerNickname"`
}

// StageAdvancedPayload is broadcast when the session clock moves a session
// to the next stage.
type StageAdvancedPayload struct {
	SessionID string   `json:"sessionId"`
	NewStage  int      `json:"newStage"`
	Features  []string `json:"features"`
}

// ChatMessagePayload carries a text or media message within a session.
type ChatMessagePayload struct {
	MessageID   uint   `json:"messageId,omitempty"`
	SessionID   string `json:"sessionId"`
	SenderID    string `json:"senderId"`
	MediaType   string `json:"mediaType"`
	Content     string `json:"content"`
	DurationSec int    `json:"duration,omitempty"`
	Locked      bool   `json:"locked"`
	IsFirstFree bool   `json:"isFirstFree"`
	MediaPrice  int    `json:"mediaPrice"`
}

// MediaViewPayload asks to reveal a media message.
type MediaViewPayload struct {
	MessageID uint `json:"messageId"`
}

// MediaViewedPayload answers a successful media:view.
type MediaViewedPayload struct {
	MessageID  uint `json:"messageId"`
	Cost       int  `json:"cost"`
	Free       bool `json:"free"`
	NewBalance int  `json:"newBalance"`
}

// GiftSendPayload asks to transfer tokens to the session peer.
type GiftSendPayload struct {
	ToUserID  string `json:"toUserId"`
	SessionID string `json:"sessionId"`
	Amount    int    `json:"amount"`
}

// GiftSentPayload confirms the debit to the sender.
type GiftSentPayload struct {
	Amount     int `json:"amount"`
	NewBalance int `json:"newBalance"`
}

// GiftReceivedPayload notifies the receiver of the credit.
type GiftReceivedPayload struct {
	FromNickname string `json:"fromNickname"`
	Amount       int    `json:"amount"`
	NewBalance   int    `json:"newBalance"`
}

// ChatEndedPayload tells a participant the session is over and why.
type ChatEndedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"` // "left", "disconnected", "self"
	Message   string `json:"message,omitempty"`
}

// PresencePayload broadcasts a user's online state.
type PresencePayload struct {
	UserID   string `json:"userId"`
	Online   bool   `json:"online"`
	LastSeen int64  `json:"lastSeen,omitempty"`
}

// BalanceUpdatePayload notifies a user of their new spendable balance.
type BalanceUpdatePayload struct {
	Balance int `json:"balance"`
}

// SparkUpdatePayload notifies a sender their spark totals grew.
type SparkUpdatePayload struct {
	SparkMonthly int `json:"sparkMonthly"`
	SparkTotal   int `json:"sparkTotal"`
}

// ErrorPayload is the synchronous error answer on the requesting connection.
type ErrorPayload struct {
	Code     string `json:"code"`
	Message  string `json:"message,omitempty"`
	Required int    `json:"required,omitempty"`
	Balance  int    `json:"balance,omitempty"`
}
