package chathub

import "github.com/ebakoking/cardmatchapp-sub000/internal/models"

// Client is the interface for one active connection. It abstracts the
// transport so the hub can manage connections uniformly; delivery is always
// addressed by user id, never by the underlying socket.
type Client interface {
	// GetUserID returns the user the connection belongs to.
	GetUserID() string
	// GetSessionID returns the chat session the client is currently in, or "".
	GetSessionID() string
	// SetSessionID assigns the client to a session. Called only from the hub
	// goroutine.
	SetSessionID(string)

	// GetSendChannel returns the channel the hub writes outgoing events to.
	GetSendChannel() chan<- models.Event

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the connection and its channels.
	Close()
}

// Inbound pairs a decoded event with the client it arrived on.
type Inbound struct {
	Client Client
	Event  models.Event
}
