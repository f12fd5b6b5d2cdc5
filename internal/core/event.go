package core

import "github.com/pbystrov/directchat-server/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventNewMessage delivers a freshly persisted message to its receiver.
	EventNewMessage EventKind = iota
	// EventMessageSent acks a send back to the sender with the assigned ID.
	EventMessageSent
	// EventUserConnected notifies other clients that a user came online.
	EventUserConnected
	// EventRoster delivers the full online/offline roster with unread counts.
	EventRoster
	// EventTyping relays a typing notice to the recipient.
	EventTyping
	// EventHistory delivers one page of conversation history.
	EventHistory
	// EventError notifies the issuing client about a failed operation.
	EventError
)

// RosterEntry is one row of the derived roster. It is recomputed for each
// broadcast and never persisted; UnreadCount is relative to the viewer the
// roster is pushed to.
type RosterEntry struct {
	UserID      int64
	Username    string
	Name        string
	AvatarURL   string
	IsOnline    bool
	UnreadCount int
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind

	Message  *store.Message   // EventNewMessage, EventMessageSent
	User     *store.User      // EventUserConnected
	Roster   []RosterEntry    // EventRoster
	From     string           // EventTyping: sender's username
	PeerID   int64            // EventHistory
	ReqID    string           // EventHistory: echoed correlation id
	Messages []*store.Message // EventHistory, ascending by time
	Error    *CoreError       // EventError
}
