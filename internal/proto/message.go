package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeSend    = "send"
	InboundTypeTyping  = "typing"
	InboundTypeHistory = "history"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventMessage       = "message"
	EventMessageSent   = "message_sent"
	EventUserConnected = "user_connected"
	EventRoster        = "roster"
	EventTyping        = "typing"
	EventHistory       = "history"
)

// SendData asks the server to deliver a direct message.
type SendData struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

// TypingData relays a typing notice to the named user.
type TypingData struct {
	Username string `json:"username"`
}

// HistoryData requests one page of conversation history. Page numbering
// is 1-based; page 1 is the most recent page. ReqID is an opaque
// client-chosen value echoed back on the matching history event.
type HistoryData struct {
	PeerID int64  `json:"peer_id"`
	Page   int    `json:"page,omitempty"`
	ReqID  string `json:"req_id,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// MessagePayload is a persisted message on the wire.
type MessagePayload struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `json:"is_read"`
}

// UserPayload describes a user in presence events.
type UserPayload struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// RosterEntryPayload is one row of the roster event.
type RosterEntryPayload struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	IsOnline    bool   `json:"is_online"`
	UnreadCount int    `json:"unread_count"`
}

// TypingPayload carries the sender of a typing notice.
type TypingPayload struct {
	From string `json:"from"`
}

// HistoryPayload is one page of a conversation, ascending by time.
type HistoryPayload struct {
	PeerID   int64            `json:"peer_id"`
	ReqID    string           `json:"req_id,omitempty"`
	Messages []MessagePayload `json:"messages"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
