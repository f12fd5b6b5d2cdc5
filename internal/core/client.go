package core

import "github.com/pbystrov/directchat-server/internal/store"

// Client is one live, authenticated connection as seen by the core layer.
// A user reconnecting from another tab produces a second Client; the
// presence registry keeps only the most recent one for delivery.
type Client struct {
	// ConnID identifies this particular connection, not the user.
	ConnID    string
	UserID    int64
	Username  string
	Name      string
	AvatarURL string

	// ResyncPeer, when non-zero, asks the hub to deliver page 1 of the
	// conversation with that peer right after connect.
	ResyncPeer int64

	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client for an authenticated user with
// initialized channels.
func NewClient(connID string, user *store.User, resyncPeer int64) *Client {
	return &Client{
		ConnID:     connID,
		UserID:     user.ID,
		Username:   user.Username,
		Name:       user.Name,
		AvatarURL:  user.AvatarURL,
		ResyncPeer: resyncPeer,
		Commands:   make(chan *Command, 8),
		Events:     make(chan *Event, 16),
	}
}
