package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	Name         string
	AvatarURL    string
	PasswordHash string
	CreatedAt    time.Time
}

// Message is a persisted direct message between two users.
// ID is assigned by the store on append and grows monotonically.
// Everything except IsRead is immutable after append; IsRead flips
// false->true once, when the receiver fetches the message.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Content    string
	CreatedAt  time.Time
	IsRead     bool
}

// UserStore handles account persistence and directory lookups.
type UserStore interface {
	// CreateUser creates a new user with a hashed password.
	CreateUser(ctx context.Context, username, name, avatarURL, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsers returns all registered users ordered by username.
	ListUsers(ctx context.Context) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists a message and assigns its ID.
	// The append is durable by the time the call returns.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListBetween returns messages exchanged between two users in either
	// direction, newest first, skipping offset rows and returning at most
	// limit rows.
	ListBetween(ctx context.Context, userA, userB int64, offset, limit int) ([]*Message, error)

	// MarkRead flips a message's read flag to true.
	MarkRead(ctx context.Context, messageID int64) error

	// CountUnread counts unread messages sent by senderID to receiverID.
	CountUnread(ctx context.Context, senderID, receiverID int64) (int, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
