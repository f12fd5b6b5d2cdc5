package core

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/pbystrov/directchat-server/internal/store"
)

// historyPageSize is the fixed page size for conversation history.
const historyPageSize = 10

// Hub owns the presence registry and executes client commands against the
// message store: sending, typing relay, history pagination and roster
// broadcasts. One Hub instance serves the whole process; its registry
// lives exactly as long as it does.
type Hub struct {
	users    store.UserStore
	messages store.MessageStore
	presence *Registry
	log      zerolog.Logger
}

// NewHub constructs a hub backed by the given store.
func NewHub(st store.Store, logger *zerolog.Logger) *Hub {
	lg := zerolog.Nop()
	if logger != nil {
		lg = *logger
	}
	return &Hub{
		users:    st,
		messages: st,
		presence: NewRegistry(),
		log:      lg,
	}
}

// Presence exposes the registry for read-only inspection.
func (h *Hub) Presence() *Registry {
	return h.presence
}

// Connect registers an authenticated client, announces it when the user
// was not online before, optionally resyncs one conversation, and pushes
// a fresh roster to everyone. It also starts the client's command pump,
// which runs until ctx is cancelled or the Commands channel is closed.
func (h *Hub) Connect(ctx context.Context, c *Client) {
	wasOnline := h.presence.Upsert(c)
	if !wasOnline {
		h.broadcastExcept(c, &Event{
			Kind: EventUserConnected,
			User: &store.User{
				ID:        c.UserID,
				Username:  c.Username,
				Name:      c.Name,
				AvatarURL: c.AvatarURL,
			},
		})
	}

	if c.ResyncPeer != 0 {
		h.loadHistory(ctx, c, &Command{PeerID: c.ResyncPeer, Page: 1})
	}

	h.BroadcastRoster(ctx)

	go h.pump(ctx, c)

	h.log.Info().
		Int64("user_id", c.UserID).
		Str("conn_id", c.ConnID).
		Bool("was_online", wasOnline).
		Msg("client connected")
}

// Disconnect removes the client's presence entry and, when the entry was
// actually removed, broadcasts an updated roster to the remaining
// connections. The entry survives if a newer connection of the same user
// has already replaced it.
func (h *Hub) Disconnect(ctx context.Context, c *Client) {
	removed := h.presence.RemoveClient(c)
	if removed {
		h.BroadcastRoster(ctx)
	}

	h.log.Info().
		Int64("user_id", c.UserID).
		Str("conn_id", c.ConnID).
		Bool("went_offline", removed).
		Msg("client disconnected")
}

// pump serializes the client's commands into hub operations.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			h.handle(ctx, c, cmd)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handle(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandSendMessage:
		h.send(ctx, c, cmd)
	case CommandNotifyTyping:
		h.notifyTyping(c, cmd)
	case CommandLoadHistory:
		h.loadHistory(ctx, c, cmd)
	default:
		h.push(c, &Event{
			Kind:  EventError,
			Error: coreError(ErrCodeBadRequest, "unknown command"),
		})
	}
}

// send persists the message and pushes it to the receiver's live
// connection if there is one. The append must succeed before any push is
// attempted; a disconnected receiver simply sees the message on their
// next history fetch.
func (h *Hub) send(ctx context.Context, c *Client, cmd *Command) {
	if cmd.ReceiverID <= 0 || cmd.Content == "" {
		h.pushError(c, ErrCodeBadRequest, "receiver and content are required")
		return
	}
	if cmd.ReceiverID == c.UserID {
		h.pushError(c, ErrCodeBadRequest, "cannot message yourself")
		return
	}

	receiver, err := h.users.GetUserByID(ctx, cmd.ReceiverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.pushError(c, ErrCodeUnknownRecipient, "recipient does not exist")
			return
		}
		h.log.Error().Err(err).Int64("receiver_id", cmd.ReceiverID).Msg("resolve recipient")
		h.pushError(c, ErrCodeStoreUnavailable, "could not resolve recipient")
		return
	}

	msg := &store.Message{
		SenderID:   c.UserID,
		ReceiverID: receiver.ID,
		Content:    cmd.Content,
		CreatedAt:  time.Now().UTC(),
		IsRead:     false,
	}
	if err := h.messages.AppendMessage(ctx, msg); err != nil {
		h.log.Error().Err(err).Int64("sender_id", c.UserID).Msg("append message")
		h.pushError(c, ErrCodeStoreUnavailable, "message was not saved")
		return
	}

	if entry := h.presence.Get(receiver.ID); entry != nil {
		h.push(entry.Client, &Event{Kind: EventNewMessage, Message: msg})
	}

	h.push(c, &Event{Kind: EventMessageSent, Message: msg})
}

// notifyTyping relays a typing notice to the recipient's live connection.
// An offline or unknown recipient is a silent no-op; there is no rate
// limiting or de-duplication.
func (h *Hub) notifyTyping(c *Client, cmd *Command) {
	if cmd.RecipientUsername == "" || cmd.RecipientUsername == c.Username {
		return
	}
	entry := h.presence.FindByUsername(cmd.RecipientUsername)
	if entry == nil {
		return
	}
	h.push(entry.Client, &Event{Kind: EventTyping, From: c.Username})
}

// loadHistory delivers one page of the conversation between the client
// and a peer. Page 1 is the most recent page; the page itself is returned
// ascending by time. Fetching is a read acknowledgment: every returned
// message addressed to the requester is marked read immediately, one
// write per message.
func (h *Hub) loadHistory(ctx context.Context, c *Client, cmd *Command) {
	if cmd.PeerID <= 0 {
		h.pushError(c, ErrCodeBadRequest, "peer is required")
		return
	}
	page := cmd.Page
	if page < 1 {
		page = 1
	}

	msgs, err := h.messages.ListBetween(ctx, c.UserID, cmd.PeerID, (page-1)*historyPageSize, historyPageSize)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", c.UserID).Int64("peer_id", cmd.PeerID).Msg("list history")
		h.pushError(c, ErrCodeStoreUnavailable, "could not load history")
		return
	}

	// Newest-first from the store; the page is displayed oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	for _, msg := range msgs {
		if msg.ReceiverID != c.UserID || msg.IsRead {
			continue
		}
		if err := h.messages.MarkRead(ctx, msg.ID); err != nil {
			h.log.Warn().Err(err).Int64("message_id", msg.ID).Msg("mark read")
			continue
		}
		msg.IsRead = true
	}

	h.push(c, &Event{
		Kind:     EventHistory,
		PeerID:   cmd.PeerID,
		ReqID:    cmd.ReqID,
		Messages: msgs,
	})
}

// BroadcastRoster recomputes the full roster and pushes a viewer-relative
// copy to every connected client: unread counts are counted against the
// viewer, so each connection gets its own roster. Triggered after every
// connect and disconnect; always the full set, never a diff.
func (h *Hub) BroadcastRoster(ctx context.Context) {
	users, err := h.users.ListUsers(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("list users for roster")
		return
	}
	online := h.presence.Online()

	h.presence.ForEach(func(viewer *PresenceEntry) {
		roster := make([]RosterEntry, 0, len(users))
		for _, u := range users {
			_, isOnline := online[u.ID]
			unread, err := h.messages.CountUnread(ctx, u.ID, viewer.UserID)
			if err != nil {
				h.log.Warn().Err(err).Int64("user_id", u.ID).Msg("count unread for roster")
			}
			roster = append(roster, RosterEntry{
				UserID:      u.ID,
				Username:    u.Username,
				Name:        u.Name,
				AvatarURL:   u.AvatarURL,
				IsOnline:    isOnline,
				UnreadCount: unread,
			})
		}
		// Online first; username order within each group is preserved
		// from the directory listing.
		sort.SliceStable(roster, func(i, j int) bool {
			return roster[i].IsOnline && !roster[j].IsOnline
		})
		h.push(viewer.Client, &Event{Kind: EventRoster, Roster: roster})
	})
}

func (h *Hub) pushError(c *Client, code, msg string) {
	h.push(c, &Event{Kind: EventError, Error: coreError(code, msg)})
}

// push delivers an event to a client's buffered channel. A full buffer or
// a connection torn down mid-push drops the event; history and roster
// recomputation make dropped pushes recoverable.
func (h *Hub) push(c *Client, event *Event) {
	select {
	case c.Events <- event:
	default:
		h.log.Warn().
			Int64("user_id", c.UserID).
			Str("conn_id", c.ConnID).
			Msg("dropping event for slow consumer")
	}
}

// broadcastExcept pushes an event to every registered connection except
// the given one.
func (h *Hub) broadcastExcept(skip *Client, event *Event) {
	h.presence.ForEach(func(entry *PresenceEntry) {
		if entry.Client == skip {
			return
		}
		h.push(entry.Client, event)
	})
}
