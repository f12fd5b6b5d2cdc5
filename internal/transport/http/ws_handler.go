package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pbystrov/directchat-server/internal/auth"
	"github.com/pbystrov/directchat-server/internal/core"
	"github.com/pbystrov/directchat-server/internal/proto"
	"github.com/pbystrov/directchat-server/internal/store"
)

// WSHandler authenticates incoming WebSocket connections and bridges
// them to core.Client sessions.
type WSHandler struct {
	hub         *core.Hub
	authService *auth.Service
	users       store.UserStore
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, users store.UserStore, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, authService: authService, users: users, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	// A session that never completes authentication must not reach the
	// registry: reject before the upgrade, no broadcast happens.
	user, err := h.authenticate(ctx, r)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws authentication failed")
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}

	var resyncPeer int64
	if peer := r.URL.Query().Get("peer"); peer != "" {
		resyncPeer, _ = strconv.ParseInt(peer, 10, 64)
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(uuid.NewString(), user, resyncPeer)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.hub.Connect(ctx, client)
	defer h.hub.Disconnect(context.WithoutCancel(ctx), client)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// authenticate resolves the connection's verified identity. Browsers
// cannot set headers on WebSocket dials, so the token is accepted from
// the access_token query parameter as well as the Authorization header.
func (h *WSHandler) authenticate(ctx context.Context, r *stdhttp.Request) (*store.User, error) {
	token := r.URL.Query().Get("access_token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			token = after
		}
	}
	if token == "" {
		return nil, errors.New("missing token")
	}

	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := h.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", client.ConnID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, conn, errorOutbound(protoErr)); writeErr != nil {
				return writeErr
			}
			continue
		}
		if cmd != nil {
			select {
			case client.Commands <- cmd:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ConnID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
