package http

import (
	"encoding/json"

	"github.com/pbystrov/directchat-server/internal/core"
	"github.com/pbystrov/directchat-server/internal/proto"
	"github.com/pbystrov/directchat-server/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeSend:
		var send proto.SendData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, nil, err
		}
		if send.ReceiverID <= 0 || send.Content == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "receiver_id and content are required"}, nil
		}
		return &core.Command{
			Kind:       core.CommandSendMessage,
			ReceiverID: send.ReceiverID,
			Content:    send.Content,
		}, nil, nil
	case proto.InboundTypeTyping:
		var typing proto.TypingData
		if err := json.Unmarshal(inbound.Data, &typing); err != nil {
			return nil, nil, err
		}
		if typing.Username == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "username is required"}, nil
		}
		return &core.Command{
			Kind:              core.CommandNotifyTyping,
			RecipientUsername: typing.Username,
		}, nil, nil
	case proto.InboundTypeHistory:
		var history proto.HistoryData
		if err := json.Unmarshal(inbound.Data, &history); err != nil {
			return nil, nil, err
		}
		if history.PeerID <= 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "peer_id is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandLoadHistory,
			PeerID: history.PeerID,
			Page:   history.Page,
			ReqID:  history.ReqID,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventNewMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessage,
			Data:  messageToPayload(event.Message),
		}
	case core.EventMessageSent:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageSent,
			Data:  messageToPayload(event.Message),
		}
	case core.EventUserConnected:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserConnected,
			Data: proto.UserPayload{
				ID:        event.User.ID,
				Username:  event.User.Username,
				Name:      event.User.Name,
				AvatarURL: event.User.AvatarURL,
			},
		}
	case core.EventRoster:
		roster := make([]proto.RosterEntryPayload, 0, len(event.Roster))
		for _, entry := range event.Roster {
			roster = append(roster, proto.RosterEntryPayload{
				ID:          entry.UserID,
				Username:    entry.Username,
				Name:        entry.Name,
				AvatarURL:   entry.AvatarURL,
				IsOnline:    entry.IsOnline,
				UnreadCount: entry.UnreadCount,
			})
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventRoster,
			Data:  roster,
		}
	case core.EventTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventTyping,
			Data:  proto.TypingPayload{From: event.From},
		}
	case core.EventHistory:
		messages := make([]proto.MessagePayload, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, messageToPayload(msg))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventHistory,
			Data: proto.HistoryPayload{
				PeerID:   event.PeerID,
				ReqID:    event.ReqID,
				Messages: messages,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func errorOutbound(protoErr *proto.Error) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr}
}

func messageToPayload(msg *store.Message) proto.MessagePayload {
	return proto.MessagePayload{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
		IsRead:     msg.IsRead,
	}
}
