package devserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

func (s *Server) handleSocket(c *gin.Context) {
	claims, err := s.claimsFromHeader(c.GetHeader("Authorization"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorBody("invalid token"))
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("socket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := &wsClient{
		userID:   claims.UserID,
		username: claims.Username,
		conn:     conn,
		send:     make(chan proto.Outbound, 32),
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	defer s.hub.drop(client)

	go client.writeLoop(ctx)

	s.readLoop(ctx, client)
	conn.Close(websocket.StatusNormalClosure, "bye")
}

func (s *Server) readLoop(ctx context.Context, client *wsClient) {
	for {
		var in proto.Inbound
		if err := wsjson.Read(ctx, client.conn, &in); err != nil {
			return
		}

		switch in.Type {
		case proto.InboundTypeSubscribe:
			var sub proto.SubscribeData
			if err := json.Unmarshal(in.Data, &sub); err != nil {
				s.sendError(client, "bad_request", "malformed subscribe")
				continue
			}
			if _, ok := s.state.room(sub.RoomID); !ok {
				s.sendError(client, "room_not_found", "room not found")
				continue
			}
			s.state.join(sub.RoomID, client.userID, client.username)
			s.hub.subscribe(sub.RoomID, client)
		case proto.InboundTypeUnsubscribe:
			var sub proto.SubscribeData
			if err := json.Unmarshal(in.Data, &sub); err != nil {
				s.sendError(client, "bad_request", "malformed unsubscribe")
				continue
			}
			s.hub.unsubscribe(sub.RoomID, client)
		case proto.InboundTypePublish:
			var pub proto.PublishData
			if err := json.Unmarshal(in.Data, &pub); err != nil {
				s.sendError(client, "bad_request", "malformed publish")
				continue
			}
			m, err := s.state.addMessage(pub.RoomID, client.userID, client.username, pub.Content)
			if err != nil {
				s.sendError(client, "bad_request", err.Error())
				continue
			}
			// The echo carries the publisher's tentative id so the sender
			// can correlate exactly instead of guessing by body.
			s.broadcastMessage(m, pub.TentativeID)
		default:
			s.sendError(client, "bad_request", "unknown frame type "+in.Type)
		}
	}
}

func (s *Server) broadcastMessage(m StoredMessage, tentativeID string) {
	frame, err := json.Marshal(proto.MessageFrame{
		RoomID:      m.RoomID,
		MessageID:   m.MessageID,
		UserID:      m.UserID,
		Username:    m.Username,
		Content:     m.Content,
		UpdatedAt:   m.UpdatedAt,
		TentativeID: tentativeID,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("marshal broadcast frame")
		return
	}
	s.hub.broadcast(m.RoomID, proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventMessage,
		Data:  frame,
	})
}

func (s *Server) sendError(client *wsClient, code, msg string) {
	select {
	case client.send <- proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	}:
	default:
	}
}
