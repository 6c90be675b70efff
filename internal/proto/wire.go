package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for frames the client sends over the socket.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeSubscribe   = "subscribe"
	InboundTypeUnsubscribe = "unsubscribe"
	InboundTypePublish     = "publish"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventMessage = "message"
)

// SubscribeData requests delivery of a room's broadcast feed.
type SubscribeData struct {
	RoomID int64 `json:"room_id"`
}

// PublishData carries a fire-and-forget send over the socket.
// TentativeID is client-chosen and echoed back on the broadcast so the
// sender can correlate its own echo exactly.
type PublishData struct {
	RoomID      int64  `json:"room_id"`
	Content     string `json:"content"`
	TentativeID string `json:"tentative_id,omitempty"`
}

// Outbound is the envelope for frames the server sends to the client.
type Outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// MessageFrame is a broadcast chat message.
type MessageFrame struct {
	RoomID      int64     `json:"room_id"`
	MessageID   int64     `json:"message_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Content     string    `json:"content"`
	UpdatedAt   time.Time `json:"updated_at"`
	TentativeID string    `json:"tentative_id,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
