package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// State is the connection lifecycle phase.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrClosed is returned by writes on a terminally disconnected connection.
var ErrClosed = errors.New("connection closed")

// Frame is one inbound delivery: either a broadcast message or a
// protocol-level error from the server.
type Frame struct {
	Message     *proto.MessageFrame
	ProtocolErr *proto.Error
}

// Conn owns the push subscription lifecycle. One reader goroutine delivers
// frames on a single channel in exactly the order the transport produced
// them; no buffering or reordering happens here. A dropped or closed
// connection is terminal: the frame channel closes and the state stays
// Disconnected. There is no automatic reconnect.
type Conn struct {
	conn   *websocket.Conn
	frames chan Frame
	state  atomic.Int32

	cancel    context.CancelFunc
	closeOnce sync.Once
	log       *zerolog.Logger
}

// Dial establishes the socket with the bearer credential on the handshake.
// A handshake failure is terminal; the caller reports it and decides
// whether to try again.
func Dial(ctx context.Context, socketURL, token string, logger *zerolog.Logger) (*Conn, error) {
	c := &Conn{
		frames: make(chan Frame, 32),
		log:    logger,
	}
	c.state.Store(int32(StateConnecting))

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.Dial(ctx, socketURL, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		return nil, fmt.Errorf("dial %s: %w", socketURL, err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.cancel = cancel
	c.state.Store(int32(StateConnected))

	go c.readLoop(readCtx)
	return c, nil
}

// Subscribe requests the room's broadcast feed.
func (c *Conn) Subscribe(ctx context.Context, roomID int64) error {
	return c.write(ctx, proto.InboundTypeSubscribe, proto.SubscribeData{RoomID: roomID})
}

// Unsubscribe releases the room's broadcast feed without closing the socket.
func (c *Conn) Unsubscribe(ctx context.Context, roomID int64) error {
	return c.write(ctx, proto.InboundTypeUnsubscribe, proto.SubscribeData{RoomID: roomID})
}

// Publish sends a message fire-and-forget. The tentative id travels with
// the frame so the broadcast echo can be correlated exactly.
func (c *Conn) Publish(ctx context.Context, roomID int64, content, tentativeID string) error {
	return c.write(ctx, proto.InboundTypePublish, proto.PublishData{
		RoomID:      roomID,
		Content:     content,
		TentativeID: tentativeID,
	})
}

// Frames returns the inbound delivery channel. It is closed exactly once,
// when the connection reaches its terminal Disconnected state, so draining
// it is a reliable teardown signal.
func (c *Conn) Frames() <-chan Frame {
	return c.frames
}

// State returns the current lifecycle phase.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Close tears the connection down deterministically: the subscription dies
// with the socket, the reader stops, and the frame channel closes. Calling
// Close twice is a no-op.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateDisconnected))
		c.cancel()
		_ = c.conn.Close(websocket.StatusNormalClosure, "leaving")
	})
}

func (c *Conn) write(ctx context.Context, frameType string, data any) error {
	if c.State() != StateConnected {
		return ErrClosed
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", frameType, err)
	}
	if err := wsjson.Write(ctx, c.conn, proto.Inbound{Type: frameType, Data: payload}); err != nil {
		return fmt.Errorf("write %s: %w", frameType, err)
	}
	return nil
}

func (c *Conn) readLoop(ctx context.Context) {
	defer func() {
		c.state.Store(int32(StateDisconnected))
		close(c.frames)
	}()

	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, c.conn, &out); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			c.log.Warn().Err(err).Msg("socket read failed")
			return
		}

		switch out.Type {
		case proto.OutboundTypeEvent:
			if out.Event != proto.EventMessage {
				c.log.Debug().Str("event", out.Event).Msg("ignoring unknown event")
				continue
			}
			var frame proto.MessageFrame
			if err := json.Unmarshal(out.Data, &frame); err != nil {
				c.log.Warn().Err(err).Msg("bad message frame")
				continue
			}
			select {
			case c.frames <- Frame{Message: &frame}:
			case <-ctx.Done():
				return
			}
		case proto.OutboundTypeError:
			select {
			case c.frames <- Frame{ProtocolErr: out.Error}:
			case <-ctx.Done():
				return
			}
		default:
			c.log.Debug().Str("type", out.Type).Msg("ignoring unknown frame type")
		}
	}
}
