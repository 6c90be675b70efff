package devserver

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// wsClient is one connected socket with its outbound queue.
type wsClient struct {
	userID   int64
	username string
	conn     *websocket.Conn
	send     chan proto.Outbound
}

// hub fans broadcast frames out to the sockets subscribed per room.
type hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*wsClient]struct{}
}

func newHub() *hub {
	return &hub{rooms: make(map[int64]map[*wsClient]struct{})}
}

func (h *hub) subscribe(roomID int64, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*wsClient]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
}

func (h *hub) unsubscribe(roomID int64, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *hub) drop(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID, conns := range h.rooms {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *hub) broadcast(roomID int64, out proto.Outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		select {
		case c.send <- out:
		default:
			// Drop if slow consumer.
		}
	}
}

func (c *wsClient) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out, ok := <-c.send:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, c.conn, out); err != nil {
				return
			}
		}
	}
}
