package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// echoServer accepts one socket and, for every publish frame, broadcasts it
// back as a message event carrying the publisher's tentative id.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")

		ctx := r.Context()
		nextID := int64(100)
		for {
			var in proto.Inbound
			if err := wsjson.Read(ctx, conn, &in); err != nil {
				return
			}
			if in.Type != proto.InboundTypePublish {
				continue
			}
			var pub proto.PublishData
			if err := json.Unmarshal(in.Data, &pub); err != nil {
				return
			}
			frame, _ := json.Marshal(proto.MessageFrame{
				RoomID:      pub.RoomID,
				MessageID:   nextID,
				UserID:      7,
				Username:    "alice",
				Content:     pub.Content,
				UpdatedAt:   time.Now().UTC(),
				TentativeID: pub.TentativeID,
			})
			nextID++
			out := proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventMessage, Data: frame}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return
			}
		}
	}))
}

func dialTest(t *testing.T, srv *httptest.Server) *Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := Dial(ctx, url, "test-token", log.NewWithWriter("error", testWriter{t}))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func TestPublishEchoRoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	conn := dialTest(t, srv)
	if conn.State() != StateConnected {
		t.Fatalf("expected connected, got %v", conn.State())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := conn.Subscribe(ctx, 1); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := conn.Publish(ctx, 1, "hello", "tid-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := conn.Publish(ctx, 1, "world", "tid-2"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Frames arrive in transport order.
	for i, want := range []string{"hello", "world"} {
		select {
		case frame := <-conn.Frames():
			if frame.Message == nil || frame.Message.Content != want {
				t.Fatalf("frame %d: got %+v want body %q", i, frame, want)
			}
			if frame.Message.TentativeID == "" {
				t.Fatalf("echo lost the tentative id: %+v", frame.Message)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for frame %d", i)
		}
	}
}

func TestCloseIsTerminalAndIdempotent(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	conn := dialTest(t, srv)
	conn.Close()
	conn.Close()

	if conn.State() != StateDisconnected {
		t.Fatalf("expected disconnected, got %v", conn.State())
	}

	// The frame channel must close so teardown is observable.
	select {
	case _, open := <-conn.Frames():
		if open {
			t.Fatalf("expected closed frame channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("frame channel did not close")
	}

	if err := conn.Publish(context.Background(), 1, "late", ""); err != ErrClosed {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestServerDropClosesFrames(t *testing.T) {
	srv := echoServer(t)
	conn := dialTest(t, srv)

	srv.CloseClientConnections()

	select {
	case _, open := <-conn.Frames():
		if open {
			t.Fatalf("expected channel close on drop")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("drop not observed")
	}
	if conn.State() != StateDisconnected {
		t.Fatalf("drop must be terminal, got %v", conn.State())
	}
}

func TestDialRejectedHandshake(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if _, err := Dial(ctx, url, "bad", log.NewWithWriter("error", testWriter{t})); err == nil {
		t.Fatalf("expected handshake failure")
	}
}
