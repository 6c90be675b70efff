package devserver_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/api"
	"github.com/vovakirdan/wirechat-client/internal/devserver"
	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

type testStack struct {
	http   *httptest.Server
	wsURL  string
	server *devserver.Server
}

func newStack(t *testing.T) *testStack {
	t.Helper()

	logger := log.NewWithWriter("error", testWriter{t})
	srv := devserver.New("test-secret", logger)
	srv.SeedRoom(devserver.Room{ID: 1, Title: "lobby", IsPrivate: false, MaxMembers: 50})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testStack{
		http:   ts,
		wsURL:  "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		server: srv,
	}
}

func (s *testStack) register(t *testing.T, username string) (*api.Client, string) {
	t.Helper()

	logger := log.NewWithWriter("error", testWriter{t})
	anon := api.New(s.http.URL, "", 5*time.Second, logger)

	token, err := anon.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return anon.WithToken(token), token
}

func (s *testStack) dial(t *testing.T, token string) *ws.Conn {
	t.Helper()

	logger := log.NewWithWriter("error", testWriter{t})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := ws.Dial(ctx, s.wsURL, token, logger)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

func nextFrame(t *testing.T, conn *ws.Conn) ws.Frame {
	t.Helper()
	select {
	case frame, ok := <-conn.Frames():
		if !ok {
			t.Fatalf("frame channel closed while waiting for delivery")
		}
		return frame
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a frame")
	}
	return ws.Frame{}
}

func TestPublishEchoesTentativeID(t *testing.T) {
	stack := newStack(t)
	_, token := stack.register(t, "alice")
	conn := stack.dial(t, token)
	ctx := context.Background()

	if err := conn.Subscribe(ctx, 1); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := conn.Publish(ctx, 1, "hello there", "tid-42"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	frame := nextFrame(t, conn)
	if frame.Message == nil {
		t.Fatalf("expected a message frame, got %+v", frame)
	}
	m := frame.Message
	if m.TentativeID != "tid-42" {
		t.Fatalf("echo must carry the publisher's tentative id, got %q", m.TentativeID)
	}
	if m.MessageID == 0 || m.Content != "hello there" || m.Username != "alice" {
		t.Fatalf("unexpected echo: %+v", m)
	}
}

func TestRestSendBroadcastsWithoutTentativeID(t *testing.T) {
	stack := newStack(t)
	alice, token := stack.register(t, "alice")
	conn := stack.dial(t, token)
	ctx := context.Background()

	if err := conn.Subscribe(ctx, 1); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	id, err := alice.SendMessage(ctx, 1, "over rest")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	frame := nextFrame(t, conn)
	if frame.Message == nil || frame.Message.MessageID != id {
		t.Fatalf("expected broadcast for message %d, got %+v", id, frame)
	}
	if frame.Message.TentativeID != "" {
		t.Fatalf("a rest send has no tentative id to echo, got %q", frame.Message.TentativeID)
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	stack := newStack(t)
	_, aliceToken := stack.register(t, "alice")
	_, bobToken := stack.register(t, "bobby")
	aliceConn := stack.dial(t, aliceToken)
	bobConn := stack.dial(t, bobToken)
	ctx := context.Background()

	for _, conn := range []*ws.Conn{aliceConn, bobConn} {
		if err := conn.Subscribe(ctx, 1); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	if err := aliceConn.Publish(ctx, 1, "to everyone", "tid-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	aliceFrame := nextFrame(t, aliceConn)
	bobFrame := nextFrame(t, bobConn)
	if aliceFrame.Message == nil || bobFrame.Message == nil {
		t.Fatalf("both subscribers must see the broadcast")
	}
	if aliceFrame.Message.MessageID != bobFrame.Message.MessageID {
		t.Fatalf("subscribers saw different messages: %d vs %d",
			aliceFrame.Message.MessageID, bobFrame.Message.MessageID)
	}
	// Bob did not publish, so his copy has no tentative id of his own to
	// match; the id still rides the frame and exact matching only applies
	// to the sender's pending set.
	if aliceFrame.Message.TentativeID != "tid-1" {
		t.Fatalf("sender's echo lost the tentative id: %+v", aliceFrame.Message)
	}
}

func TestSubscribeUnknownRoom(t *testing.T) {
	stack := newStack(t)
	_, token := stack.register(t, "alice")
	conn := stack.dial(t, token)

	if err := conn.Subscribe(context.Background(), 999); err != nil {
		t.Fatalf("subscribe write: %v", err)
	}

	frame := nextFrame(t, conn)
	if frame.ProtocolErr == nil || frame.ProtocolErr.Code != "room_not_found" {
		t.Fatalf("expected room_not_found, got %+v", frame)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	stack := newStack(t)
	_, aliceToken := stack.register(t, "alice")
	_, bobToken := stack.register(t, "bobby")
	aliceConn := stack.dial(t, aliceToken)
	bobConn := stack.dial(t, bobToken)
	ctx := context.Background()

	for _, conn := range []*ws.Conn{aliceConn, bobConn} {
		if err := conn.Subscribe(ctx, 1); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}
	if err := bobConn.Unsubscribe(ctx, 1); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	// Bob's unsubscribe and Alice's publish travel on different sockets,
	// so give the server a moment to process the unsubscribe first.
	time.Sleep(100 * time.Millisecond)

	if err := aliceConn.Publish(ctx, 1, "bob should miss this", "tid-9"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	nextFrame(t, aliceConn)

	select {
	case frame := <-bobConn.Frames():
		t.Fatalf("unsubscribed socket still got %+v", frame)
	case <-time.After(200 * time.Millisecond):
	}
}
