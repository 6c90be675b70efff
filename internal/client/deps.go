package client

import (
	"context"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

// RoomAPI is the REST surface a room session consumes. *api.Client
// satisfies it; tests substitute fakes.
type RoomAPI interface {
	Messages(ctx context.Context, roomID int64) ([]proto.MessageDTO, error)
	Members(ctx context.Context, roomID int64) ([]proto.MemberDTO, error)
	SendMessage(ctx context.Context, roomID int64, content string) (int64, error)
	UpdateMessage(ctx context.Context, roomID, messageID int64, content string) error
	CreateInvite(ctx context.Context, roomID int64) (string, error)
}

// FrameSource is the push subscription as the session sees it: an ordered
// frame channel that closes on terminal disconnect, plus publish and
// teardown. *ws.Conn satisfies it.
type FrameSource interface {
	Frames() <-chan ws.Frame
	Publish(ctx context.Context, roomID int64, content, tentativeID string) error
	Close()
}
