package client

import (
	"context"

	"github.com/vovakirdan/wirechat-client/internal/config"
)

// SendStrategy transmits one optimistic send. The two deployments differ in
// how the authoritative id comes back: the request/response path returns it
// directly as an ack, the fire-and-forget path returns 0 and relies on the
// broadcast echo to reconcile.
type SendStrategy interface {
	Transmit(ctx context.Context, roomID int64, body, tentativeID string) (ackID int64, err error)
}

type restStrategy struct {
	api RoomAPI
}

func (s restStrategy) Transmit(ctx context.Context, roomID int64, body, _ string) (int64, error) {
	return s.api.SendMessage(ctx, roomID, body)
}

type publishStrategy struct {
	conn FrameSource
}

func (s publishStrategy) Transmit(ctx context.Context, roomID int64, body, tentativeID string) (int64, error) {
	return 0, s.conn.Publish(ctx, roomID, body, tentativeID)
}

// NewSendStrategy picks the configured transmission policy.
func NewSendStrategy(mode config.SendMode, api RoomAPI, conn FrameSource) SendStrategy {
	if mode == config.SendModePublish {
		return publishStrategy{conn: conn}
	}
	return restStrategy{api: api}
}
