package store

import (
	"context"
	"time"
)

// Message is one archived transcript entry. Only reconciled state is
// archived; tentative ids never leave the live timeline.
type Message struct {
	MessageID  int64
	AuthorID   int64
	AuthorName string
	Body       string
	UpdatedAt  time.Time
}

// TranscriptStore persists the reconciled timeline per room so the last
// transcript can be shown without a server round trip. It is a sink for
// the engine and a source for the history command only; archived state
// never feeds back into reconciliation.
type TranscriptStore interface {
	SaveTranscript(ctx context.Context, roomID int64, messages []Message) error
	LoadTranscript(ctx context.Context, roomID int64) ([]Message, error)
	Close() error
}
