package app

import (
	"context"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/store"
)

// TranscriptArchive adapts a transcript store to the room session's
// Archiver hook. Unresolved entries are skipped: a message the server never
// confirmed has no durable identity worth keeping.
type TranscriptArchive struct {
	store store.TranscriptStore
}

func NewTranscriptArchive(s store.TranscriptStore) *TranscriptArchive {
	return &TranscriptArchive{store: s}
}

func (a *TranscriptArchive) SaveTranscript(ctx context.Context, roomID int64, messages []core.Message) error {
	out := make([]store.Message, 0, len(messages))
	for _, m := range messages {
		if !m.Resolved() {
			continue
		}
		out = append(out, store.Message{
			MessageID:  m.ID,
			AuthorID:   m.AuthorID,
			AuthorName: m.AuthorName,
			Body:       m.Body,
			UpdatedAt:  m.UpdatedAt,
		})
	}
	return a.store.SaveTranscript(ctx, roomID, out)
}
