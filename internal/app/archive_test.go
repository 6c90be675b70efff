package app

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/store/sqlite"
)

func TestArchiveSkipsUnresolvedEntries(t *testing.T) {
	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	arch := NewTranscriptArchive(st)
	now := time.Now()
	err = arch.SaveTranscript(context.Background(), 1, []core.Message{
		{ID: 10, AuthorID: 7, AuthorName: "alice", Body: "kept", UpdatedAt: now},
		{TentativeID: "tid-1", AuthorID: 7, AuthorName: "alice", Body: "still pending"},
		{ID: 11, AuthorID: 8, AuthorName: "bobby", Body: "also kept", UpdatedAt: now},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := st.LoadTranscript(context.Background(), 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].MessageID != 10 || got[1].MessageID != 11 {
		t.Fatalf("unexpected transcript: %+v", got)
	}
}
