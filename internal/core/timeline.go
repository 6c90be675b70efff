package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IngestResult says what IngestBroadcast did with a frame.
type IngestResult int

const (
	// IngestAppended means the frame became a new tail entry.
	IngestAppended IngestResult = iota
	// IngestResolved means the frame was the echo of an own pending send
	// and collapsed into the existing tentative entry.
	IngestResolved
	// IngestIgnored means the frame duplicated an entry already present.
	IngestIgnored
)

// Timeline is the append-ordered, duplicate-free message sequence shown to
// the user, together with the pending sends awaiting reconciliation.
//
// It is not safe for concurrent use: all mutation happens on the room
// session's event loop goroutine, and the rendering layer only ever sees
// copies handed out by Entries.
type Timeline struct {
	selfID     int64
	selfName   string
	echoWindow time.Duration
	now        func() time.Time

	entries     []Message
	byID        map[int64]int
	byTentative map[string]int
	pending     *pendingSet
}

// NewTimeline builds an empty timeline for the given local identity.
// echoWindow bounds how long an optimistic send may wait for its echo or
// acknowledgment before it is eligible for rollback.
func NewTimeline(selfID int64, selfName string, echoWindow time.Duration) *Timeline {
	return &Timeline{
		selfID:      selfID,
		selfName:    selfName,
		echoWindow:  echoWindow,
		now:         time.Now,
		byID:        make(map[int64]int),
		byTentative: make(map[string]int),
		pending:     newPendingSet(),
	}
}

// SetClock overrides the time source. Tests only.
func (t *Timeline) SetClock(now func() time.Time) {
	t.now = now
}

// LoadSnapshot replaces the timeline wholesale with the history fetch
// result. An empty snapshot is valid and renders as "no messages". Any
// pending state is discarded: a snapshot marks room (re-)entry.
func (t *Timeline) LoadSnapshot(messages []Message) {
	t.entries = t.entries[:0]
	t.byID = make(map[int64]int)
	t.byTentative = make(map[string]int)
	t.pending = newPendingSet()

	for _, m := range messages {
		if m.ID == 0 {
			continue
		}
		if _, dup := t.byID[m.ID]; dup {
			continue
		}
		m.TentativeID = ""
		t.byID[m.ID] = len(t.entries)
		t.entries = append(t.entries, m)
	}
}

// AppendLocalOptimistic inserts a tentative entry at the tail, attributed
// to the local user with the local clock, and registers the pending send.
// It never touches the network; the entry is visible immediately.
func (t *Timeline) AppendLocalOptimistic(body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, ErrEmptyBody
	}

	now := t.now()
	m := Message{
		TentativeID: uuid.NewString(),
		AuthorID:    t.selfID,
		AuthorName:  t.selfName,
		Body:        body,
		UpdatedAt:   now,
	}

	t.byTentative[m.TentativeID] = len(t.entries)
	t.entries = append(t.entries, m)
	t.pending.add(&PendingSend{
		TentativeID: m.TentativeID,
		Body:        body,
		SubmittedAt: now,
		Deadline:    now.Add(t.echoWindow),
	})
	return m, nil
}

// ResolveSend replaces the tentative entry's identity with the
// authoritative one, in place, preserving its position. Returns false when
// the tentative id is unknown (already resolved, rolled back, or expired).
func (t *Timeline) ResolveSend(tentativeID string, serverID int64, updatedAt time.Time) (Message, bool) {
	idx, ok := t.byTentative[tentativeID]
	if !ok {
		return Message{}, false
	}
	t.pending.remove(tentativeID)
	delete(t.byTentative, tentativeID)

	if existing, dup := t.byID[serverID]; dup {
		// The authoritative entry is already present (ack and echo both
		// landed); collapse by dropping the tentative copy.
		t.removeAt(idx)
		if existing > idx {
			existing--
		}
		return t.entries[existing], true
	}

	m := &t.entries[idx]
	m.ID = serverID
	m.TentativeID = ""
	if !updatedAt.IsZero() {
		m.UpdatedAt = updatedAt
	}
	t.byID[serverID] = idx
	return *m, true
}

// RollbackSend removes the tentative entry entirely. Idempotent: rolling
// back an unknown or already-rolled-back id is a no-op.
func (t *Timeline) RollbackSend(tentativeID string) (Message, bool) {
	idx, ok := t.byTentative[tentativeID]
	if !ok {
		return Message{}, false
	}
	removed := t.entries[idx]
	t.pending.remove(tentativeID)
	delete(t.byTentative, tentativeID)
	t.removeAt(idx)
	return removed, true
}

// IngestBroadcast folds one push-delivered frame into the timeline.
// Frames from other authors append in arrival order. Frames authored by the
// local user are first matched against pending sends: exactly by echoed
// tentative id, then heuristically by body against the oldest unexpired
// pending. Unmatched own frames (sent from another session) append normally.
func (t *Timeline) IngestBroadcast(m Message) (Message, IngestResult) {
	if m.ID != 0 {
		if idx, dup := t.byID[m.ID]; dup {
			return t.entries[idx], IngestIgnored
		}
	}

	if m.TentativeID != "" {
		if _, ours := t.pending.get(m.TentativeID); ours {
			resolved, ok := t.ResolveSend(m.TentativeID, m.ID, m.UpdatedAt)
			if ok {
				return resolved, IngestResolved
			}
		}
	}

	if m.AuthorID == t.selfID {
		if ps, ok := t.pending.matchOldestByBody(m.Body, t.now()); ok {
			resolved, ok := t.ResolveSend(ps.TentativeID, m.ID, m.UpdatedAt)
			if ok {
				return resolved, IngestResolved
			}
		}
	}

	m.TentativeID = ""
	if m.ID != 0 {
		t.byID[m.ID] = len(t.entries)
	}
	t.entries = append(t.entries, m)
	return m, IngestAppended
}

// ApplyEdit mutates the entry's body and timestamp in place without moving
// it.
func (t *Timeline) ApplyEdit(messageID int64, body string, updatedAt time.Time) (Message, error) {
	idx, ok := t.byID[messageID]
	if !ok {
		return Message{}, ErrMessageNotFound
	}
	m := &t.entries[idx]
	m.Body = body
	m.UpdatedAt = updatedAt
	return *m, nil
}

// ExpirePending rolls back every pending send whose wait window has passed
// and returns the removed entries so the caller can surface the failures.
func (t *Timeline) ExpirePending() []Message {
	var removed []Message
	for _, id := range t.pending.expired(t.now()) {
		if m, ok := t.RollbackSend(id); ok {
			removed = append(removed, m)
		}
	}
	return removed
}

// Get returns the entry with the given resolved id.
func (t *Timeline) Get(messageID int64) (Message, bool) {
	idx, ok := t.byID[messageID]
	if !ok {
		return Message{}, false
	}
	return t.entries[idx], true
}

// Entries returns a copy of the timeline in display order.
func (t *Timeline) Entries() []Message {
	out := make([]Message, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of visible entries.
func (t *Timeline) Len() int {
	return len(t.entries)
}

// PendingCount returns the number of sends still awaiting reconciliation.
func (t *Timeline) PendingCount() int {
	return t.pending.len()
}

func (t *Timeline) removeAt(idx int) {
	t.entries = append(t.entries[:idx], t.entries[idx+1:]...)
	for i := idx; i < len(t.entries); i++ {
		m := t.entries[i]
		if m.ID != 0 {
			t.byID[m.ID] = i
		}
		if m.TentativeID != "" {
			t.byTentative[m.TentativeID] = i
		}
	}
}
