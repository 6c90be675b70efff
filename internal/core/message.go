package core

import "time"

// Message is one entry of the room timeline.
//
// Identity is either the server-assigned ID (authoritative, stable once
// known) or the client-assigned TentativeID while a send is awaiting
// reconciliation. Exactly one of them identifies the entry at a time: a
// reconciled entry carries ID and an empty TentativeID.
type Message struct {
	ID          int64
	TentativeID string
	AuthorID    int64
	AuthorName  string
	Body        string
	UpdatedAt   time.Time
}

// Resolved reports whether the entry carries its authoritative identifier.
func (m Message) Resolved() bool {
	return m.ID != 0
}
