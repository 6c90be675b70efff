package core

// EventKind is a notification the session emits to the rendering layer.
type EventKind int

const (
	// EventSnapshot delivers the freshly loaded timeline and roster.
	EventSnapshot EventKind = iota
	// EventAppended notifies about a new tail entry (local or broadcast).
	EventAppended
	// EventResolved notifies that a tentative entry gained its
	// authoritative id.
	EventResolved
	// EventRolledBack notifies that a failed send was removed.
	EventRolledBack
	// EventEdited notifies about an in-place body change.
	EventEdited
	// EventInviteIssued delivers a freshly created invite code.
	EventInviteIssued
	// EventDisconnected signals the terminal loss of the push connection.
	EventDisconnected
	// EventError reports a non-fatal failure (send, edit, history).
	EventError
)

// Event describes what happened in the session. Failures are events like
// everything else; nothing a room session does can crash the client.
type Event struct {
	Kind       EventKind
	Message    Message
	Messages   []Message
	Members    []Member
	InviteCode string
	Error      *CoreError
}
