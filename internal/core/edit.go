package core

import "strings"

// EditState is the edit session's phase.
type EditState int

const (
	// EditIdle means no message is being edited.
	EditIdle EditState = iota
	// EditEditing means one message has an open draft.
	EditEditing
)

// EditSession is the single-message in-place edit state machine. At most
// one draft exists at a time; beginning a new edit supersedes the old one
// and discards its draft. That is an intentional policy, not data loss: the
// stored message body is untouched until a commit succeeds.
type EditSession struct {
	state    EditState
	targetID int64
	draft    string
}

// NewEditSession starts in the idle state.
func NewEditSession() *EditSession {
	return &EditSession{}
}

// Begin opens a draft for the given message, superseding any open draft.
// The target must be an own, reconciled message; the check is advisory, the
// server enforces authorship again on commit.
func (e *EditSession) Begin(target Message, selfID int64) error {
	if !target.Resolved() {
		return ErrMessageNotFound
	}
	if target.AuthorID != selfID {
		return ErrNotAuthor
	}
	e.state = EditEditing
	e.targetID = target.ID
	e.draft = target.Body
	return nil
}

// SetDraft replaces the draft text.
func (e *EditSession) SetDraft(body string) {
	if e.state == EditEditing {
		e.draft = body
	}
}

// Commit validates the draft and returns the target id and trimmed body
// for transmission. The session stays in Editing until Finish or Cancel, so
// a failed commit keeps the draft for retry.
func (e *EditSession) Commit() (int64, string, error) {
	if e.state != EditEditing {
		return 0, "", ErrNoActiveEdit
	}
	body := strings.TrimSpace(e.draft)
	if body == "" {
		return 0, "", ErrEmptyBody
	}
	return e.targetID, body, nil
}

// Finish returns to idle after a successful commit.
func (e *EditSession) Finish() {
	e.reset()
}

// Cancel discards the draft and returns to idle.
func (e *EditSession) Cancel() {
	e.reset()
}

// Active reports whether a draft is open.
func (e *EditSession) Active() bool {
	return e.state == EditEditing
}

// Target returns the id of the message being edited, 0 when idle.
func (e *EditSession) Target() int64 {
	if e.state != EditEditing {
		return 0
	}
	return e.targetID
}

// Draft returns the current draft text.
func (e *EditSession) Draft() string {
	return e.draft
}

func (e *EditSession) reset() {
	e.state = EditIdle
	e.targetID = 0
	e.draft = ""
}
