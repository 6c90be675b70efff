package core

import "errors"

// Error codes surfaced to the rendering layer.
const (
	ErrCodeSendFailed   = "send_failed"
	ErrCodeSendTimeout  = "send_timeout"
	ErrCodeEditRejected = "edit_rejected"
	ErrCodeDisconnected = "disconnected"
	ErrCodeBadRequest   = "bad_request"
)

var (
	ErrEmptyBody       = errors.New("message body is empty")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAuthor       = errors.New("not the message author")
	ErrNoActiveEdit    = errors.New("no edit in progress")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}
