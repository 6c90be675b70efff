package proto

import "time"

// REST request and response bodies, field names per the chat API.

// MessageDTO is one entry of the history snapshot.
type MessageDTO struct {
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberDTO is one entry of the room roster.
type MemberDTO struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// RoomDTO describes a chatroom: identity, privacy and creator. The client
// captures it once on room entry; invite gating reads is_private and
// creator_id from here.
type RoomDTO struct {
	ChatroomID         int64  `json:"chatroom_id"`
	Title              string `json:"title"`
	IsPrivate          bool   `json:"is_private"`
	CreatorID          int64  `json:"creator_id"`
	MaxMembers         int    `json:"max_members"`
	CurrentMemberCount int    `json:"current_member_count"`
}

// SendRequest is the body of POST /api/messages/{room}.
type SendRequest struct {
	Content string `json:"content"`
}

// SendResponse acknowledges a REST send with the authoritative id.
type SendResponse struct {
	Message   string `json:"message"`
	MessageID int64  `json:"message_id"`
}

// UpdateRequest is the body of PUT /api/messages/{room}/{message}.
type UpdateRequest struct {
	Content string `json:"content"`
}

// UpdateResponse confirms an edit commit.
type UpdateResponse struct {
	Message string `json:"message"`
}

// InviteCreateRequest asks for an invite code for a private room.
type InviteCreateRequest struct {
	ChatroomID int64 `json:"chatroom_id"`
}

// InviteCreateResponse carries the issued invite code.
type InviteCreateResponse struct {
	Message    string `json:"message"`
	InviteCode string `json:"invite_code"`
}

// AuthRequest is the body of the register and login endpoints.
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries the bearer token.
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the uniform REST error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
