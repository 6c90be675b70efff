package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrBadToken is returned when the bearer token cannot be decoded.
var ErrBadToken = errors.New("malformed bearer token")

// Context holds the authenticated identity for the lifetime of a room
// session. It is built once at login and passed explicitly into the core;
// nothing re-reads ambient state mid-session.
type Context struct {
	UserID   int64
	Username string
	Token    string
}

// Room is the read-only room context captured at room entry.
type Room struct {
	RoomID             int64
	Title              string
	IsPrivate          bool
	CreatorID          int64
	MaxMembers         int
	CurrentMemberCount int
}

// Claims mirrors the server's token claims.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// FromToken builds a session context by decoding the token's claims.
// The signature is not verified here: the server is the authority and
// rejects forged tokens on every call; the client only needs the identity
// fields to attribute its own messages.
func FromToken(token string) (Context, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Context{}, ErrBadToken
	}

	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Context{}, fmt.Errorf("decode token claims: %w", err)
	}
	if claims.UserID == 0 {
		return Context{}, ErrBadToken
	}

	return Context{
		UserID:   claims.UserID,
		Username: claims.Username,
		Token:    token,
	}, nil
}
