package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// Sentinel errors mapped from REST status codes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Client is the typed REST surface of the chat server. Every call is a
// single request with no retry: failures are terminal at the point of
// occurrence and the caller decides what to show.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zerolog.Logger
}

// New builds a client for the given server. token may be empty until login.
func New(baseURL, token string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// WithToken returns a copy of the client authenticated with token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Register creates an account and returns the bearer token.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var resp proto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		proto.AuthRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return resp.Token, nil
}

// Login exchanges credentials for the bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp proto.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		proto.AuthRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return resp.Token, nil
}

// Messages fetches the room's history snapshot, all-or-nothing.
func (c *Client) Messages(ctx context.Context, roomID int64) ([]proto.MessageDTO, error) {
	var resp []proto.MessageDTO
	path := fmt.Sprintf("/api/messages/%d", roomID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return resp, nil
}

// Room fetches the room's metadata: title, privacy and creator.
func (c *Client) Room(ctx context.Context, roomID int64) (proto.RoomDTO, error) {
	var resp proto.RoomDTO
	path := fmt.Sprintf("/api/chatrooms/%d", roomID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return proto.RoomDTO{}, fmt.Errorf("load room: %w", err)
	}
	return resp, nil
}

// Members fetches the room roster, all-or-nothing.
func (c *Client) Members(ctx context.Context, roomID int64) ([]proto.MemberDTO, error) {
	var resp []proto.MemberDTO
	path := fmt.Sprintf("/api/chatrooms/%d/members", roomID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return resp, nil
}

// SendMessage posts a message and returns the authoritative id from the ack.
func (c *Client) SendMessage(ctx context.Context, roomID int64, content string) (int64, error) {
	var resp proto.SendResponse
	path := fmt.Sprintf("/api/messages/%d", roomID)
	if err := c.do(ctx, http.MethodPost, path, proto.SendRequest{Content: content}, &resp); err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return resp.MessageID, nil
}

// UpdateMessage commits an edit to an own message.
func (c *Client) UpdateMessage(ctx context.Context, roomID, messageID int64, content string) error {
	path := fmt.Sprintf("/api/messages/%d/%d", roomID, messageID)
	var resp proto.UpdateResponse
	if err := c.do(ctx, http.MethodPut, path, proto.UpdateRequest{Content: content}, &resp); err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// CreateInvite asks the server for a fresh invite code. The caller gates
// this behind core.CanIssueInvite; the server checks again.
func (c *Client) CreateInvite(ctx context.Context, roomID int64) (string, error) {
	var resp proto.InviteCreateResponse
	err := c.do(ctx, http.MethodPost, "/api/invite/create",
		proto.InviteCreateRequest{ChatroomID: roomID}, &resp)
	if err != nil {
		return "", fmt.Errorf("create invite: %w", err)
	}
	return resp.InviteCode, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	var body proto.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	c.log.Debug().Int("status", resp.StatusCode).Str("error", msg).Msg("api error")

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	default:
		return errors.New(msg)
	}
}
