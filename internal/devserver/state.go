package devserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotAuthor       = errors.New("not the message author")
	ErrNotCreator      = errors.New("only the room creator may do this")
)

// Room is a chat room as the dev server tracks it.
type Room struct {
	ID         int64
	Title      string
	IsPrivate  bool
	CreatorID  int64
	MaxMembers int
}

// StoredMessage is a persisted message.
type StoredMessage struct {
	MessageID int64
	RoomID    int64
	UserID    int64
	Username  string
	Content   string
	UpdatedAt time.Time
}

// Membership is one roster entry.
type Membership struct {
	UserID   int64
	Username string
	JoinedAt time.Time
}

// state is the in-memory room/message registry behind the REST surface.
type state struct {
	mu sync.Mutex

	rooms    map[int64]*Room
	members  map[int64][]Membership
	messages map[int64][]StoredMessage
	invites  map[string]int64

	nextMessageID int64
}

func newState() *state {
	return &state{
		rooms:         make(map[int64]*Room),
		members:       make(map[int64][]Membership),
		messages:      make(map[int64][]StoredMessage),
		invites:       make(map[string]int64),
		nextMessageID: 1,
	}
}

func (s *state) addRoom(r Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := r
	s.rooms[r.ID] = &room
}

func (s *state) room(roomID int64) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return Room{}, false
	}
	return *r, true
}

func (s *state) memberCount(roomID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members[roomID])
}

func (s *state) join(roomID, userID int64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[roomID] {
		if m.UserID == userID {
			return
		}
	}
	s.members[roomID] = append(s.members[roomID], Membership{
		UserID:   userID,
		Username: username,
		JoinedAt: time.Now().UTC(),
	})
}

func (s *state) roster(roomID int64) []Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Membership, len(s.members[roomID]))
	copy(out, s.members[roomID])
	return out
}

func (s *state) addMessage(roomID, userID int64, username, content string) (StoredMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return StoredMessage{}, errors.New("empty message")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return StoredMessage{}, ErrRoomNotFound
	}
	m := StoredMessage{
		MessageID: s.nextMessageID,
		RoomID:    roomID,
		UserID:    userID,
		Username:  username,
		Content:   content,
		UpdatedAt: time.Now().UTC(),
	}
	s.nextMessageID++
	s.messages[roomID] = append(s.messages[roomID], m)
	return m, nil
}

func (s *state) updateMessage(roomID, messageID, userID int64, content string) (StoredMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return StoredMessage{}, errors.New("empty message")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[roomID]
	for i := range msgs {
		if msgs[i].MessageID != messageID {
			continue
		}
		if msgs[i].UserID != userID {
			return StoredMessage{}, ErrNotAuthor
		}
		msgs[i].Content = content
		msgs[i].UpdatedAt = time.Now().UTC()
		return msgs[i], nil
	}
	return StoredMessage{}, ErrMessageNotFound
}

func (s *state) history(roomID int64) []StoredMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredMessage, len(s.messages[roomID]))
	copy(out, s.messages[roomID])
	return out
}

func (s *state) createInvite(roomID, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return "", ErrRoomNotFound
	}
	if !r.IsPrivate || r.CreatorID != userID {
		return "", ErrNotCreator
	}
	code := strings.ToUpper(uuid.NewString()[:8])
	s.invites[code] = roomID
	return code, nil
}
