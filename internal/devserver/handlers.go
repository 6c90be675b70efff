package devserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

func errorBody(msg string) proto.ErrorResponse {
	return proto.ErrorResponse{Error: msg}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req proto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	token, err := s.auth.Register(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusConflict, errorBody("user already exists"))
		case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		default:
			s.log.Error().Err(err).Msg("register failed")
			c.JSON(http.StatusInternalServerError, errorBody("internal server error"))
		}
		return
	}
	c.JSON(http.StatusCreated, proto.AuthResponse{Token: token})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req proto.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorBody("invalid credentials"))
		return
	}
	c.JSON(http.StatusOK, proto.AuthResponse{Token: token})
}

func (s *Server) handleHistory(c *gin.Context) {
	roomID, ok := pathID(c, "room")
	if !ok {
		return
	}
	if _, exists := s.state.room(roomID); !exists {
		c.JSON(http.StatusNotFound, errorBody("room not found"))
		return
	}

	history := s.state.history(roomID)
	out := make([]proto.MessageDTO, 0, len(history))
	for _, m := range history {
		out = append(out, proto.MessageDTO{
			MessageID: m.MessageID,
			UserID:    m.UserID,
			Username:  m.Username,
			Content:   m.Content,
			UpdatedAt: m.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSend(c *gin.Context) {
	roomID, ok := pathID(c, "room")
	if !ok {
		return
	}
	var req proto.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	userID := c.GetInt64(contextKeyUserID)
	username := c.GetString(contextKeyUsername)
	s.state.join(roomID, userID, username)

	m, err := s.state.addMessage(roomID, userID, username, req.Content)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, errorBody("room not found"))
			return
		}
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	// Broadcast to subscribers; the REST sender reconciles via the ack,
	// everyone else appends the broadcast.
	s.broadcastMessage(m, "")

	c.JSON(http.StatusCreated, proto.SendResponse{Message: "message sent", MessageID: m.MessageID})
}

func (s *Server) handleUpdate(c *gin.Context) {
	roomID, ok := pathID(c, "room")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "message")
	if !ok {
		return
	}
	var req proto.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	m, err := s.state.updateMessage(roomID, messageID, c.GetInt64(contextKeyUserID), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrMessageNotFound):
			c.JSON(http.StatusNotFound, errorBody("message not found"))
		case errors.Is(err, ErrNotAuthor):
			c.JSON(http.StatusForbidden, errorBody("not the message author"))
		default:
			c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}

	s.broadcastMessage(m, "")
	c.JSON(http.StatusOK, proto.UpdateResponse{Message: "message updated"})
}

func (s *Server) handleRoomInfo(c *gin.Context) {
	roomID, ok := pathID(c, "room")
	if !ok {
		return
	}
	room, exists := s.state.room(roomID)
	if !exists {
		c.JSON(http.StatusNotFound, errorBody("room not found"))
		return
	}

	c.JSON(http.StatusOK, proto.RoomDTO{
		ChatroomID:         room.ID,
		Title:              room.Title,
		IsPrivate:          room.IsPrivate,
		CreatorID:          room.CreatorID,
		MaxMembers:         room.MaxMembers,
		CurrentMemberCount: s.state.memberCount(roomID),
	})
}

func (s *Server) handleMembers(c *gin.Context) {
	roomID, ok := pathID(c, "room")
	if !ok {
		return
	}
	if _, exists := s.state.room(roomID); !exists {
		c.JSON(http.StatusNotFound, errorBody("room not found"))
		return
	}

	roster := s.state.roster(roomID)
	out := make([]proto.MemberDTO, 0, len(roster))
	for _, m := range roster {
		out = append(out, proto.MemberDTO{
			UserID:   m.UserID,
			Username: m.Username,
			JoinedAt: m.JoinedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateInvite(c *gin.Context) {
	var req proto.InviteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	code, err := s.state.createInvite(req.ChatroomID, c.GetInt64(contextKeyUserID))
	if err != nil {
		switch {
		case errors.Is(err, ErrRoomNotFound):
			c.JSON(http.StatusNotFound, errorBody("room not found"))
		case errors.Is(err, ErrNotCreator):
			c.JSON(http.StatusForbidden, errorBody("only the creator of a private room can issue invites"))
		default:
			c.JSON(http.StatusInternalServerError, errorBody("internal server error"))
		}
		return
	}
	c.JSON(http.StatusCreated, proto.InviteCreateResponse{Message: "invite created", InviteCode: code})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody("invalid "+name+" id"))
		return 0, false
	}
	return id, true
}
