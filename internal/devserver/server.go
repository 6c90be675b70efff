// Package devserver is a self-contained reference implementation of the
// chat server surface the client consumes: the REST endpoints, the bearer
// auth, and the per-room broadcast socket. It backs local development and
// the integration tests; it is not a production server.
package devserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	contextKeyUserID   = "user_id"
	contextKeyUsername = "username"
)

// Server bundles the REST router, the auth registry and the socket hub.
type Server struct {
	auth   *authService
	state  *state
	hub    *hub
	log    *zerolog.Logger
	engine *gin.Engine
}

// New builds a dev server signing tokens with secret.
func New(secret string, logger *zerolog.Logger) *Server {
	s := &Server{
		auth:  newAuthService([]byte(secret), 24*time.Hour),
		state: newState(),
		hub:   newHub(),
		log:   logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(s.loggerMiddleware())

	engine.POST("/api/auth/register", s.handleRegister)
	engine.POST("/api/auth/login", s.handleLogin)

	authed := engine.Group("/api", s.authMiddleware())
	authed.GET("/messages/:room", s.handleHistory)
	authed.POST("/messages/:room", s.handleSend)
	authed.PUT("/messages/:room/:message", s.handleUpdate)
	authed.GET("/chatrooms/:room", s.handleRoomInfo)
	authed.GET("/chatrooms/:room/members", s.handleMembers)
	authed.POST("/invite/create", s.handleCreateInvite)

	engine.GET("/ws", s.handleSocket)

	s.engine = engine
	return s
}

// SeedRoom registers a room so clients can enter it.
func (s *Server) SeedRoom(r Room) {
	s.state.addRoom(r)
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down dev server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.claimsFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, errorBody("invalid token"))
			c.Abort()
			return
		}
		c.Set(contextKeyUserID, claims.UserID)
		c.Set(contextKeyUsername, claims.Username)
		c.Next()
	}
}

func (s *Server) claimsFromHeader(header string) (*Claims, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, ErrInvalidCredentials
	}
	return s.auth.ValidateToken(parts[1])
}
