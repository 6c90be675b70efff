package devserver

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUsername    = errors.New("username must be 3-32 characters")
	ErrInvalidPassword    = errors.New("password must be at least 6 characters")
)

// Claims are the token claims the client decodes on its side.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type user struct {
	ID           int64
	Username     string
	PasswordHash string
}

// authService is an in-memory credential registry with HS256 tokens.
// Development fixture only: it mirrors the production auth surface without
// persistence.
type authService struct {
	secret []byte
	ttl    time.Duration

	mu     sync.Mutex
	users  map[string]*user
	nextID int64
}

func newAuthService(secret []byte, ttl time.Duration) *authService {
	return &authService{
		secret: secret,
		ttl:    ttl,
		users:  make(map[string]*user),
		nextID: 1,
	}
}

func (a *authService) Register(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return "", ErrInvalidUsername
	}
	if len(password) < 6 {
		return "", ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.users[username]; exists {
		return "", ErrUserExists
	}
	u := &user{ID: a.nextID, Username: username, PasswordHash: string(hash)}
	a.nextID++
	a.users[username] = u

	return a.issueToken(u)
}

func (a *authService) Login(username, password string) (string, error) {
	a.mu.Lock()
	u, ok := a.users[strings.TrimSpace(username)]
	a.mu.Unlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return a.issueToken(u)
}

func (a *authService) issueToken(u *user) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "wirechat-devserver",
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
