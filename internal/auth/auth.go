package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sadopc/timesetor/internal/clock"
	"github.com/sadopc/timesetor/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakInput          = errors.New("username and password are required")
)

// Store is the persistence the auth service needs.
type Store interface {
	CreateUser(username, passwordHash string, settings map[string]string) (*store.User, error)
	GetUser(id int64) (*store.User, error)
	GetUserByName(username string) (*store.User, error)
	CreateToken(token string, userID int64, expiresAt time.Time) error
	GetToken(token string) (*store.Token, error)
	DeleteToken(token string) error
	DeleteExpiredTokens(now time.Time) (int64, error)
}

// Session is an issued bearer token.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service registers users and issues and verifies tokens.
type Service struct {
	store    Store
	clock    clock.Clock
	cost     int
	expiry   time.Duration
	defaults func() map[string]string
}

// Options tune a Service. Zero values fall back to bcrypt.DefaultCost and 24h.
type Options struct {
	BcryptCost  int
	TokenExpiry time.Duration
	// Defaults returns the settings stored for a freshly registered user.
	Defaults func() map[string]string
}

func NewService(st Store, clk clock.Clock, opts Options) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.TokenExpiry <= 0 {
		opts.TokenExpiry = 24 * time.Hour
	}
	return &Service{
		store:    st,
		clock:    clk,
		cost:     opts.BcryptCost,
		expiry:   opts.TokenExpiry,
		defaults: opts.Defaults,
	}
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(username, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrWeakInput
	}
	if _, err := s.store.GetUserByName(username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	var settings map[string]string
	if s.defaults != nil {
		settings = s.defaults()
	}
	u, err := s.store.CreateUser(username, string(hash), settings)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}
	return u, nil
}

// Login checks credentials and issues a new token.
func (s *Service) Login(username, password string) (*Session, error) {
	u, err := s.store.GetUserByName(strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		Username:  u.Username,
		ExpiresAt: s.clock.Now().Add(s.expiry),
	}
	if err := s.store.CreateToken(sess.Token, u.ID, sess.ExpiresAt); err != nil {
		return nil, err
	}
	return sess, nil
}

// Verify returns the user a token belongs to.
func (s *Service) Verify(token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	t, err := s.store.GetToken(token)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrInvalidToken
	}
	if err != nil {
		return 0, err
	}
	if !t.ExpiresAt.After(s.clock.Now()) {
		return 0, ErrInvalidToken
	}
	return t.UserID, nil
}

// Logout revokes a token.
func (s *Service) Logout(token string) error {
	return s.store.DeleteToken(token)
}

// Prune drops expired tokens.
func (s *Service) Prune() (int64, error) {
	return s.store.DeleteExpiredTokens(s.clock.Now())
}
