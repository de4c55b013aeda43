// Package session keeps a client's bearer tokens and user snapshot across
// process restarts and tracks the session lifecycle.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/treasury-api/internal/models"
)

// Persisted keys.
const (
	TokenKey = "treasury.auth.token"
	UserKey  = "treasury.auth.user"
)

// ErrNoSession is returned when an operation needs an active session.
var ErrNoSession = errors.New("session: no active session")

// KeyValue is the persistence backend.
type KeyValue interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(keys ...string) error
}

// State is a session lifecycle state.
type State int

const (
	NoSession State = iota
	Authenticating
	Active
	Expired
	LoggedOut
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case Authenticating:
		return "authenticating"
	case Active:
		return "active"
	case Expired:
		return "expired"
	case LoggedOut:
		return "logged_out"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Tokens is the persisted token object.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// Store is the session state machine over a KeyValue backend.
type Store struct {
	kv     KeyValue
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Store in the NoSession state. Call Restore to pick up persisted state.
func New(kv KeyValue, opts ...Option) *Store {
	s := &Store{kv: kv, logger: zap.NewNop(), now: time.Now, state: NoSession}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state. Expired and LoggedOut are reported
// once, after which the store rests in NoSession.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st == Expired || st == LoggedOut {
		s.state = NoSession
	}
	return st
}

// Begin marks that credentials are being exchanged with the server.
func (s *Store) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Authenticating
}

// Fail returns an in-flight authentication to NoSession without touching storage.
func (s *Store) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Authenticating {
		s.state = NoSession
	}
}

// Activate persists server-validated tokens and the user snapshot. If either
// write fails, both keys are cleared.
func (s *Store) Activate(tokens Tokens, user models.UserInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(tokens, user); err != nil {
		s.clearLocked(NoSession)
		return err
	}
	s.state = Active
	return nil
}

// Replace swaps the tokens of an active session, e.g. after a refresh.
func (s *Store) Replace(tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return ErrNoSession
	}
	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := s.kv.Set(TokenKey, raw); err != nil {
		s.clearLocked(NoSession)
		return fmt.Errorf("persist tokens: %w", err)
	}
	return nil
}

// Restore reloads persisted state at start-up. Any failure or an expired token
// results in NoSession; errors are logged, never returned.
func (s *Store) Restore() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil || tokens == nil {
		if err != nil {
			s.logger.Warn("discarding unreadable session", zap.Error(err))
		}
		s.clearLocked(NoSession)
		return s.state
	}
	if _, err := s.readUser(); err != nil {
		s.logger.Warn("discarding unreadable session user", zap.Error(err))
		s.clearLocked(NoSession)
		return s.state
	}
	if s.expired(tokens) {
		s.clearLocked(NoSession)
		return s.state
	}
	s.state = Active
	return s.state
}

// Token returns the stored tokens, or nil when there are none. An expired token
// clears the session and yields nil.
func (s *Store) Token() (*Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, nil
	}
	if s.expired(tokens) {
		s.clearLocked(Expired)
		return nil, nil
	}
	return tokens, nil
}

// User returns the stored user snapshot, or nil.
func (s *Store) User() (*models.UserInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readUser()
}

// IsExpired reports whether the stored token expired. A missing token counts as expired.
func (s *Store) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil || tokens == nil {
		return true
	}
	return s.expired(tokens)
}

// IsSessionValid reports whether both a live token and a user snapshot are stored.
func (s *Store) IsSessionValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil || tokens == nil || s.expired(tokens) {
		return false
	}
	user, err := s.readUser()
	return err == nil && user != nil
}

// UserFromToken decodes the access token payload without verifying its
// signature. The server remains the authority; this only serves display. An
// expired or undecodable token clears the session and returns nil.
func (s *Store) UserFromToken() *models.JWTClaims {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.readTokens()
	if err != nil || tokens == nil {
		return nil
	}

	if s.expired(tokens) {
		s.clearLocked(Expired)
		return nil
	}

	claims := &models.JWTClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokens.AccessToken, claims); err != nil {
		s.logger.Warn("undecodable access token", zap.Error(err))
		s.clearLocked(NoSession)
		return nil
	}
	// Either expiry ends the session.
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(s.now()) {
		s.clearLocked(Expired)
		return nil
	}
	return claims
}

// Logout clears persisted state.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(LoggedOut)
}

func (s *Store) write(tokens Tokens, user models.UserInfo) error {
	rawTokens, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.Set(TokenKey, rawTokens); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	if err := s.kv.Set(UserKey, rawUser); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func (s *Store) readTokens() (*Tokens, error) {
	raw, ok, err := s.kv.Get(TokenKey)
	if err != nil || !ok {
		return nil, err
	}
	var tokens Tokens
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}
	return &tokens, nil
}

func (s *Store) readUser() (*models.UserInfo, error) {
	raw, ok, err := s.kv.Get(UserKey)
	if err != nil || !ok {
		return nil, err
	}
	var user models.UserInfo
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func (s *Store) expired(t *Tokens) bool {
	return t.ExpiresAt.Before(s.now())
}

// clearLocked removes both keys together and moves to the given state.
func (s *Store) clearLocked(terminal State) error {
	err := s.kv.Delete(TokenKey, UserKey)
	if err != nil {
		s.logger.Warn("failed to clear session", zap.Error(err))
	}
	s.state = terminal
	return err
}
