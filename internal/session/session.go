// Package session owns the authenticated identity and credential, both
// in-memory and on disk. It is the only writer of either; everything else
// reads through Token and Identity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"otx/internal/api"
	"otx/internal/domain"
)

// ErrNotPersisted reports a login that succeeded in memory but could not be
// written to disk; the session will not survive a restart. The returned
// identity is still valid.
var ErrNotPersisted = errors.New("session not persisted")

// Authenticator exchanges credentials for a token and identity.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
}

// AuthError is a login failure carrying the server's message when it sent
// one.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return "login failed"
}

func (e *AuthError) Unwrap() error { return e.Err }

// state is the durable on-disk form.
type state struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Store holds the current session. Safe for concurrent reads from fetch
// commands; mutation happens only through Login, Logout, and Restore.
type Store struct {
	path string

	mu       sync.RWMutex
	token    string
	identity *domain.User
}

// NewStore creates a store persisting to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Restore hydrates in-memory state from disk. Called once at startup,
// before any authenticated fetch, so the UI can decide between the login
// view and the dashboard without a flash of the wrong one. A missing or
// partial file leaves the store unauthenticated without error.
func (s *Store) Restore() error {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read session file: %w", err)
	}
	var st state
	if err := json.Unmarshal(content, &st); err != nil {
		// A corrupt session file is treated as logged out, not fatal.
		return nil
	}
	if strings.TrimSpace(st.Token) == "" || st.User == nil || st.User.ID == "" {
		return nil
	}
	s.mu.Lock()
	s.token = st.Token
	s.identity = st.User
	s.mu.Unlock()
	return nil
}

// Login authenticates and, on success, establishes the session in memory
// and on disk.
func (s *Store) Login(ctx context.Context, auth Authenticator, email, password string) (domain.User, error) {
	result, err := auth.Login(ctx, email, password)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			return domain.User{}, &AuthError{Message: apiErr.Message, Err: err}
		}
		return domain.User{}, &AuthError{Err: err}
	}
	if strings.TrimSpace(result.Token) == "" || result.User.ID == "" {
		return domain.User{}, &AuthError{Message: "incomplete login response"}
	}

	user := result.User
	s.mu.Lock()
	s.token = result.Token
	s.identity = &user
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		// The in-memory session still works for this run.
		return user, fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}
	return user, nil
}

// Logout clears memory and removes the durable file. Idempotent.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Token returns the current bearer credential, empty when logged out.
// Satisfies the gateway's credential source.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the authenticated user, if any.
func (s *Store) Identity() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return domain.User{}, false
	}
	return *s.identity, true
}

// Authenticated reports whether both a credential and identity are held.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.identity != nil
}

func (s *Store) persist() error {
	s.mu.RLock()
	st := state{Token: s.token, User: s.identity}
	s.mu.RUnlock()

	encoded, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, encoded, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
