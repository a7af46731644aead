// Package session holds the signed-in identity of the client: the bearer
// token and the user profile, persisted under two durable keys, and the
// authentication state machine that moves between them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trackswift/internal/models"
)

// Session is the only shared state of the client. It is passed explicitly
// to whatever needs it and guards itself.
type Session struct {
	mu      sync.RWMutex
	storage Storage
	state   State
	log     zerolog.Logger
}

func New(storage Storage, log zerolog.Logger) *Session {
	return &Session{storage: storage, log: log}
}

func (s *Session) dispatch(e Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state.Status
	s.state = Transition(s.state, e)
	if prev != s.state.Status {
		s.log.Debug().Str("from", prev.String()).Str("to", s.state.Status.String()).Msg("session state changed")
	}
	return s.state
}

// Init restores a stored session. A token without a readable profile, or
// the reverse, counts as no session.
func (s *Session) Init(ctx context.Context) error {
	s.dispatch(Started{})

	token, err := s.storage.Get(ctx, KeyToken)
	if errors.Is(err, ErrKeyNotFound) {
		s.dispatch(RestoreMissing{})
		return nil
	}
	if err != nil {
		s.dispatch(Failed{Err: err})
		return err
	}

	raw, err := s.storage.Get(ctx, KeyUser)
	if errors.Is(err, ErrKeyNotFound) || (err == nil && (raw == "" || raw == "null")) {
		s.dispatch(RestoreMissing{})
		return nil
	}
	if err != nil {
		s.dispatch(Failed{Err: err})
		return err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || token == "" {
		s.log.Warn().Err(err).Msg("stored session unreadable, discarding")
		_ = s.storage.Delete(ctx, KeyToken, KeyUser)
		s.dispatch(RestoreMissing{})
		return nil
	}

	s.dispatch(Restored{Token: token, User: user})
	return nil
}

// Login persists token and user together, then authenticates.
func (s *Session) Login(ctx context.Context, token string, user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.storage.SetAll(ctx, map[string]string{KeyToken: token, KeyUser: string(raw)}); err != nil {
		s.dispatch(Failed{Err: err})
		return err
	}
	s.dispatch(LoggedIn{Token: token, User: user})
	return nil
}

// Logout clears both keys.
func (s *Session) Logout(ctx context.Context) error {
	err := s.storage.Delete(ctx, KeyToken, KeyUser)
	s.dispatch(LoggedOut{})
	return err
}

// Unauthorized tears the session down after a 401. The state always ends
// unauthenticated, even if storage cannot be cleared.
func (s *Session) Unauthorized() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, KeyToken, KeyUser); err != nil {
		s.log.Error().Err(err).Msg("failed to clear stored session")
	}
	s.dispatch(Unauthorized{})
}

// Fail records a request failure.
func (s *Session) Fail(err error) {
	s.dispatch(Failed{Err: err})
}

func (s *Session) ClearError() {
	s.dispatch(ErrorCleared{})
}

// --- ACCESSORS ---

// State returns a copy of the current machine state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Status
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// User returns a copy of the profile, or nil when signed out.
func (s *Session) User() *models.User {
	return s.State().User
}

func (s *Session) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Err
}

func (s *Session) IsAuthenticated() bool {
	return s.Status() == Authenticated
}

func (s *Session) IsAdmin() bool {
	u := s.User()
	return u != nil && u.Role == models.RoleAdmin
}

func (s *Session) TenantID() string {
	if u := s.User(); u != nil {
		return u.TenantID
	}
	return ""
}

func (s *Session) CompanyName() string {
	if u := s.User(); u != nil {
		return u.CompanyName
	}
	return ""
}
