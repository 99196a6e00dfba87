package session

import (
	"fmt"
	"sync"
	"time"

	"michi/internal/client/config"
)

// TokenStore persists the bearer token between runs
type TokenStore interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// FileStore keeps the session in the client config file
type FileStore struct {
	cfg *config.Config
}

// NewFileStore wraps a loaded client config
func NewFileStore(cfg *config.Config) *FileStore {
	return &FileStore{cfg: cfg}
}

// Load returns the saved session, or ErrNoSession
func (s *FileStore) Load() (State, error) {
	if s.cfg.Token == "" {
		return State{}, ErrNoSession
	}

	st := State{Token: s.cfg.Token}
	if s.cfg.TokenExpiry > 0 {
		st.ExpiresAt = time.Unix(s.cfg.TokenExpiry, 0)
	}
	if s.cfg.UserName != "" {
		st.User = &User{UserName: s.cfg.UserName}
	}
	return st, nil
}

// Save writes the token, its expiry and the user name
func (s *FileStore) Save(st State) error {
	s.cfg.Token = st.Token
	s.cfg.TokenExpiry = 0
	if !st.ExpiresAt.IsZero() {
		s.cfg.TokenExpiry = st.ExpiresAt.Unix()
	}
	s.cfg.UserName = st.UserName()

	if err := s.cfg.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear forgets the saved session
func (s *FileStore) Clear() error {
	return s.Save(State{})
}

// MemoryStore keeps the session for the life of the process
type MemoryStore struct {
	mu    sync.Mutex
	state State
	saved bool
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return State{}, ErrNoSession
	}
	return s.state, nil
}

func (s *MemoryStore) Save(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.saved = st.Token != ""
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Save(State{})
}
