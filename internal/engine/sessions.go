package engine

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// SessionInfo summarizes one engine.
type SessionInfo struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Groups     int       `json:"groups"`
	TotalPages int       `json:"total_pages"`
	SeedState  string    `json:"seed_state"`
}

// Sessions holds independent engines keyed by id.
type Sessions struct {
	mu       sync.RWMutex
	cfg      Config
	sessions map[string]*Engine
}

// NewSessions creates an empty store whose engines are built from cfg.
func NewSessions(cfg Config) *Sessions {
	return &Sessions{
		cfg:      cfg,
		sessions: make(map[string]*Engine),
	}
}

// Config returns the configuration new engines are built from.
func (s *Sessions) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig replaces the configuration used for engines created later.
func (s *Sessions) SetConfig(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Create starts a new engine.
func (s *Sessions) Create() *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := New(s.cfg)
	s.sessions[e.ID()] = e
	return e
}

// Get returns an engine by id.
func (s *Sessions) Get(id string) (*Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// Delete discards an engine and its model.
func (s *Sessions) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List summarizes every engine, oldest first.
func (s *Sessions) List() []SessionInfo {
	s.mu.RLock()
	engines := make([]*Engine, 0, len(s.sessions))
	for _, e := range s.sessions {
		engines = append(engines, e)
	}
	s.mu.RUnlock()

	sort.Slice(engines, func(i, j int) bool {
		return engines[i].CreatedAt().Before(engines[j].CreatedAt())
	})

	out := make([]SessionInfo, len(engines))
	for i, e := range engines {
		out[i] = Info(e)
	}
	return out
}

// Info summarizes e.
func Info(e *Engine) SessionInfo {
	return SessionInfo{
		ID:         e.ID(),
		CreatedAt:  e.CreatedAt(),
		Groups:     len(e.Groups()),
		TotalPages: e.TotalPages(),
		SeedState:  string(e.SeedState()),
	}
}
