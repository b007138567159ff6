package service

import (
	"errors"
	"sync"
	"time"

	"samilabs.app/pulse/common/id"
	"samilabs.app/pulse/internal/conversation"
)

var ErrSessionNotFound = errors.New("session not found")

// sessionEntry serialises access to one conversation. Different sessions
// proceed independently.
type sessionEntry struct {
	mu        sync.Mutex
	id        int64
	session   *conversation.Session
	createdAt time.Time
}

// sessionStore keeps sessions in process memory for the lifetime of the
// server. Sessions are not persisted.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*sessionEntry
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*sessionEntry)}
}

func (s *sessionStore) add(session *conversation.Session) *sessionEntry {
	e := &sessionEntry{id: id.New(), session: session, createdAt: time.Now()}
	s.mu.Lock()
	s.sessions[e.id] = e
	s.mu.Unlock()
	return e
}

func (s *sessionStore) get(sessionID int64) (*sessionEntry, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s *sessionStore) delete(sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}
