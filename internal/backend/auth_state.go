package backend

import (
	"sync"

	"github.com/srikaanthtb/bolt-forum/internal/models"
)

// AuthState holds the current session of an Auth implementation and fans out
// changes to listeners. Listeners run synchronously, outside the lock.
type AuthState struct {
	mu        sync.Mutex
	session   *models.Session
	nextID    int
	listeners map[int]AuthListener
}

func (s *AuthState) Current() *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	session := *s.session
	return &session
}

// Set replaces the session and notifies listeners. A nil session means signed out.
func (s *AuthState) Set(event models.AuthEvent, session *models.Session) {
	s.mu.Lock()
	if session != nil {
		copied := *session
		session = &copied
	}
	s.session = session

	listeners := make([]AuthListener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		var snapshot *models.Session
		if session != nil {
			copied := *session
			snapshot = &copied
		}
		fn(event, snapshot)
	}
}

func (s *AuthState) Subscribe(fn AuthListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = map[int]AuthListener{}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
