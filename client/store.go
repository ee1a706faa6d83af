package client

import (
	"sync"

	"github.com/menamiji/info-class/core/auth"
)

// SessionStore persists the session credential between calls so that
// implementations can be swapped (in-memory, encrypted, server-side).
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Get retrieves the stored session. Returns false if none is stored.
	Get() (auth.Session, bool)
	// Set stores or replaces the session.
	Set(sess auth.Session)
	// Clear removes the stored session, if any.
	Clear()
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mutex sync.RWMutex
	sess  *auth.Session
}

var _ SessionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (auth.Session, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.sess == nil {
		return auth.Session{}, false
	}
	return *s.sess, true
}

func (s *MemoryStore) Set(sess auth.Session) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sess = &sess
}

func (s *MemoryStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sess = nil
}
