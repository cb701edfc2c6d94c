package storage

import (
	"sync"

	"github.com/postforge/postforge-backend/internal/models"
)

// MemoryStore holds all sessions in memory. This is the default store:
// conversation state is expendable and resets on restart. Safe for
// concurrent webhook deliveries from different senders; two
// near-simultaneous turns for the same sender are not serialized.
type MemoryStore struct {
	sessions map[string]*models.Session
	posts    []*models.PublishedPost

	sessionMu sync.RWMutex
	postMu    sync.Mutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
	}
}

// GetOrCreateSession returns the session for a phone number, creating
// a default one on first contact. Get-or-create is atomic.
func (m *MemoryStore) GetOrCreateSession(phone string) (*models.Session, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if session, exists := m.sessions[phone]; exists {
		return session, nil
	}

	session := models.NewSession(phone)
	m.sessions[phone] = session
	return session, nil
}

// UpdateSession is a no-op for the memory store: callers mutate the
// shared session record directly. Kept so the database store can
// persist the same call sites.
func (m *MemoryStore) UpdateSession(session *models.Session) error {
	return nil
}

// CountSessions returns the number of known senders.
func (m *MemoryStore) CountSessions() (int64, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()
	return int64(len(m.sessions)), nil
}

// SavePublishedPost appends a publish record.
func (m *MemoryStore) SavePublishedPost(post *models.PublishedPost) error {
	m.postMu.Lock()
	defer m.postMu.Unlock()
	m.posts = append(m.posts, post)
	return nil
}

// CountPublishedPosts returns the number of recorded publishes.
func (m *MemoryStore) CountPublishedPosts() (int64, error) {
	m.postMu.Lock()
	defer m.postMu.Unlock()
	return int64(len(m.posts)), nil
}
