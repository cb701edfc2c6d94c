package storage

import (
	"github.com/postforge/postforge-backend/internal/models"
)

// Store defines the interface for storage operations
type Store interface {
	// Session operations
	GetOrCreateSession(phone string) (*models.Session, error)
	UpdateSession(session *models.Session) error
	CountSessions() (int64, error)

	// Published post operations
	SavePublishedPost(post *models.PublishedPost) error
	CountPublishedPosts() (int64, error)
}
