package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/postforge/postforge-backend/internal/models"
)

// DatabaseStore persists sessions and publish records in Postgres.
// Opt-in via USE_DATABASE=true for deployments that want conversation
// state to survive restarts.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// GetOrCreateSession returns the session row for a phone number,
// inserting a default one on first contact.
func (d *DatabaseStore) GetOrCreateSession(phone string) (*models.Session, error) {
	session := models.NewSession(phone)
	result := d.db.Where(models.Session{PhoneNumber: phone}).
		Attrs(models.Session{Style: models.StyleMinimal}).
		FirstOrCreate(session)
	if result.Error != nil {
		return nil, fmt.Errorf("get or create session for %s: %w", phone, result.Error)
	}
	return session, nil
}

// UpdateSession saves the full session row.
func (d *DatabaseStore) UpdateSession(session *models.Session) error {
	if err := d.db.Save(session).Error; err != nil {
		return fmt.Errorf("update session for %s: %w", session.PhoneNumber, err)
	}
	return nil
}

// CountSessions returns the number of known senders.
func (d *DatabaseStore) CountSessions() (int64, error) {
	var count int64
	if err := d.db.Model(&models.Session{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SavePublishedPost inserts a publish record.
func (d *DatabaseStore) SavePublishedPost(post *models.PublishedPost) error {
	if err := d.db.Create(post).Error; err != nil {
		return fmt.Errorf("save published post: %w", err)
	}
	return nil
}

// CountPublishedPosts returns the number of recorded publishes.
func (d *DatabaseStore) CountPublishedPosts() (int64, error) {
	var count int64
	if err := d.db.Model(&models.PublishedPost{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
