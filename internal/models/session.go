package models

import (
	"gorm.io/gorm"
)

// Styles recognized by the "style:" command and the composer.
const (
	StyleMinimal = "minimal"
	StyleBold    = "bold"
	StylePastel  = "pastel"
)

// ValidStyle reports whether s is one of the supported styles.
func ValidStyle(s string) bool {
	switch s {
	case StyleMinimal, StyleBold, StylePastel:
		return true
	}
	return false
}

// Preview is the most recently generated, not-yet-necessarily-published
// artifact set for a sender.
type Preview struct {
	Caption       string `json:"caption"`
	FeedImageURL  string `json:"feed_image_url"`
	StoryImageURL string `json:"story_image_url"`
}

// Session stores per-sender conversation state for the WhatsApp bot.
// One record per phone number; created lazily on first contact.
type Session struct {
	gorm.Model
	PhoneNumber     string   `json:"phone_number" gorm:"uniqueIndex"`
	Profile         string   `json:"profile"`
	Style           string   `json:"style"`
	CaptionOptions  []string `json:"caption_options" gorm:"serializer:json"`
	Preview         *Preview `json:"preview" gorm:"serializer:json"`
	SelectedCaption *int     `json:"selected_caption"`
}

// NewSession returns a default session for a never-seen sender.
func NewSession(phone string) *Session {
	return &Session{
		PhoneNumber: phone,
		Style:       StyleMinimal,
	}
}

// SetPreview replaces the preview and caption options together for a
// new photo turn and clears any stale selection.
func (s *Session) SetPreview(p *Preview, options []string) {
	s.Preview = p
	s.CaptionOptions = options
	s.SelectedCaption = nil
}

// ClearCaptions drops caption state that referenced a superseded profile.
func (s *Session) ClearCaptions() {
	s.CaptionOptions = nil
	s.SelectedCaption = nil
}
