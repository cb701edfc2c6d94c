package models

import (
	"gorm.io/gorm"
)

// Post kinds
const (
	PostKindFeed  = "feed"
	PostKindStory = "story"
)

// PublishedPost records a successful Instagram publish. Append-only;
// written best-effort after each publish call succeeds.
type PublishedPost struct {
	gorm.Model
	PhoneNumber string `json:"phone_number" gorm:"index"`
	MediaID     string `json:"media_id"`
	Kind        string `json:"kind"` // "feed" or "story"
	ImageURL    string `json:"image_url"`
	Caption     string `json:"caption"`
}
