package models

import (
	"time"
)

// Like is a presence relation, not a counter. At most one row exists per
// (user, template) pair; toggling removes it again.
type Like struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TemplateID uint      `json:"template_id" gorm:"not null;uniqueIndex:idx_likes_user_template"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_likes_user_template"`
	CreatedAt  time.Time `json:"created_at"`

	// Relationships
	Template Template `json:"template,omitempty"`
	User     User     `json:"user,omitempty"`
}
