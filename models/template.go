package models

import (
	"time"
)

type Template struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	Topic       string    `json:"topic" gorm:"not null"`
	Public      bool      `json:"public" gorm:"not null;default:false"`
	AuthorID    uint      `json:"author_id" gorm:"not null"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Computed by the popular listing query, never stored.
	LikeCount int64 `json:"like_count,omitempty" gorm:"->;-:migration"`

	// Relationships
	Author       User       `json:"author,omitempty"`
	Questions    []Question `json:"questions,omitempty" gorm:"foreignKey:TemplateID"`
	Tags         []Tag      `json:"tags,omitempty" gorm:"many2many:template_tags;"`
	AllowedUsers []User     `json:"allowed_users,omitempty" gorm:"many2many:template_allowed_users;"`
	Forms        []Form     `json:"forms,omitempty" gorm:"foreignKey:TemplateID"`
	Comments     []Comment  `json:"comments,omitempty" gorm:"foreignKey:TemplateID"`
	Likes        []Like     `json:"likes,omitempty" gorm:"foreignKey:TemplateID"`
}
