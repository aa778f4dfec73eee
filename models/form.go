package models

import (
	"time"
)

type Form struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TemplateID uint      `json:"template_id" gorm:"not null"`
	UserID     uint      `json:"user_id" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Template Template `json:"template,omitempty"`
	User     User     `json:"user,omitempty"`
	Answers  []Answer `json:"answers,omitempty" gorm:"foreignKey:FormID"`
}
