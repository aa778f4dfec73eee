package models

import (
	"time"
)

type Option struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	QuestionID uint      `json:"question_id" gorm:"not null"`
	Value      string    `json:"value" gorm:"not null"`
	Position   int       `json:"position" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Question Question `json:"question,omitempty"`
}
