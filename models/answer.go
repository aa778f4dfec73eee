package models

import (
	"time"
)

// Answer stores the submitted value as a string regardless of the question's
// declared type; no coercion happens at write time.
type Answer struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FormID     uint      `json:"form_id" gorm:"not null"`
	QuestionID uint      `json:"question_id" gorm:"not null"`
	Value      string    `json:"value" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Form     Form     `json:"form,omitempty"`
	Question Question `json:"question,omitempty"`
}
