package models

import (
	"time"
)

const (
	QuestionText     = "TEXT"
	QuestionTextarea = "TEXTAREA"
	QuestionNumber   = "NUMBER"
	QuestionCheckbox = "CHECKBOX"
)

type Question struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	TemplateID       uint      `json:"template_id" gorm:"not null"`
	Title            string    `json:"title" gorm:"not null"`
	Description      string    `json:"description"`
	Type             string    `json:"type" gorm:"not null"`
	DisplayedInTable bool      `json:"displayed_in_table" gorm:"not null;default:false"`
	Position         int       `json:"position" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relationships
	Template Template `json:"template,omitempty"`
	Options  []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

func ValidQuestionType(t string) bool {
	switch t {
	case QuestionText, QuestionTextarea, QuestionNumber, QuestionCheckbox:
		return true
	}
	return false
}

// ChoiceType reports whether a question type carries a fixed option set.
func ChoiceType(t string) bool {
	return t == QuestionCheckbox
}
