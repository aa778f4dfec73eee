package models

import (
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Name      string    `json:"name"`
	Role      string    `json:"role" gorm:"not null;default:'USER'"`
	Language  string    `json:"language" gorm:"not null;default:'ENGLISH'"`
	Theme     string    `json:"theme" gorm:"not null;default:'LIGHT'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Templates []Template `json:"templates,omitempty" gorm:"foreignKey:AuthorID"`
	Forms     []Form     `json:"forms,omitempty" gorm:"foreignKey:UserID"`
	Comments  []Comment  `json:"comments,omitempty" gorm:"foreignKey:UserID"`
	Likes     []Like     `json:"likes,omitempty" gorm:"foreignKey:UserID"`
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
