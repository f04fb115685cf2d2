package models

import "github.com/google/uuid"

type Review struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"courseId"`
	Rating   int       `gorm:"not null" json:"rating"`
	Content  string    `gorm:"type:text;not null" json:"content"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
