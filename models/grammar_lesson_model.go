package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LessonPart struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
}

type GrammarLesson struct {
	Base
	Title     string                          `gorm:"size:255;not null" json:"title"`
	CourseID  uuid.UUID                       `gorm:"type:uuid;not null;index" json:"courseId"`
	Parts     datatypes.JSONSlice[LessonPart] `json:"parts"`
	Exercises datatypes.JSONSlice[uuid.UUID]  `json:"exercises"`
}
