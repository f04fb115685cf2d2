package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Course struct {
	Base
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Description   string                      `gorm:"type:text;not null" json:"description"`
	TeacherID     uuid.UUID                   `gorm:"type:uuid;not null" json:"teacherId"`
	CourseType    string                      `gorm:"size:10;not null" json:"courseType"`
	CourseLevel   string                      `gorm:"size:50;not null" json:"courseLevel"`
	ThumbnailURL  string                      `gorm:"size:255" json:"thumbnailUrl,omitempty"`
	Category      string                      `gorm:"size:100" json:"category,omitempty"`
	Tags          datatypes.JSONSlice[string] `json:"tags"`
	Cost          float64                     `gorm:"type:numeric(10,2);not null" json:"cost"`
	DurationHours float64                     `json:"durationHours"`

	Reviews        []Review        `gorm:"foreignKey:CourseID" json:"reviews,omitempty"`
	GrammarLessons []GrammarLesson `gorm:"foreignKey:CourseID" json:"grammarLessons,omitempty"`
}
