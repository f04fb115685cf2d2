package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Test struct {
	Base
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Description   string                      `gorm:"type:text" json:"description,omitempty"`
	Topic         string                      `gorm:"size:255;not null" json:"topic"`
	Skill         string                      `gorm:"size:20;not null" json:"skill"`
	DurationMin   int                         `gorm:"not null" json:"durationMin"`
	CourseID      *uuid.UUID                  `gorm:"type:uuid;index" json:"courseId"`
	CreatedBy     *uuid.UUID                  `gorm:"type:uuid;index" json:"createdBy"`
	NumQuestions  int                         `gorm:"not null;default:10" json:"numQuestions"`
	QuestionTypes datatypes.JSONSlice[string] `json:"questionTypes"`
	ExamType      string                      `gorm:"size:10;not null" json:"examType"`
	PassingScore  float64                     `gorm:"not null;default:7" json:"passingScore"`
	MaxAttempts   *int                        `json:"maxAttempts,omitempty"`
	IsTheLastTest bool                        `gorm:"not null;default:false" json:"isTheLastTest"`
}
