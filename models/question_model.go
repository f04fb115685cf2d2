package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const QuestionTypeMultipleChoice = "multiple_choice"

type Question struct {
	Base
	TestID       uuid.UUID                   `gorm:"type:uuid;not null;index" json:"testId"`
	AttemptID    *uuid.UUID                  `gorm:"type:uuid;index" json:"attemptId,omitempty"`
	QuestionText string                      `gorm:"type:text;not null" json:"questionText"`
	QuestionType string                      `gorm:"size:30;not null" json:"questionType"`
	Options      []QuestionOption            `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options"`
	AudioURL     string                      `gorm:"size:255" json:"audioUrl,omitempty"`
	ImageURL     string                      `gorm:"size:255" json:"imageUrl,omitempty"`
	Points       float64                     `gorm:"not null;default:1" json:"points"`
	Descriptions string                      `gorm:"type:text" json:"descriptions,omitempty"`
	Skill        string                      `gorm:"size:20" json:"skill,omitempty"`
	Topic        datatypes.JSONSlice[string] `json:"topic"`
	Tag          datatypes.JSONSlice[string] `json:"tag"`
	CreatedBy    *uuid.UUID                  `gorm:"type:uuid;index" json:"createdBy,omitempty"`
	Level        ExamLevels                  `gorm:"embedded;embeddedPrefix:level_" json:"level"`
}

// QuestionOption position is zero-based; position 0 answers to letter "A".
type QuestionOption struct {
	Base
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	OptionText string    `gorm:"type:text;not null" json:"optionText"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"isCorrect"`
	Position   int       `gorm:"not null" json:"-"`
}

func (q *Question) CorrectOption() *QuestionOption {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}
