package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProcessedAnswer is the scored snapshot of one submitted answer.
// IsCorrect stays nil for question types that are graded downstream.
type ProcessedAnswer struct {
	QuestionID         uuid.UUID  `json:"questionId"`
	QuestionText       string     `json:"questionText"`
	SelectedOptionID   *uuid.UUID `json:"selectedOptionId,omitempty"`
	SelectedOptionText string     `json:"selectedOptionText"`
	IsCorrect          *bool      `json:"isCorrect"`
	Score              float64    `json:"score"`
}

type AttemptDetail struct {
	Base
	AttemptID      uuid.UUID                            `gorm:"type:uuid;not null;index" json:"attemptId"`
	AttemptNumber  int                                  `gorm:"not null" json:"attemptNumber"`
	StartTime      time.Time                            `json:"startTime"`
	EndTime        *time.Time                           `json:"endTime"`
	Answers        datatypes.JSONSlice[ProcessedAnswer] `json:"answers"`
	AnalysisResult datatypes.JSON                       `json:"analysisResult"`
	TotalScore     float64                              `gorm:"not null;default:0" json:"totalScore"`
	SubmittedAt    time.Time                            `json:"submittedAt"`
}
