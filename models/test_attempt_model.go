package models

import "github.com/google/uuid"

// CustomPoolID marks attempts on AI-generated tests that belong to no pool.
var CustomPoolID = uuid.Nil

type TestAttempt struct {
	Base
	TestPoolID      uuid.UUID `gorm:"type:uuid;not null;index" json:"testPoolId"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	TestID          uuid.UUID `gorm:"type:uuid;not null;index" json:"testId"`
	AttemptNumber   int       `gorm:"not null;default:0" json:"attemptNumber"`
	MaxAttempts     int       `gorm:"not null;default:3" json:"maxAttempts"`
	Score           float64   `gorm:"not null;default:0" json:"score"`
	Feedback        string    `gorm:"type:text" json:"feedback"`
	EvaluationModel string    `gorm:"size:50;not null;default:'gemini'" json:"evaluationModel"`
	IsPassed        bool      `gorm:"not null;default:false" json:"isPassed"`

	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Test     *Test     `gorm:"foreignKey:TestID" json:"test,omitempty"`
	TestPool *TestPool `gorm:"foreignKey:TestPoolID" json:"testPool,omitempty"`
}
