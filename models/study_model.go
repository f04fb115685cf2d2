package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StudyLogLesson = "lesson"
	StudyLogTest   = "test"
)

type StudyLog struct {
	Base
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index:idx_study_log_user_date" json:"userId"`
	LessonID        *uuid.UUID `gorm:"type:uuid" json:"lessonId"`
	TestID          *uuid.UUID `gorm:"type:uuid" json:"testId"`
	Type            string     `gorm:"size:10;not null" json:"type"`
	DurationSeconds int        `gorm:"not null" json:"durationSeconds"`
	Date            time.Time  `gorm:"not null;index:idx_study_log_user_date" json:"date"`
}

type DailyStat struct {
	Day             int         `json:"day"`
	Exercises       []uuid.UUID `json:"exercises"`
	Lessons         []uuid.UUID `json:"lessons"`
	DurationSeconds int         `json:"durationSeconds"`
}

type StudyStats struct {
	Base
	UserID     uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_study_stats_month" json:"userId"`
	Year       int                            `gorm:"not null;uniqueIndex:idx_study_stats_month" json:"year"`
	Month      int                            `gorm:"not null;uniqueIndex:idx_study_stats_month" json:"month"`
	DailyStats datatypes.JSONSlice[DailyStat] `json:"dailyStats"`
}
