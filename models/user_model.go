package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type User struct {
	Base
	FullName      string     `gorm:"size:255;not null" json:"fullName"`
	Email         string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone         string     `gorm:"size:20;uniqueIndex" json:"phone"`
	Password      string     `gorm:"not null" json:"-"`
	Role          string     `gorm:"size:20;not null;default:'student'" json:"role"`
	Dob           *time.Time `json:"dob,omitempty"`
	Gender        string     `gorm:"size:10" json:"gender,omitempty"`
	WalletAddress *string    `gorm:"size:42;uniqueIndex" json:"walletAddress"`
	AvatarURL     string     `gorm:"size:255" json:"avatarUrl,omitempty"`
	Organization  string     `gorm:"size:255" json:"organization,omitempty"`
	Status        string     `gorm:"size:10;not null;default:'active'" json:"status"`

	CurrentLevel        ExamLevels                  `gorm:"embedded;embeddedPrefix:current_level_" json:"currentLevel"`
	StudyHoursPerWeek   float64                     `json:"studyHoursPerWeek"`
	LearningGoals       string                      `gorm:"type:text" json:"learningGoals,omitempty"`
	LearningPreferences datatypes.JSONSlice[string] `json:"learningPreferences"`
	StudyMethods        datatypes.JSONSlice[string] `json:"studyMethods"`

	Courses []*Course `gorm:"many2many:user_courses;" json:"courses,omitempty"`
}

func (u *User) Wallet() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}
