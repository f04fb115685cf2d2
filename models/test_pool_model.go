package models

import (
	"time"

	"github.com/google/uuid"
)

type TestPool struct {
	Base
	BaseTestID uuid.UUID  `gorm:"type:uuid;not null;index" json:"baseTestId"`
	Level      string     `gorm:"size:50;not null;index" json:"level"`
	CreatedBy  *uuid.UUID `gorm:"type:uuid;index" json:"createdBy"`
	UsageCount int        `gorm:"not null;default:0" json:"usageCount"`
	MaxReuse   int        `gorm:"not null;default:10" json:"maxReuse"`
	Status     string     `gorm:"size:10;not null;default:'active'" json:"status"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`

	BaseTest *Test `gorm:"foreignKey:BaseTestID" json:"baseTest,omitempty"`
}
