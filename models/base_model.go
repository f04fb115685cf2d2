package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every entity. IDs are assigned in Go so the schema
// carries no database-specific default.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ExamLevels holds a per-exam proficiency label, e.g. {"TOEIC": "650"}.
type ExamLevels struct {
	TOEIC string `gorm:"size:50" json:"TOEIC,omitempty"`
	IELTS string `gorm:"size:50" json:"IELTS,omitempty"`
}
