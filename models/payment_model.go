package models

import "github.com/google/uuid"

type Payment struct {
	Base
	StudentID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_payment_student_course" json:"studentId"`
	CourseID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_payment_student_course" json:"courseId"`
	Amount        float64   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status        string    `gorm:"size:20;not null;default:'completed'" json:"status"`
	PaymentMethod string    `gorm:"size:30;not null;default:'card'" json:"paymentMethod"`
	TransactionID string    `gorm:"size:255" json:"transactionId,omitempty"`

	Student *User   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Course  *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
