package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const amountTolerance = 0.01

type PurchaseInput struct {
	StudentID     uuid.UUID
	CourseID      uuid.UUID
	Amount        float64
	PaymentMethod string
	TransactionID string
}

type AmountMismatchError struct {
	Expected float64
	Received float64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("Invalid payment amount. Expected: $%v, Received: $%v", e.Expected, e.Received)
}

func (e *AmountMismatchError) Unwrap() error { return ErrInvalidAmount }

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// PurchaseCourse records a payment and enrols the student. The duplicate
// check is read-then-write; the unique index turns a lost race into
// ErrAlreadyPurchased as well.
func PurchaseCourse(in PurchaseInput) (*models.Payment, error) {
	var course models.Course
	if err := database.DB.First(&course, "id = ?", in.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	var student models.User
	if err := database.DB.First(&student, "id = ?", in.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	var existing int64
	if err := database.DB.Model(&models.Payment{}).
		Where("student_id = ? AND course_id = ?", in.StudentID, in.CourseID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadyPurchased
	}

	if math.Abs(in.Amount-course.Cost) > amountTolerance {
		return nil, &AmountMismatchError{Expected: course.Cost, Received: in.Amount}
	}

	payment := models.Payment{
		StudentID:     in.StudentID,
		CourseID:      in.CourseID,
		Amount:        in.Amount,
		Status:        "completed",
		PaymentMethod: in.PaymentMethod,
		TransactionID: in.TransactionID,
	}
	if payment.PaymentMethod == "" {
		payment.PaymentMethod = "card"
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyPurchased
			}
			return err
		}
		return tx.Model(&student).Association("Courses").Append(&course)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

type CourseSales struct {
	CourseID      uuid.UUID `json:"courseId"`
	Title         string    `json:"title"`
	PurchaseCount int64     `json:"purchaseCount"`
	Revenue       float64   `json:"revenue"`
}

type PaymentStatistics struct {
	TotalPayments int64         `json:"totalPayments"`
	TotalRevenue  float64       `json:"totalRevenue"`
	TopCourses    []CourseSales `json:"topCourses"`
}

func PaymentStats() (*PaymentStatistics, error) {
	stats := &PaymentStatistics{TopCourses: []CourseSales{}}
	err := database.DB.Model(&models.Payment{}).
		Select("COUNT(*) AS total_payments, COALESCE(SUM(amount), 0) AS total_revenue").
		Row().Scan(&stats.TotalPayments, &stats.TotalRevenue)
	if err != nil {
		return nil, err
	}

	err = database.DB.Model(&models.Payment{}).
		Select("payments.course_id AS course_id, courses.title AS title, COUNT(*) AS purchase_count, COALESCE(SUM(payments.amount), 0) AS revenue").
		Joins("JOIN courses ON courses.id = payments.course_id").
		Group("payments.course_id, courses.title").
		Order("purchase_count desc").
		Limit(12).
		Scan(&stats.TopCourses).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
