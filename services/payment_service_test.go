package services

import (
	"errors"
	"testing"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/testutil"
	"github.com/google/uuid"
)

func TestPurchaseCourse(t *testing.T) {
	testutil.DB(t)
	student := seedStudent(t, "")
	course := seedCourse(t, 49.99)

	payment, err := PurchaseCourse(PurchaseInput{StudentID: student.ID, CourseID: course.ID, Amount: 49.99})
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if payment.Status != "completed" || payment.PaymentMethod != "card" {
		t.Fatalf("payment = %+v", payment)
	}

	var enrolled models.User
	if err := database.DB.Preload("Courses").First(&enrolled, "id = ?", student.ID).Error; err != nil {
		t.Fatalf("reload student: %v", err)
	}
	if len(enrolled.Courses) != 1 || enrolled.Courses[0].ID != course.ID {
		t.Fatalf("student courses = %v", enrolled.Courses)
	}

	_, err = PurchaseCourse(PurchaseInput{StudentID: student.ID, CourseID: course.ID, Amount: 49.99})
	if !errors.Is(err, ErrAlreadyPurchased) {
		t.Fatalf("second purchase err = %v, want ErrAlreadyPurchased", err)
	}
	var count int64
	database.DB.Model(&models.Payment{}).Where("student_id = ? AND course_id = ?", student.ID, course.ID).Count(&count)
	if count != 1 {
		t.Fatalf("payments = %d, want 1", count)
	}
}

func TestPurchaseCourseRejects(t *testing.T) {
	testutil.DB(t)
	student := seedStudent(t, "")
	course := seedCourse(t, 20)

	tests := []struct {
		name string
		in   PurchaseInput
		want error
	}{
		{name: "amount mismatch", in: PurchaseInput{StudentID: student.ID, CourseID: course.ID, Amount: 19.5}, want: ErrInvalidAmount},
		{name: "unknown course", in: PurchaseInput{StudentID: student.ID, CourseID: uuid.New(), Amount: 20}, want: ErrCourseNotFound},
		{name: "unknown student", in: PurchaseInput{StudentID: uuid.New(), CourseID: course.ID, Amount: 20}, want: ErrStudentNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := PurchaseCourse(tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	_, err := PurchaseCourse(PurchaseInput{StudentID: student.ID, CourseID: course.ID, Amount: 19.5})
	var mismatch *AmountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want AmountMismatchError", err)
	}
	if mismatch.Error() != "Invalid payment amount. Expected: $20, Received: $19.5" {
		t.Fatalf("message = %q", mismatch.Error())
	}

	if _, err := PurchaseCourse(PurchaseInput{StudentID: student.ID, CourseID: course.ID, Amount: 20.005}); err != nil {
		t.Fatalf("amount within tolerance rejected: %v", err)
	}
}

func TestPaymentStats(t *testing.T) {
	testutil.DB(t)
	course := seedCourse(t, 10)
	for i := 0; i < 2; i++ {
		student := seedStudent(t, "")
		if _, err := PurchaseCourse(PurchaseInput{StudentID: student.ID, CourseID: course.ID, Amount: 10}); err != nil {
			t.Fatalf("purchase: %v", err)
		}
	}

	stats, err := PaymentStats()
	if err != nil {
		t.Fatalf("PaymentStats: %v", err)
	}
	if stats.TotalPayments != 2 || stats.TotalRevenue != 20 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(stats.TopCourses) != 1 || stats.TopCourses[0].PurchaseCount != 2 {
		t.Fatalf("top courses = %+v", stats.TopCourses)
	}
}
