package handlers

import (
	"testing"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func TestCreatePayment(t *testing.T) {
	setup(t)
	app := fiber.New()
	app.Post("/payments", middleware.Protected(), CreatePayment)

	student := seedUser(t, "chi@example.com", "Secret1!pass", models.RoleStudent)
	token := bearer(t, &student)
	course := models.Course{Title: "IELTS Writing", Description: "d", TeacherID: uuid.New(), CourseType: "IELTS", CourseLevel: "Intermediate", Cost: 49.99}
	if err := testutil.Create(&course); err != nil {
		t.Fatalf("seed course: %v", err)
	}

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
		wantError  string
	}{
		{name: "missing amount", body: map[string]interface{}{"courseId": course.ID}, wantStatus: 400, wantError: "Missing required fields: amount"},
		{name: "amount not a number", body: map[string]interface{}{"courseId": course.ID, "amount": "49.99"}, wantStatus: 400, wantError: "Amount must be a number equal or greater than 0"},
		{name: "unknown course", body: map[string]interface{}{"courseId": uuid.New(), "amount": 10}, wantStatus: 404, wantError: "Course not found"},
		{name: "wrong amount", body: map[string]interface{}{"courseId": course.ID, "amount": 10}, wantStatus: 400, wantError: "Invalid payment amount. Expected: $49.99, Received: $10"},
		{name: "first purchase", body: map[string]interface{}{"courseId": course.ID, "amount": 49.99}, wantStatus: 201},
		{name: "second purchase", body: map[string]interface{}{"courseId": course.ID, "amount": 49.99}, wantStatus: 409, wantError: "You have already purchased this course"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, "POST", "/payments", token, tc.body)
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", status, tc.wantStatus, body)
			}
			if tc.wantError != "" && body["error"] != tc.wantError {
				t.Fatalf("error = %v, want %q", body["error"], tc.wantError)
			}
		})
	}

	var n int64
	database.DB.Model(&models.Payment{}).Where("student_id = ? AND course_id = ?", student.ID, course.ID).Count(&n)
	if n != 1 {
		t.Fatalf("payments = %d, want 1", n)
	}
}
