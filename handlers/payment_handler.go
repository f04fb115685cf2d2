package handlers

import (
	"errors"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRequest struct {
	CourseID      uuid.UUID   `json:"courseId"`
	Amount        interface{} `json:"amount"`
	PaymentMethod string      `json:"paymentMethod"`
	TransactionID string      `json:"transactionId"`
}

func CreatePayment(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if msg := missingFields(
		[]string{"courseId", "amount"},
		[]bool{req.CourseID != uuid.Nil, req.Amount != nil},
	); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	amount, isNumber := req.Amount.(float64)
	if !isNumber || amount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Amount must be a number equal or greater than 0"})
	}

	payment, err := services.PurchaseCourse(services.PurchaseInput{
		StudentID:     userID,
		CourseID:      req.CourseID,
		Amount:        amount,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		var mismatch *services.AmountMismatchError
		switch {
		case errors.Is(err, services.ErrStudentNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
		case errors.Is(err, services.ErrCourseNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
		case errors.Is(err, services.ErrAlreadyPurchased):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already purchased this course"})
		case errors.As(err, &mismatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": mismatch.Error()})
		}
		logger.Log.Error("create payment failed", "user_id", userID.String(), "course_id", req.CourseID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create payment"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Payment created successfully!", "payment": payment})
}

func listPayments(c *fiber.Ctx, query *gorm.DB, message, failMsg string) error {
	payments := []models.Payment{}
	err := query.Preload("Course").Preload("Student").Order("created_at desc").Find(&payments).Error
	if err != nil {
		logger.Log.Error("list payments failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": failMsg})
	}
	return c.JSON(fiber.Map{"message": message, "payments": payments, "total": len(payments)})
}

func GetMyPayments(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	return listPayments(c, database.DB.Where("student_id = ?", userID), "User payments retrieved successfully", "Failed to get my payments")
}

func GetPaymentsByUser(c *fiber.Ctx) error {
	userID, ok := paramUUID(c, "userId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}
	return listPayments(c, database.DB.Where("student_id = ?", userID), "User payments retrieved successfully", "Failed to get payments by user")
}

func GetPaymentsByCourse(c *fiber.Ctx) error {
	courseID, ok := paramUUID(c, "courseId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Course ID is required"})
	}
	return listPayments(c, database.DB.Where("course_id = ?", courseID), "Course payments retrieved successfully", "Failed to get payments by course")
}

func GetAllPayments(c *fiber.Ctx) error {
	return listPayments(c, database.DB, "All payments retrieved successfully", "Failed to get all payments")
}

func GetAdminPaymentStats(c *fiber.Ctx) error {
	stats, err := services.PaymentStats()
	if err != nil {
		logger.Log.Error("payment statistics failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get admin payment stats"})
	}
	return c.JSON(fiber.Map{"message": "Admin payment stats retrieved successfully", "stats": stats})
}
