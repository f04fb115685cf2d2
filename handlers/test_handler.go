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

type TestRequest struct {
	Title         string     `json:"title" validate:"required,max=255"`
	Description   string     `json:"description"`
	Topic         string     `json:"topic" validate:"required"`
	Skill         string     `json:"skill" validate:"required,oneof=reading listening speaking writing vocabulary grammar"`
	DurationMin   int        `json:"durationMin" validate:"required,gt=0"`
	CourseID      *uuid.UUID `json:"courseId"`
	NumQuestions  int        `json:"numQuestions" validate:"gte=0"`
	QuestionTypes []string   `json:"questionTypes"`
	ExamType      string     `json:"examType" validate:"required,oneof=TOEIC IELTS"`
	PassingScore  *float64   `json:"passingScore" validate:"omitempty,gte=0,lte=10"`
	MaxAttempts   *int       `json:"maxAttempts" validate:"omitempty,gt=0"`
	IsTheLastTest bool       `json:"isTheLastTest"`
}

func (r *TestRequest) apply(t *models.Test) {
	t.Title = r.Title
	t.Description = r.Description
	t.Topic = r.Topic
	t.Skill = r.Skill
	t.DurationMin = r.DurationMin
	t.CourseID = r.CourseID
	t.NumQuestions = r.NumQuestions
	if t.NumQuestions == 0 {
		t.NumQuestions = 10
	}
	t.QuestionTypes = r.QuestionTypes
	t.ExamType = r.ExamType
	t.PassingScore = 7
	if r.PassingScore != nil {
		t.PassingScore = *r.PassingScore
	}
	t.MaxAttempts = r.MaxAttempts
	t.IsTheLastTest = r.IsTheLastTest
}

func CreateTest(c *fiber.Ctx) error {
	var req TestRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	userID, _ := middleware.UserID(c)
	test := models.Test{CreatedBy: &userID}
	req.apply(&test)
	if err := database.DB.Create(&test).Error; err != nil {
		logger.Log.Error("create test failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create test"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Test created successfully", "data": test})
}

func GetTestByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "testId")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not found"})
	}
	var test models.Test
	if err := database.DB.First(&test, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get test by id"})
	}
	return c.JSON(fiber.Map{"message": "Test retrieved", "data": test})
}

func GetAllTests(c *fiber.Ctx) error {
	tests := []models.Test{}
	if err := database.DB.Order("created_at desc").Find(&tests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get tests"})
	}
	return c.JSON(fiber.Map{"message": "Tests retrieved", "data": tests, "total": len(tests)})
}

func GetTestsByCourseID(c *fiber.Ctx) error {
	courseID, ok := paramUUID(c, "courseId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Course ID not found"})
	}
	var tests []models.Test
	if err := database.DB.Where("course_id = ?", courseID).Order("created_at asc").Find(&tests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get tests by courseId"})
	}
	if len(tests) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No tests found for this course"})
	}
	return c.JSON(fiber.Map{"message": "Tests retrieved successfully", "data": tests})
}

func GetMyTests(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	var tests []models.Test
	if err := database.DB.Where("created_by = ?", userID).Order("created_at desc").Find(&tests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get tests created by user."})
	}
	if len(tests) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No tests found created by this user."})
	}
	return c.JSON(fiber.Map{"message": "Tests created by user retrieved successfully", "data": tests, "total": len(tests)})
}

func UpdateTestByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "testId")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not found"})
	}
	var req TestRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	var test models.Test
	if err := database.DB.First(&test, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not found"})
	}
	req.apply(&test)
	if err := database.DB.Save(&test).Error; err != nil {
		logger.Log.Error("update test failed", "test_id", id.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update test"})
	}
	return c.JSON(fiber.Map{"message": "Test updated successfully", "data": test})
}

// DeleteTestByID removes the test together with its questions.
func DeleteTestByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "testId")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not found"})
	}
	var test models.Test
	if err := database.DB.First(&test, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not found"})
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id IN (?)", tx.Model(&models.Question{}).Select("id").Where("test_id = ?", id)).
			Delete(&models.QuestionOption{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", id).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&test).Error
	})
	if err != nil {
		logger.Log.Error("delete test failed", "test_id", id.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete test"})
	}
	return c.JSON(fiber.Map{"message": "Test deleted successfully", "data": test})
}

func GetTestStatistics(c *fiber.Ctx) error {
	stats, err := services.TestStats()
	if err != nil {
		logger.Log.Error("test statistics failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get test statistics"})
	}
	if len(stats) == 0 {
		return c.JSON(fiber.Map{"message": "No tests found", "data": stats, "total": 0})
	}
	return c.JSON(fiber.Map{"message": "Test statistics retrieved successfully", "data": stats, "total": len(stats)})
}
