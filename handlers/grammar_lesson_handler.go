package handlers

import (
	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GrammarLessonRequest struct {
	Title     string              `json:"title" validate:"required,max=255"`
	CourseID  uuid.UUID           `json:"courseId" validate:"required"`
	Parts     []models.LessonPart `json:"parts"`
	Exercises []uuid.UUID         `json:"exercises"`
}

func (r *GrammarLessonRequest) apply(l *models.GrammarLesson) {
	l.Title = r.Title
	l.CourseID = r.CourseID
	parts := make([]models.LessonPart, len(r.Parts))
	for i, p := range r.Parts {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		parts[i] = p
	}
	l.Parts = parts
	l.Exercises = r.Exercises
	if l.Exercises == nil {
		l.Exercises = []uuid.UUID{}
	}
}

func CreateGrammarLesson(c *fiber.Ctx) error {
	var req GrammarLessonRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	var lesson models.GrammarLesson
	req.apply(&lesson)
	if err := database.DB.Create(&lesson).Error; err != nil {
		logger.Log.Error("create grammar lesson failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create grammar lesson"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Grammar lesson created successfully", "data": lesson})
}

func GetAllGrammarLessons(c *fiber.Ctx) error {
	lessons := []models.GrammarLesson{}
	if err := database.DB.Order("created_at asc").Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get grammar lessons"})
	}
	return c.JSON(fiber.Map{"message": "Grammar lessons retrieved successfully", "data": lessons, "total": len(lessons)})
}

func GetGrammarLessonByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Grammar lesson not found"})
	}
	var lesson models.GrammarLesson
	if err := database.DB.First(&lesson, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Grammar lesson not found"})
	}
	return c.JSON(fiber.Map{"data": lesson})
}

func GetLessonsByCourseID(c *fiber.Ctx) error {
	courseID, _ := paramUUID(c, "courseId")
	lessons := []models.GrammarLesson{}
	if err := database.DB.Where("course_id = ?", courseID).Order("created_at asc").Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get lessons by courseId"})
	}
	return c.JSON(fiber.Map{"message": "Grammar lessons retrieved successfully", "data": lessons, "total": len(lessons)})
}

// GetLessonPartByID scans lesson parts in Go; parts live in a JSON column.
func GetLessonPartByID(c *fiber.Ctx) error {
	partID, ok := paramUUID(c, "partId")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Part not found"})
	}
	var lessons []models.GrammarLesson
	if err := database.DB.Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch part"})
	}
	for _, l := range lessons {
		for _, p := range l.Parts {
			if p.ID == partID {
				return c.JSON(fiber.Map{"message": "Part retrieved successfully", "data": p})
			}
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Part not found"})
}

func UpdateGrammarLessonByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Grammar lesson not found"})
	}
	var req GrammarLessonRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	var lesson models.GrammarLesson
	if err := database.DB.First(&lesson, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Grammar lesson not found"})
	}
	req.apply(&lesson)
	if err := database.DB.Save(&lesson).Error; err != nil {
		logger.Log.Error("update grammar lesson failed", "lesson_id", id.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update grammar lesson"})
	}
	return c.JSON(fiber.Map{"message": "Grammar lesson updated successfully", "data": lesson})
}

func DeleteGrammarLessonByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Grammar lesson not found"})
	}
	res := database.DB.Delete(&models.GrammarLesson{}, "id = ?", id)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete grammar lesson"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Grammar lesson not found"})
	}
	return c.JSON(fiber.Map{"message": "Grammar lesson deleted successfully"})
}
