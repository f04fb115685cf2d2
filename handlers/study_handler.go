package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func GetStudyStats(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	now := time.Now().UTC()
	month := c.QueryInt("month", int(now.Month()))
	year := c.QueryInt("year", now.Year())
	if month < 1 || month > 12 {
		month = int(now.Month())
	}

	summary, err := services.MonthlyStudyStats(userID, year, time.Month(month))
	if err != nil {
		logger.Log.Error("study stats failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get study stats"})
	}
	if summary == nil {
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("No study logs found for %d/%d", month, year),
			"data":    services.EmptyMonthlySummary(year, time.Month(month)),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Get Study Stats for %d/%d Successfully", month, year),
		"data":    summary,
	})
}

type StudyLogRequest struct {
	LessonID        *uuid.UUID `json:"lessonId"`
	TestID          *uuid.UUID `json:"testId"`
	DurationSeconds int        `json:"durationSeconds"`
}

func LogStudySession(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	var req StudyLogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.DurationSeconds <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "durationSeconds is required"})
	}

	entry := models.StudyLog{
		UserID:          userID,
		LessonID:        req.LessonID,
		TestID:          req.TestID,
		DurationSeconds: req.DurationSeconds,
		Date:            time.Now().UTC(),
	}
	switch {
	case req.LessonID != nil:
		entry.Type = models.StudyLogLesson
	case req.TestID != nil:
		entry.Type = models.StudyLogTest
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Either lessonId or testId is required"})
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		logger.Log.Error("log study session failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to log study session"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Study session logged successfully", "data": entry})
}

// idList accepts a single id, a list of ids or nothing.
func idList(raw json.RawMessage) []uuid.UUID {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		var one string
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil
		}
		many = []string{one}
	}
	out := make([]uuid.UUID, 0, len(many))
	for _, s := range many {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

type StudyActivityRequest struct {
	Exercises       json.RawMessage `json:"exercises"`
	Lessons         json.RawMessage `json:"lessons"`
	DurationSeconds int             `json:"durationSeconds"`
}

func LogStudyActivity(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	var req StudyActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.DurationSeconds < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "durationSeconds must not be negative"})
	}
	doc, err := services.LogStudyDay(userID, time.Now().UTC(), req.DurationSeconds, idList(req.Exercises), idList(req.Lessons))
	if err != nil {
		logger.Log.Error("log study activity failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error logging activity"})
	}
	return c.JSON(fiber.Map{"message": "Logged successfully", "data": doc})
}

func monthParams(c *fiber.Ctx) (int, int, bool) {
	year, errY := c.ParamsInt("year")
	month, errM := c.ParamsInt("month")
	if errY != nil || errM != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

func GetMonthlyStats(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	year, month, ok := monthParams(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid year or month"})
	}
	var doc models.StudyStats
	err := database.DB.Where("user_id = ? AND year = ? AND month = ?", userID, year, month).Limit(1).Find(&doc).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error retrieving stats"})
	}
	if doc.ID == uuid.Nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No stats found for this month"})
	}
	return c.JSON(fiber.Map{"data": doc, "summary": services.SummarizeStudyStats(&doc)})
}

func DeleteMonthlyStats(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	year, month, ok := monthParams(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid year or month"})
	}
	res := database.DB.Where("user_id = ? AND year = ? AND month = ?", userID, year, month).Delete(&models.StudyStats{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error deleting stats"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No stats found to delete"})
	}
	return c.JSON(fiber.Map{"message": "Monthly stats deleted successfully"})
}
