package handlers

import (
	"errors"
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/services"
	"github.com/anjiri1684/studyhub/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StartAttemptRequest struct {
	TestPoolID      *uuid.UUID `json:"testPoolId"`
	TestID          uuid.UUID  `json:"testId"`
	UserID          uuid.UUID  `json:"userId"`
	EvaluationModel string     `json:"evaluationModel"`
	MaxAttempts     int        `json:"maxAttempts"`
}

// StartAttempt opens an attempt on a pool and counts one use of the pool.
// Custom attempts pass the nil pool id and touch no pool.
func StartAttempt(c *fiber.Ctx) error {
	var req StartAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.TestPoolID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "testPoolId is required"})
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		userID = req.UserID
	}

	attempt := models.TestAttempt{
		TestPoolID:      *req.TestPoolID,
		UserID:          userID,
		TestID:          req.TestID,
		EvaluationModel: req.EvaluationModel,
		MaxAttempts:     req.MaxAttempts,
	}
	if attempt.EvaluationModel == "" {
		attempt.EvaluationModel = "gemini"
	}
	if attempt.MaxAttempts <= 0 {
		attempt.MaxAttempts = 3
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}
		if attempt.TestPoolID == models.CustomPoolID {
			return nil
		}
		return tx.Model(&models.TestPool{}).Where("id = ?", attempt.TestPoolID).
			UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error
	})
	if err != nil {
		logger.Log.Error("start attempt failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start attempt"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Attempt started", "data": attempt})
}

type SubmitAttemptRequest struct {
	TestID    uuid.UUID                  `json:"testId"`
	StartTime *time.Time                 `json:"startTime"`
	Answers   []services.SubmittedAnswer `json:"answers"`
}

func SubmitAttempt(c *fiber.Ctx) error {
	attemptID, _ := uuid.Parse(c.Params("attemptId"))
	var req SubmitAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	userID, _ := middleware.UserID(c)

	result, err := services.SubmitAttempt(c.UserContext(), services.SubmitInput{
		AttemptID: attemptID,
		UserID:    userID,
		TestID:    req.TestID,
		StartTime: req.StartTime,
		Answers:   req.Answers,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAttemptIDRequired), errors.Is(err, services.ErrAnswersRequired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrAttemptNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Attempt not found"})
		}
		logger.Log.Error("submit attempt failed", "attempt_id", attemptID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit answers"})
	}

	websocket.Publish(userID, websocket.EventAttemptGraded, fiber.Map{
		"attemptId": attemptID,
		"summary":   result.Summary,
	})
	if result.Certificate != nil {
		announceCertificate(result.Certificate)
	}

	return c.JSON(fiber.Map{
		"message":       "Submitted successfully",
		"attempt":       result.Attempt,
		"certificate":   result.Certificate,
		"attemptDetail": result.AttemptDetail,
		"summary":       result.Summary,
	})
}

func GetAttemptByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "attemptId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Attempt ID not found"})
	}
	var attempt models.TestAttempt
	if err := database.DB.Preload("Test").First(&attempt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Attempt not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get attempt"})
	}
	details := []models.AttemptDetail{}
	if err := database.DB.Where("attempt_id = ?", id).Order("attempt_number asc").Find(&details).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get attempt"})
	}
	return c.JSON(fiber.Map{"message": "Attempt retrieved", "data": fiber.Map{"attempt": attempt, "details": details}})
}

func GetAttemptsByUser(c *fiber.Ctx) error {
	userID, ok := paramUUID(c, "userId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID not found"})
	}
	attempts := []models.TestAttempt{}
	if err := database.DB.Preload("Test").Where("user_id = ?", userID).Order("created_at desc").Find(&attempts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get attempts"})
	}
	return c.JSON(fiber.Map{"message": "Attempts retrieved", "data": attempts, "total": len(attempts)})
}

// GetAttemptByTest returns the caller's latest attempt on a test.
func GetAttemptByTest(c *fiber.Ctx) error {
	testID, ok := paramUUID(c, "testId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "testId is required"})
	}
	userID, _ := middleware.UserID(c)
	var attempt models.TestAttempt
	err := database.DB.Where("test_id = ? AND user_id = ?", testID, userID).Order("created_at desc").First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Attempt not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get attempt"})
	}
	return c.JSON(fiber.Map{"message": "Attempt retrieved", "data": attempt})
}

type AttemptInfoRequest struct {
	UserID uuid.UUID `json:"userId"`
	TestID uuid.UUID `json:"testId"`
}

// GetAttemptInfo finds the user's active pool for a base test and reports
// their attempt on it, or a fresh zero state when none exists yet.
func GetAttemptInfo(c *fiber.Ctx) error {
	var req AttemptInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	var pool models.TestPool
	err := database.DB.Where("base_test_id = ? AND status = ? AND created_by = ?", req.TestID, "active", req.UserID).
		Order("created_at desc").Limit(1).Find(&pool).Error
	if err != nil {
		logger.Log.Error("attempt info pool lookup failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
	if pool.ID == uuid.Nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No test pool found for this test"})
	}

	var baseTest models.Test
	database.DB.Limit(1).Find(&baseTest, "id = ?", req.TestID)

	var attempt models.TestAttempt
	if err := database.DB.Where("user_id = ? AND test_pool_id = ?", req.UserID, pool.ID).
		Order("created_at desc").Limit(1).Find(&attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
	if attempt.ID == uuid.Nil {
		return c.JSON(fiber.Map{
			"testInfo":    baseTest,
			"attemptInfo": fiber.Map{"attemptNumber": 0, "maxAttempts": 3, "score": 0},
		})
	}
	return c.JSON(fiber.Map{
		"testInfo": baseTest,
		"attemptInfo": fiber.Map{
			"id":              attempt.ID,
			"testPoolId":      attempt.TestPoolID,
			"userId":          attempt.UserID,
			"attemptNumber":   attempt.AttemptNumber,
			"maxAttempts":     attempt.MaxAttempts,
			"startTime":       nil,
			"endTime":         nil,
			"score":           attempt.Score,
			"feedback":        attempt.Feedback,
			"evaluationModel": attempt.EvaluationModel,
		},
	})
}

type AttemptsByPoolRequest struct {
	TestPoolID uuid.UUID `json:"testPoolId"`
	UserID     uuid.UUID `json:"userId"`
}

func GetAttemptsByTestPool(c *fiber.Ctx) error {
	var req AttemptsByPoolRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	attempts := []models.TestAttempt{}
	err := database.DB.Where("test_pool_id = ? AND user_id = ?", req.TestPoolID, req.UserID).
		Order("created_at desc").Find(&attempts).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to get attempts"})
	}
	return c.JSON(fiber.Map{"message": "Attempts retrieved successfully", "data": attempts})
}

func GetAttemptsByTestAndUser(c *fiber.Ctx) error {
	testID, okTest := paramUUID(c, "testId")
	userID, okUser := paramUUID(c, "userId")
	if !okTest || !okUser {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "testId and userId are required"})
	}
	attempts := []models.TestAttempt{}
	err := database.DB.Where("test_id = ? AND user_id = ?", testID, userID).Order("created_at desc").Find(&attempts).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to get attempts"})
	}
	return c.JSON(fiber.Map{"message": "Attempts retrieved successfully", "data": attempts})
}

func GetCustomAttemptsByUser(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	attempts := []models.TestAttempt{}
	err := database.DB.Preload("Test").
		Where("user_id = ? AND test_pool_id = ?", userID, models.CustomPoolID).
		Order("created_at desc").Find(&attempts).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch test attempts"})
	}
	if len(attempts) == 0 {
		return c.JSON(fiber.Map{"message": "No custom test attempts found for this user.", "data": attempts, "total": 0})
	}
	return c.JSON(fiber.Map{"message": "Custom test attempts retrieved successfully", "data": attempts, "total": len(attempts)})
}

type UpdateAttemptRequest struct {
	Score           *float64 `json:"score"`
	Feedback        *string  `json:"feedback"`
	EvaluationModel *string  `json:"evaluationModel"`
	IsPassed        *bool    `json:"isPassed"`
	MaxAttempts     *int     `json:"maxAttempts"`
	AttemptNumber   *int     `json:"attemptNumber"`
}

func UpdateAttempt(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "attemptId")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Attempt not found"})
	}
	var req UpdateAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	var attempt models.TestAttempt
	if err := database.DB.First(&attempt, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Attempt not found"})
	}

	updates := map[string]interface{}{}
	if req.Score != nil {
		updates["score"] = *req.Score
	}
	if req.Feedback != nil {
		updates["feedback"] = *req.Feedback
	}
	if req.EvaluationModel != nil {
		updates["evaluation_model"] = *req.EvaluationModel
	}
	if req.IsPassed != nil {
		updates["is_passed"] = *req.IsPassed
	}
	if req.MaxAttempts != nil {
		updates["max_attempts"] = *req.MaxAttempts
	}
	if req.AttemptNumber != nil {
		updates["attempt_number"] = *req.AttemptNumber
	}
	if len(updates) > 0 {
		if err := database.DB.Model(&attempt).Updates(updates).Error; err != nil {
			logger.Log.Error("update attempt failed", "attempt_id", id.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update attempt"})
		}
	}
	database.DB.First(&attempt, "id = ?", id)
	return c.JSON(fiber.Map{"message": "Attempt updated", "data": attempt})
}
