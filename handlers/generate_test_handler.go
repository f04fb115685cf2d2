package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/grading"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GenerateTestRequest struct {
	TestID        uuid.UUID `json:"testId"`
	ExamType      string    `json:"exam_type"`
	Topic         string    `json:"topic"`
	QuestionTypes []string  `json:"question_types"`
	NumQuestions  int       `json:"num_questions"`
	ScoreRange    string    `json:"score_range"`
}

func GenerateTest(c *fiber.Ctx) error {
	var req GenerateTestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.Topic == "" || req.QuestionTypes == nil || req.NumQuestions <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.TestID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "testId is required"})
	}

	batch := services.GeneratedBatch{
		TestID:       req.TestID,
		NumQuestions: req.NumQuestions,
		Level:        levelFor(req.ExamType, req.ScoreRange),
	}
	if userID, ok := middleware.UserID(c); ok {
		batch.CreatedBy = &userID
	}
	questions, err := services.GenerateTestQuestions(c.UserContext(), grading.GenerateRequest{
		Topic:         req.Topic,
		QuestionTypes: req.QuestionTypes,
		NumQuestions:  req.NumQuestions,
		ExamType:      req.ExamType,
		ScoreRange:    req.ScoreRange,
	}, batch)
	if err != nil {
		logger.Log.Error("generate test failed", "test_id", req.TestID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate and save test questions"})
	}
	return c.JSON(fiber.Map{
		"message": "Test generated and questions saved successfully",
		"data": fiber.Map{
			"message": fmt.Sprintf("%d questions created successfully", len(questions)),
			"data":    questions,
		},
	})
}

type GenerateCustomTestRequest struct {
	TestID        uuid.UUID       `json:"testId"`
	TestAttemptID *uuid.UUID      `json:"testAttemptId"`
	Topics        []string        `json:"topics"`
	NumQuestions  int             `json:"numQuestions"`
	TimeLimit     int             `json:"timeLimit"`
	ToeicScore    *int            `json:"toeicScore"`
	Level         string          `json:"level"`
	Difficulty    string          `json:"difficulty"`
	WeakSkills    []string        `json:"weakSkills"`
	QuestionRatio json.RawMessage `json:"question_ratio"`
}

// GenerateCustomTest authors questions for one learner. Without a
// testAttemptId it opens a pool-less attempt for the caller and ties the
// questions to it.
func GenerateCustomTest(c *fiber.Ctx) error {
	var req GenerateCustomTestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if len(req.Topics) == 0 || req.NumQuestions <= 0 || req.TestID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Required fields (topics, numQuestions, testId) are missing or invalid."})
	}
	userID, _ := middleware.UserID(c)

	attemptID := req.TestAttemptID
	if attemptID == nil {
		attempt := models.TestAttempt{
			TestPoolID:      models.CustomPoolID,
			UserID:          userID,
			TestID:          req.TestID,
			MaxAttempts:     3,
			EvaluationModel: "gemini",
		}
		if err := database.DB.Create(&attempt).Error; err != nil {
			logger.Log.Error("create custom attempt failed", "user_id", userID.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate and save test questions"})
		}
		attemptID = &attempt.ID
	}

	batch := services.GeneratedBatch{
		TestID:       req.TestID,
		NumQuestions: req.NumQuestions,
		CreatedBy:    &userID,
		AttemptID:    attemptID,
	}
	if req.ToeicScore != nil {
		batch.Level = models.ExamLevels{TOEIC: fmt.Sprintf("%d-%d", *req.ToeicScore-100, *req.ToeicScore+100)}
	}

	questions, err := services.GenerateCustomTestQuestions(c.UserContext(), grading.CustomGenerateRequest{
		CurrentLevel:  req.Level,
		ToeicScore:    req.ToeicScore,
		WeakSkills:    req.WeakSkills,
		ExamType:      "TOEIC",
		Topics:        req.Topics,
		Difficulty:    strings.ToLower(req.Difficulty),
		QuestionRatio: req.QuestionRatio,
		NumQuestions:  req.NumQuestions,
		TimeLimit:     req.TimeLimit,
	}, batch)
	if err != nil {
		logger.Log.Error("generate custom test failed", "test_id", req.TestID.String(), "error", err)
		if errors.Is(err, services.ErrEmptyGeneration) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Invalid or empty response from AI service. Could not generate questions."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate and save test questions"})
	}
	return c.JSON(fiber.Map{
		"message":   "Test generated and questions saved successfully",
		"attemptId": attemptID,
		"data": fiber.Map{
			"message": fmt.Sprintf("%d questions created successfully", len(questions)),
			"data":    questions,
		},
	})
}

type TestResultRequest struct {
	TestID    uuid.UUID                  `json:"testId"`
	AttemptID uuid.UUID                  `json:"attemptId"`
	Answers   []services.SubmittedAnswer `json:"answers"`
}

// SubmitTestResult forwards a graded preview from the AI service and
// records nothing.
func SubmitTestResult(c *fiber.Ctx) error {
	var req TestResultRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.TestID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "testId is required"})
	}

	userID, ok := middleware.UserID(c)
	if !ok && req.AttemptID != uuid.Nil {
		var attempt models.TestAttempt
		if err := database.DB.Select("user_id").First(&attempt, "id = ?", req.AttemptID).Error; err == nil {
			userID = attempt.UserID
		}
	}

	analysis, err := services.PreviewGrade(c.UserContext(), req.TestID, userID, req.Answers)
	if err != nil {
		if errors.Is(err, services.ErrAnswersRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Log.Error("grading preview failed", "test_id", req.TestID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit answers"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Answers submitted successfully", "data": analysis})
}
