package handlers

import (
	"fmt"
	"strings"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func withOptions(db *gorm.DB) *gorm.DB {
	return db.Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") })
}

type OptionInput struct {
	OptionText string `json:"optionText" validate:"required"`
	IsCorrect  bool   `json:"isCorrect"`
}

type QuestionInput struct {
	TestID       uuid.UUID         `json:"testId" validate:"required"`
	QuestionText string            `json:"questionText" validate:"required"`
	QuestionType string            `json:"questionType" validate:"required,oneof=mcq multiple_choice fill_blank essay speaking"`
	Options      []OptionInput     `json:"options" validate:"dive"`
	AudioURL     string            `json:"audioUrl"`
	ImageURL     string            `json:"imageUrl"`
	Points       *float64          `json:"points" validate:"omitempty,gte=0"`
	Descriptions string            `json:"descriptions"`
	Skill        string            `json:"skill"`
	Topic        []string          `json:"topic"`
	Tag          []string          `json:"tag"`
	Level        models.ExamLevels `json:"level"`
}

func (in *QuestionInput) questionType() string {
	if in.QuestionType == "mcq" {
		return models.QuestionTypeMultipleChoice
	}
	return in.QuestionType
}

func (in *QuestionInput) model(createdBy *uuid.UUID, attemptID *uuid.UUID) models.Question {
	q := models.Question{
		TestID:       in.TestID,
		AttemptID:    attemptID,
		QuestionText: in.QuestionText,
		QuestionType: in.questionType(),
		AudioURL:     in.AudioURL,
		ImageURL:     in.ImageURL,
		Points:       1,
		Descriptions: in.Descriptions,
		Skill:        in.Skill,
		Topic:        in.Topic,
		Tag:          in.Tag,
		CreatedBy:    createdBy,
		Level:        in.Level,
	}
	if in.Points != nil {
		q.Points = *in.Points
	}
	for i, o := range in.Options {
		q.Options = append(q.Options, models.QuestionOption{OptionText: o.OptionText, IsCorrect: o.IsCorrect, Position: i})
	}
	return q
}

func CreateQuestion(c *fiber.Ctx) error {
	var in QuestionInput
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if in.questionType() == models.QuestionTypeMultipleChoice && len(in.Options) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "MCQ must include options"})
	}
	var createdBy *uuid.UUID
	if userID, ok := middleware.UserID(c); ok {
		createdBy = &userID
	}
	batch := []models.Question{in.model(createdBy, nil)}
	if err := services.SaveQuestions(batch); err != nil {
		logger.Log.Error("create question failed", "test_id", in.TestID.String(), "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to create question"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Question created successfully", "data": batch[0]})
}

type BulkQuestionsRequest struct {
	Questions     []QuestionInput `json:"questions" validate:"required,min=1,dive"`
	CreatedBy     *uuid.UUID      `json:"createdBy"`
	TestAttemptID *uuid.UUID      `json:"testAttemptId"`
	ExamType      string          `json:"exam_type"`
	ScoreRange    string          `json:"score_range"`
}

// CreateManyQuestions stamps every question with the batch's creator,
// attempt and level before inserting them in one transaction.
func CreateManyQuestions(c *fiber.Ctx) error {
	var req BulkQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if len(req.Questions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Questions array is required"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields in some questions"})
	}
	level := levelFor(req.ExamType, req.ScoreRange)

	questions := make([]models.Question, 0, len(req.Questions))
	for i := range req.Questions {
		in := &req.Questions[i]
		if len(in.Options) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "MCQ must include options"})
		}
		q := in.model(req.CreatedBy, req.TestAttemptID)
		if level != (models.ExamLevels{}) {
			q.Level = level
		}
		questions = append(questions, q)
	}
	if err := services.SaveQuestions(questions); err != nil {
		logger.Log.Error("bulk create questions failed", "count", len(questions), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create questions"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("%d questions created successfully", len(questions)),
		"data":    questions,
	})
}

func levelFor(examType, scoreRange string) models.ExamLevels {
	var level models.ExamLevels
	if scoreRange == "" {
		return level
	}
	switch strings.ToUpper(examType) {
	case "TOEIC":
		level.TOEIC = scoreRange
	case "IELTS":
		level.IELTS = scoreRange
	}
	return level
}

func GetQuestionsByTest(c *fiber.Ctx) error {
	testID, ok := paramUUID(c, "testId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Test ID not found"})
	}
	questions := []models.Question{}
	if err := withOptions(database.DB).Where("test_id = ?", testID).Order("created_at asc").Find(&questions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get questions"})
	}
	return c.JSON(fiber.Map{"message": "Questions retrieved", "data": questions, "total": len(questions)})
}

func GetQuestionByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "questionId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Question ID not found"})
	}
	var q models.Question
	if err := withOptions(database.DB).First(&q, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}
	return c.JSON(fiber.Map{"message": "Question retrieved successfully", "data": q})
}

// UpdateQuestionByID replaces the question fields and, when options are
// sent, the whole option list.
func UpdateQuestionByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "questionId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Question ID not found"})
	}
	var in QuestionInput
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	var q models.Question
	if err := database.DB.First(&q, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}

	updated := in.model(q.CreatedBy, q.AttemptID)
	updated.Base = q.Base
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if len(updated.Options) > 0 {
			if err := tx.Where("question_id = ?", id).Delete(&models.QuestionOption{}).Error; err != nil {
				return err
			}
			for i := range updated.Options {
				updated.Options[i].QuestionID = id
			}
			if err := tx.Create(&updated.Options).Error; err != nil {
				return err
			}
		}
		return tx.Omit("Options").Save(&updated).Error
	})
	if err != nil {
		logger.Log.Error("update question failed", "question_id", id.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update question"})
	}
	withOptions(database.DB).First(&q, "id = ?", id)
	return c.JSON(fiber.Map{"message": "Question updated", "data": q})
}

func DeleteQuestionByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "questionId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Question ID not found"})
	}
	var q models.Question
	if err := withOptions(database.DB).First(&q, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.QuestionOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, "id = ?", id).Error
	})
	if err != nil {
		logger.Log.Error("delete question failed", "question_id", id.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete question"})
	}
	return c.JSON(fiber.Map{"message": "Question deleted", "data": q})
}

type QuestionFilterRequest struct {
	TestID     uuid.UUID  `json:"testId"`
	ExamType   string     `json:"exam_type"`
	ScoreRange string     `json:"score_range"`
	CreatedBy  *uuid.UUID `json:"createdBy"`
}

// FilterQuestions narrows a test's questions by level and creator and
// reports the creator's pool for that test, if any.
func FilterQuestions(c *fiber.Ctx) error {
	var req QuestionFilterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.TestID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Test ID is required"})
	}

	var testPoolID *uuid.UUID
	query := withOptions(database.DB).Where("test_id = ?", req.TestID)
	if req.CreatedBy != nil {
		var pool models.TestPool
		err := database.DB.Where("base_test_id = ? AND created_by = ?", req.TestID, *req.CreatedBy).
			Order("created_at desc").Limit(1).Find(&pool).Error
		if err == nil && pool.ID != uuid.Nil {
			testPoolID = &pool.ID
		}
		query = query.Where("created_by = ?", *req.CreatedBy)
	}
	if req.ExamType != "" && req.ScoreRange != "" {
		switch strings.ToUpper(req.ExamType) {
		case "TOEIC":
			query = query.Where("level_toeic = ?", req.ScoreRange)
		case "IELTS":
			query = query.Where("level_ielts = ?", req.ScoreRange)
		}
	}

	var questions []models.Question
	if err := query.Order("created_at asc").Find(&questions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get questions"})
	}
	if len(questions) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No questions found"})
	}
	return c.JSON(fiber.Map{
		"message":    "Questions retrieved successfully",
		"total":      len(questions),
		"testPoolId": testPoolID,
		"data":       questions,
	})
}

func GetQuestionsByAttemptID(c *fiber.Ctx) error {
	attemptID, ok := paramUUID(c, "attemptId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "attemptId is required"})
	}
	var questions []models.Question
	if err := withOptions(database.DB).Where("attempt_id = ?", attemptID).Order("created_at asc").Find(&questions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch questions"})
	}
	if len(questions) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No questions found for this attempt"})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Found %d questions for attempt %s", len(questions), attemptID),
		"data":    questions,
	})
}
