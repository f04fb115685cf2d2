package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/grading"
	"github.com/anjiri1684/studyhub/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MapGeneratedType converts the authoring service's short type names.
func MapGeneratedType(t string) string {
	switch strings.ToLower(t) {
	case "mcq":
		return models.QuestionTypeMultipleChoice
	case "gap-fill":
		return "fill_blank"
	default:
		return models.QuestionTypeMultipleChoice
	}
}

type GeneratedBatch struct {
	TestID       uuid.UUID
	NumQuestions int
	CreatedBy    *uuid.UUID
	AttemptID    *uuid.UUID
	Level        models.ExamLevels
	MapTypes     bool
}

// TransformGeneratedQuestions spreads ten points over the batch and marks
// the option equal to the answer as correct.
func TransformGeneratedQuestions(items []grading.GeneratedQuestion, b GeneratedBatch) []models.Question {
	n := b.NumQuestions
	if n <= 0 {
		n = len(items)
	}
	points := 0.0
	if n > 0 {
		points = math.Round(10/float64(n)*100) / 100
	}

	out := make([]models.Question, 0, len(items))
	for _, it := range items {
		qType := it.Type
		if b.MapTypes {
			qType = MapGeneratedType(it.Type)
		}
		q := models.Question{
			TestID:       b.TestID,
			AttemptID:    b.AttemptID,
			QuestionText: it.Question,
			QuestionType: qType,
			Points:       points,
			Skill:        it.Skill,
			Topic:        it.Topics(),
			Descriptions: it.Explanation,
			CreatedBy:    b.CreatedBy,
			Level:        b.Level,
		}
		for i, opt := range it.Options {
			q.Options = append(q.Options, models.QuestionOption{
				OptionText: opt,
				IsCorrect:  opt == it.Answer,
				Position:   i,
			})
		}
		out = append(out, q)
	}
	return out
}

// SaveQuestions inserts questions with their options in one transaction.
func SaveQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return database.DB.Transaction(func(tx *gorm.DB) error {
		for i := range questions {
			for j := range questions[i].Options {
				questions[i].Options[j].Position = j
			}
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func GenerateTestQuestions(ctx context.Context, req grading.GenerateRequest, b GeneratedBatch) ([]models.Question, error) {
	if GradingClient == nil {
		return nil, ErrNotConfigured
	}
	items, err := GradingClient.GenerateTest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate test: %w", err)
	}
	questions := TransformGeneratedQuestions(items, b)
	if err := SaveQuestions(questions); err != nil {
		return nil, fmt.Errorf("save generated questions: %w", err)
	}
	return questions, nil
}

func GenerateCustomTestQuestions(ctx context.Context, req grading.CustomGenerateRequest, b GeneratedBatch) ([]models.Question, error) {
	if GradingClient == nil {
		return nil, ErrNotConfigured
	}
	items, err := GradingClient.GenerateCustomTest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate custom test: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyGeneration
	}
	b.MapTypes = true
	questions := TransformGeneratedQuestions(items, b)
	if err := SaveQuestions(questions); err != nil {
		return nil, fmt.Errorf("save generated questions: %w", err)
	}
	return questions, nil
}
