package services

import (
	"strconv"
	"strings"

	"github.com/anjiri1684/studyhub/grading"
	"github.com/anjiri1684/studyhub/models"
	"github.com/google/uuid"
)

type SubmittedAnswer struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId,omitempty"`
	AnswerLetter     string `json:"answerLetter,omitempty"`
	AnswerText       string `json:"answerText,omitempty"`
}

// BuildAnswerKey numbers questions from 1 in the order given.
func BuildAnswerKey(questions []models.Question) []grading.AnswerKeyItem {
	key := make([]grading.AnswerKeyItem, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		item := grading.AnswerKeyItem{ID: i + 1, Question: q.QuestionText}
		if opt := q.CorrectOption(); opt != nil {
			text := opt.OptionText
			item.Answer = &text
		}
		if q.Skill != "" {
			skill := q.Skill
			item.Skill = &skill
		}
		if len(q.Topic) > 0 {
			topic := strings.Join(q.Topic, ", ")
			item.Topic = &topic
		}
		key = append(key, item)
	}
	return key
}

// resolveOption matches by option id first, then by answer letter where
// "A" is position 0.
func resolveOption(q *models.Question, a SubmittedAnswer) *models.QuestionOption {
	if a.SelectedOptionID != "" {
		for i := range q.Options {
			if q.Options[i].ID.String() == a.SelectedOptionID {
				return &q.Options[i]
			}
		}
	}
	letter := strings.ToUpper(strings.TrimSpace(a.AnswerLetter))
	if len(letter) == 1 && letter[0] >= 'A' && letter[0] <= 'Z' {
		pos := int(letter[0] - 'A')
		for i := range q.Options {
			if q.Options[i].Position == pos {
				return &q.Options[i]
			}
		}
	}
	return nil
}

// ScoreAnswers scores each submitted answer against its question. Answers
// for unknown questions are dropped.
func ScoreAnswers(answers []SubmittedAnswer, questions map[uuid.UUID]*models.Question) ([]models.ProcessedAnswer, float64) {
	processed := make([]models.ProcessedAnswer, 0, len(answers))
	var total float64

	for _, a := range answers {
		id, err := uuid.Parse(a.QuestionID)
		if err != nil {
			continue
		}
		q, ok := questions[id]
		if !ok {
			continue
		}

		opt := resolveOption(q, a)
		pa := models.ProcessedAnswer{
			QuestionID:   q.ID,
			QuestionText: q.QuestionText,
		}

		if q.QuestionType == models.QuestionTypeMultipleChoice {
			correct := opt != nil && opt.IsCorrect
			pa.IsCorrect = &correct
			if correct {
				pa.Score = q.Points
				if pa.Score == 0 {
					pa.Score = 1
				}
			}
		}

		switch {
		case opt != nil && opt.OptionText != "":
			id := opt.ID
			pa.SelectedOptionID = &id
			pa.SelectedOptionText = opt.OptionText
		case opt != nil:
			id := opt.ID
			pa.SelectedOptionID = &id
			pa.SelectedOptionText = a.AnswerText
		default:
			pa.SelectedOptionText = a.AnswerText
		}

		total += pa.Score
		processed = append(processed, pa)
	}
	return processed, total
}

// StudentAnswersMap keys answers "1", "2", ... in submission order.
func StudentAnswersMap(processed []models.ProcessedAnswer) map[string]string {
	out := make(map[string]string, len(processed))
	for i, a := range processed {
		out[strconv.Itoa(i+1)] = a.SelectedOptionText
	}
	return out
}

// MeetsPassingScore applies the ten-point passing scale: a passing score of 7
// means 70% of the available points.
func MeetsPassingScore(totalScore, totalPossible, passingScore float64) bool {
	if totalPossible <= 0 {
		return false
	}
	return totalScore/totalPossible*100 >= passingScore*10
}
