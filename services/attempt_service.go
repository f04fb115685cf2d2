package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/grading"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const historyDepth = 3

type SubmitInput struct {
	AttemptID uuid.UUID
	UserID    uuid.UUID
	TestID    uuid.UUID
	StartTime *time.Time
	Answers   []SubmittedAnswer
}

type SubmitSummary struct {
	TotalScore float64 `json:"totalScore"`
	Answered   int     `json:"answered"`
}

type SubmitResult struct {
	Attempt       *models.TestAttempt   `json:"attempt"`
	Certificate   *models.Certificate   `json:"certificate"`
	AttemptDetail *models.AttemptDetail `json:"attemptDetail"`
	Summary       SubmitSummary         `json:"summary"`
}

// SubmitAttempt scores a submission, has it graded, records the evidence and
// issues the course certificate when the final test is passed.
func SubmitAttempt(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.AttemptID == uuid.Nil {
		return nil, ErrAttemptIDRequired
	}
	if len(in.Answers) == 0 {
		return nil, ErrAnswersRequired
	}
	log := logger.Log.With("attempt_id", in.AttemptID.String(), "user_id", in.UserID.String())
	now := time.Now().UTC()

	var attempt models.TestAttempt
	if err := database.DB.Preload("User").First(&attempt, "id = ?", in.AttemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("%w: load attempt: %v", ErrGradingFailed, err)
	}
	if in.TestID == uuid.Nil {
		in.TestID = attempt.TestID
	}
	if in.UserID == uuid.Nil {
		in.UserID = attempt.UserID
	}

	var test models.Test
	if err := database.DB.First(&test, "id = ?", in.TestID).Error; err != nil {
		return nil, fmt.Errorf("%w: load test: %v", ErrGradingFailed, err)
	}

	questions, err := loadSubmittedQuestions(in.Answers)
	if err != nil {
		return nil, fmt.Errorf("%w: load questions: %v", ErrGradingFailed, err)
	}
	byID := make(map[uuid.UUID]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	processed, totalScore := ScoreAnswers(in.Answers, byID)

	var user models.User
	if attempt.User != nil {
		user = *attempt.User
	} else if err := database.DB.First(&user, "id = ?", in.UserID).Error; err != nil {
		return nil, fmt.Errorf("%w: load user: %v", ErrGradingFailed, err)
	}

	history, err := testHistory(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %v", ErrGradingFailed, err)
	}

	req := gradingRequest(&test, questions, processed, &user, history, now)
	req.PreviousAnswers = previousAnswers(in.AttemptID, questions)

	if GradingClient == nil {
		return nil, fmt.Errorf("%w: %v", ErrGradingFailed, ErrNotConfigured)
	}
	analysis, err := GradingClient.Grade(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGradingFailed, err)
	}

	startTime := now
	if in.StartTime != nil {
		startTime = *in.StartTime
	}
	attemptNumber := attempt.AttemptNumber + 1
	detail := models.AttemptDetail{
		AttemptID:      attempt.ID,
		AttemptNumber:  attemptNumber,
		StartTime:      startTime,
		EndTime:        &now,
		Answers:        datatypes.JSONSlice[models.ProcessedAnswer](processed),
		AnalysisResult: datatypes.JSON(analysis),
		TotalScore:     totalScore,
		SubmittedAt:    now,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&detail).Error; err != nil {
			return err
		}
		return tx.Model(&attempt).Updates(map[string]interface{}{
			"score":          totalScore,
			"attempt_number": attemptNumber,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("persist submission: %w", err)
	}
	attempt.Score = totalScore
	attempt.AttemptNumber = attemptNumber
	attempt.User = nil

	result := &SubmitResult{
		Attempt:       &attempt,
		AttemptDetail: &detail,
		Summary:       SubmitSummary{TotalScore: totalScore, Answered: len(processed)},
	}

	totalPossible, err := attemptPointsTotal(test.ID, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("sum test points: %w", err)
	}

	switch {
	case test.CourseID == nil:
		log.Warn("cannot issue certificate: courseId is missing", "test_id", test.ID.String())
	case test.IsTheLastTest && MeetsPassingScore(totalScore, totalPossible, test.PassingScore):
		cert, err := IssueCertificate(ctx, user.ID, *test.CourseID)
		if err != nil {
			return nil, fmt.Errorf("issue certificate: %w", err)
		}
		result.Certificate = cert
	}

	log.Info("attempt submitted", "score", totalScore, "possible", totalPossible, "attempt_number", attemptNumber)
	return result, nil
}

func gradingRequest(test *models.Test, questions []models.Question, processed []models.ProcessedAnswer, user *models.User, history []grading.HistoryEntry, now time.Time) grading.Request {
	return grading.Request{
		TestInfo:       grading.TestInfo{Title: test.Title, TotalQuestions: len(questions)},
		AnswerKey:      BuildAnswerKey(questions),
		StudentAnswers: StudentAnswersMap(processed),
		UseGemini:      !test.IsTheLastTest,
		Profile: grading.Profile{
			StudentID:           user.ID.String(),
			Name:                user.FullName,
			CurrentLevel:        "TOEIC " + user.CurrentLevel.TOEIC,
			StudyHoursPerWeek:   StudyHoursPerWeek(user.ID, now),
			LearningGoals:       user.LearningGoals,
			LearningPreferences: nonNil(user.LearningPreferences),
			StudyMethods:        nonNil(user.StudyMethods),
			TestHistory:         history,
		},
	}
}

// PreviewGrade grades answers against a test without recording anything.
func PreviewGrade(ctx context.Context, testID, userID uuid.UUID, answers []SubmittedAnswer) (json.RawMessage, error) {
	if len(answers) == 0 {
		return nil, ErrAnswersRequired
	}
	if GradingClient == nil {
		return nil, ErrNotConfigured
	}
	var test models.Test
	if err := database.DB.First(&test, "id = ?", testID).Error; err != nil {
		return nil, fmt.Errorf("load test: %w", err)
	}
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	questions, err := loadSubmittedQuestions(answers)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[uuid.UUID]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}
	processed, _ := ScoreAnswers(answers, byID)
	history, err := testHistory(user.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return GradingClient.Grade(ctx, gradingRequest(&test, questions, processed, &user, history, time.Now().UTC()))
}

func loadSubmittedQuestions(answers []SubmittedAnswer) ([]models.Question, error) {
	ids := make([]uuid.UUID, 0, len(answers))
	for _, a := range answers {
		if id, err := uuid.Parse(a.QuestionID); err == nil {
			ids = append(ids, id)
		}
	}
	var questions []models.Question
	if len(ids) == 0 {
		return questions, nil
	}
	err := database.DB.
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("id IN ?", ids).
		Order("created_at asc").
		Find(&questions).Error
	return questions, err
}

// previousAnswers maps question number to the option text recorded by earlier
// submissions of the same attempt. It is nil on a first submission.
func previousAnswers(attemptID uuid.UUID, questions []models.Question) map[string]string {
	var details []models.AttemptDetail
	if err := database.DB.Where("attempt_id = ?", attemptID).Order("attempt_number asc").Find(&details).Error; err != nil {
		return nil
	}
	number := make(map[uuid.UUID]int, len(questions))
	for i, q := range questions {
		number[q.ID] = i + 1
	}
	var out map[string]string
	for _, d := range details {
		for _, a := range d.Answers {
			if n, ok := number[a.QuestionID]; ok && a.SelectedOptionText != "" {
				if out == nil {
					out = map[string]string{}
				}
				out[strconv.Itoa(n)] = a.SelectedOptionText
			}
		}
	}
	return out
}

// testHistory returns the user's latest graded submissions, newest first.
func testHistory(userID uuid.UUID) ([]grading.HistoryEntry, error) {
	var details []models.AttemptDetail
	err := database.DB.
		Joins("JOIN test_attempts ON test_attempts.id = attempt_details.attempt_id").
		Where("test_attempts.user_id = ?", userID).
		Order("attempt_details.submitted_at desc").
		Limit(historyDepth).
		Find(&details).Error
	if err != nil {
		return nil, err
	}

	history := make([]grading.HistoryEntry, 0, len(details))
	for _, d := range details {
		var analysis struct {
			CurrentLevel string          `json:"current_level"`
			PerQuestion  json.RawMessage `json:"per_question"`
			WeakTopics   json.RawMessage `json:"weak_topics"`
		}
		if len(d.AnalysisResult) > 0 {
			_ = json.Unmarshal(d.AnalysisResult, &analysis)
		}
		if len(analysis.WeakTopics) == 0 || string(analysis.WeakTopics) == "null" {
			analysis.WeakTopics = json.RawMessage("[]")
		}
		if len(analysis.PerQuestion) == 0 {
			analysis.PerQuestion = json.RawMessage("null")
		}
		history = append(history, grading.HistoryEntry{
			TestDate:    d.StartTime.Format("2006-01-02"),
			LevelAtTest: analysis.CurrentLevel,
			PerQuestion: analysis.PerQuestion,
			WeakTopics:  analysis.WeakTopics,
		})
	}
	return history, nil
}

// attemptPointsTotal sums the points of the questions the attempt was served:
// the ones generated for it when there are any, otherwise the test's shared
// questions. Questions generated for other attempts never count.
func attemptPointsTotal(testID, attemptID uuid.UUID) (float64, error) {
	var own int64
	if err := database.DB.Model(&models.Question{}).
		Where("test_id = ? AND attempt_id = ?", testID, attemptID).
		Count(&own).Error; err != nil {
		return 0, err
	}

	q := database.DB.Model(&models.Question{}).Where("test_id = ?", testID)
	if own > 0 {
		q = q.Where("attempt_id = ?", attemptID)
	} else {
		q = q.Where("attempt_id IS NULL")
	}
	var total float64
	err := q.Select("COALESCE(SUM(points), 0)").Scan(&total).Error
	return total, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
