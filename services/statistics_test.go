package services

import (
	"testing"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/testutil"
	"github.com/google/uuid"
)

func TestReviewStats(t *testing.T) {
	testutil.DB(t)
	course := seedCourse(t, 0)
	other := seedCourse(t, 0)
	user := seedStudent(t, "")

	reviews := []models.Review{
		{UserID: user.ID, CourseID: course.ID, Rating: 5, Content: "great"},
		{UserID: user.ID, CourseID: course.ID, Rating: 4, Content: "good"},
		{UserID: user.ID, CourseID: course.ID, Rating: 4, Content: "fine"},
		{UserID: user.ID, CourseID: other.ID, Rating: 1, Content: "meh"},
	}
	if err := database.DB.Create(&reviews).Error; err != nil {
		t.Fatalf("seed reviews: %v", err)
	}

	stats, err := ReviewStats(&course.ID)
	if err != nil {
		t.Fatalf("ReviewStats: %v", err)
	}
	if stats.TotalReviews != 3 || stats.AverageRating != 4.3 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.RatingDistribution["4"] != 2 || stats.RatingDistribution["1"] != 0 {
		t.Fatalf("distribution = %v", stats.RatingDistribution)
	}

	all, err := ReviewStats(nil)
	if err != nil {
		t.Fatalf("ReviewStats(nil): %v", err)
	}
	if all.TotalReviews != 4 || all.AverageRating != 3.5 {
		t.Fatalf("all = %+v", all)
	}

	empty, _ := ReviewStats(ptrUUID(uuid.New()))
	if empty.TotalReviews != 0 || empty.AverageRating != 0 || len(empty.RatingDistribution) != 5 {
		t.Fatalf("empty = %+v", empty)
	}
}

func TestTestStats(t *testing.T) {
	testutil.DB(t)
	test := models.Test{Title: "Mock 1", Topic: "grammar", Skill: "reading", DurationMin: 30, ExamType: "TOEIC", NumQuestions: 3, PassingScore: 7}
	if err := database.DB.Create(&test).Error; err != nil {
		t.Fatalf("seed test: %v", err)
	}
	questions := []models.Question{
		{TestID: test.ID, QuestionText: "q1", QuestionType: models.QuestionTypeMultipleChoice, Points: 1, Level: models.ExamLevels{TOEIC: "500"}},
		{TestID: test.ID, QuestionText: "q2", QuestionType: models.QuestionTypeMultipleChoice, Points: 1, Level: models.ExamLevels{TOEIC: "500"}},
		{TestID: test.ID, QuestionText: "q3", QuestionType: models.QuestionTypeMultipleChoice, Points: 1},
	}
	if err := database.DB.Create(&questions).Error; err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	userA, userB := uuid.New(), uuid.New()
	attempts := []models.TestAttempt{
		{TestPoolID: models.CustomPoolID, UserID: userA, TestID: test.ID, AttemptNumber: 2, MaxAttempts: 3, EvaluationModel: "gemini"},
		{TestPoolID: models.CustomPoolID, UserID: userB, TestID: test.ID, AttemptNumber: 1, MaxAttempts: 3, EvaluationModel: "gemini"},
	}
	if err := database.DB.Create(&attempts).Error; err != nil {
		t.Fatalf("seed attempts: %v", err)
	}

	stats, err := TestStats()
	if err != nil {
		t.Fatalf("TestStats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats = %d entries, want 1", len(stats))
	}
	s := stats[0]
	if s.TotalQuestions != 3 || s.TotalParticipants != 2 || s.TotalAttempts != 3 {
		t.Fatalf("stat = %+v", s)
	}
	if len(s.Levels) != 2 || s.Levels[0].Level != "500" || s.Levels[0].QuestionPercentage != 67 || s.Levels[1].Level != "Unknown" {
		t.Fatalf("levels = %+v", s.Levels)
	}
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }
