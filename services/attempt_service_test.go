package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/models"
	"github.com/google/uuid"
)

type attemptFixture struct {
	student   models.User
	test      models.Test
	questions []models.Question
	attempt   models.TestAttempt
}

func seedAttempt(t *testing.T, last bool, courseID *uuid.UUID) attemptFixture {
	t.Helper()
	f := attemptFixture{student: seedStudent(t, studentWallet)}
	f.test = models.Test{Title: "Final", Topic: "grammar", Skill: "reading", DurationMin: 20, ExamType: "TOEIC",
		NumQuestions: 2, PassingScore: 7, IsTheLastTest: last, CourseID: courseID}
	if err := database.DB.Create(&f.test).Error; err != nil {
		t.Fatalf("seed test: %v", err)
	}
	for _, text := range []string{"She ___ to school.", "They ___ here."} {
		q := models.Question{TestID: f.test.ID, QuestionText: text, QuestionType: models.QuestionTypeMultipleChoice, Points: 1,
			Options: []models.QuestionOption{
				{OptionText: "goes", IsCorrect: true, Position: 0},
				{OptionText: "go", Position: 1},
			}}
		if err := database.DB.Create(&q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
		f.questions = append(f.questions, q)
	}
	f.attempt = models.TestAttempt{TestPoolID: models.CustomPoolID, UserID: f.student.ID, TestID: f.test.ID, MaxAttempts: 3, EvaluationModel: "gemini"}
	if err := database.DB.Create(&f.attempt).Error; err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
	return f
}

func (f attemptFixture) answers(letters ...string) []SubmittedAnswer {
	out := make([]SubmittedAnswer, len(letters))
	for i, l := range letters {
		out[i] = SubmittedAnswer{QuestionID: f.questions[i].ID.String(), AnswerLetter: l}
	}
	return out
}

func TestSubmitAttemptIssuesCertificateOnFinalPass(t *testing.T) {
	grader, led, _ := installFakes(t)
	course := seedCourse(t, 0)
	f := seedAttempt(t, true, &course.ID)

	res, err := SubmitAttempt(context.Background(), SubmitInput{AttemptID: f.attempt.ID, Answers: f.answers("A", "A")})
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if res.Summary.TotalScore != 2 || res.Summary.Answered != 2 {
		t.Fatalf("summary = %+v", res.Summary)
	}
	if res.Attempt.AttemptNumber != 1 || res.AttemptDetail.AttemptNumber != 1 {
		t.Fatalf("attempt numbers = %d / %d", res.Attempt.AttemptNumber, res.AttemptDetail.AttemptNumber)
	}
	if res.Certificate == nil || len(led.issued) != 1 {
		t.Fatal("passing the last test should issue a certificate")
	}

	if len(grader.requests) != 1 {
		t.Fatalf("grader calls = %d", len(grader.requests))
	}
	req := grader.requests[0]
	if req.UseGemini {
		t.Fatal("last test should not use the generative grader")
	}
	if len(req.AnswerKey) != 2 || req.StudentAnswers["1"] != "goes" {
		t.Fatalf("request = %+v", req)
	}
	if req.Profile.CurrentLevel != "TOEIC 550" || req.Profile.StudyHoursPerWeek != defaultStudyHoursPerWeek {
		t.Fatalf("profile = %+v", req.Profile)
	}

	var stored models.TestAttempt
	database.DB.First(&stored, "id = ?", f.attempt.ID)
	if stored.Score != 2 || stored.AttemptNumber != 1 {
		t.Fatalf("stored attempt = %+v", stored)
	}
}

func TestSubmitAttemptWithoutCertificate(t *testing.T) {
	tests := []struct {
		name      string
		last      bool
		hasCourse bool
		letters   []string
		wantScore float64
	}{
		{name: "final test failed", last: true, hasCourse: true, letters: []string{"A", "B"}, wantScore: 1},
		{name: "not the final test", last: false, hasCourse: true, letters: []string{"A", "A"}, wantScore: 2},
		{name: "test without course", last: true, letters: []string{"A", "A"}, wantScore: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			grader, led, _ := installFakes(t)
			var courseID *uuid.UUID
			if tc.hasCourse {
				c := seedCourse(t, 0)
				courseID = &c.ID
			}
			f := seedAttempt(t, tc.last, courseID)

			res, err := SubmitAttempt(context.Background(), SubmitInput{AttemptID: f.attempt.ID, Answers: f.answers(tc.letters...)})
			if err != nil {
				t.Fatalf("SubmitAttempt: %v", err)
			}
			if res.Certificate != nil || len(led.issued) != 0 {
				t.Fatal("no certificate expected")
			}
			if res.Summary.TotalScore != tc.wantScore {
				t.Fatalf("score = %v, want %v", res.Summary.TotalScore, tc.wantScore)
			}
			if grader.requests[0].UseGemini == tc.last {
				t.Fatalf("useGemini = %v for last=%v", grader.requests[0].UseGemini, tc.last)
			}
		})
	}
}

func TestSubmitAttemptSecondSubmissionCarriesHistory(t *testing.T) {
	grader, _, _ := installFakes(t)
	f := seedAttempt(t, false, nil)

	for i := 0; i < 2; i++ {
		if _, err := SubmitAttempt(context.Background(), SubmitInput{AttemptID: f.attempt.ID, Answers: f.answers("B", "A")}); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}
	var details []models.AttemptDetail
	database.DB.Where("attempt_id = ?", f.attempt.ID).Order("attempt_number asc").Find(&details)
	if len(details) != 2 || details[1].AttemptNumber != 2 {
		t.Fatalf("details = %+v", details)
	}
	history := grader.requests[1].Profile.TestHistory
	if len(history) != 1 || history[0].LevelAtTest != "TOEIC 600" {
		t.Fatalf("history = %+v", history)
	}
}

func TestSubmitAttemptErrors(t *testing.T) {
	grader, _, _ := installFakes(t)
	f := seedAttempt(t, false, nil)

	tests := []struct {
		name      string
		in        SubmitInput
		graderErr error
		want      error
	}{
		{name: "missing attempt id", in: SubmitInput{Answers: f.answers("A")}, want: ErrAttemptIDRequired},
		{name: "no answers", in: SubmitInput{AttemptID: f.attempt.ID}, want: ErrAnswersRequired},
		{name: "unknown attempt", in: SubmitInput{AttemptID: uuid.New(), Answers: f.answers("A")}, want: ErrAttemptNotFound},
		{name: "grader down", in: SubmitInput{AttemptID: f.attempt.ID, Answers: f.answers("A")}, graderErr: errors.New("503"), want: ErrGradingFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			grader.err = tc.graderErr
			if _, err := SubmitAttempt(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	var count int64
	database.DB.Model(&models.AttemptDetail{}).Count(&count)
	if count != 0 {
		t.Fatalf("details stored = %d, want 0", count)
	}
}

func TestSubmitAttemptIgnoresOtherAttemptsQuestions(t *testing.T) {
	_, led, _ := installFakes(t)
	course := seedCourse(t, 0)
	f := seedAttempt(t, true, &course.ID)

	other := models.TestAttempt{TestPoolID: models.CustomPoolID, UserID: seedStudent(t, "").ID, TestID: f.test.ID, MaxAttempts: 3, EvaluationModel: "gemini"}
	if err := database.DB.Create(&other).Error; err != nil {
		t.Fatalf("seed other attempt: %v", err)
	}
	generated := models.Question{TestID: f.test.ID, AttemptID: &other.ID, QuestionText: "We ___ late.", QuestionType: models.QuestionTypeMultipleChoice, Points: 5,
		Options: []models.QuestionOption{{OptionText: "were", IsCorrect: true}}}
	if err := database.DB.Create(&generated).Error; err != nil {
		t.Fatalf("seed generated question: %v", err)
	}

	res, err := SubmitAttempt(context.Background(), SubmitInput{AttemptID: f.attempt.ID, Answers: f.answers("A", "A")})
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if res.Certificate == nil || len(led.issued) != 1 {
		t.Fatal("full marks on the served questions should issue a certificate")
	}
}

func TestAttemptPointsTotal(t *testing.T) {
	installFakes(t)
	f := seedAttempt(t, false, nil)

	total, err := attemptPointsTotal(f.test.ID, f.attempt.ID)
	if err != nil || total != 2 {
		t.Fatalf("shared total = %v, %v; want 2", total, err)
	}

	own := models.Question{TestID: f.test.ID, AttemptID: &f.attempt.ID, QuestionText: "I ___ tired.", QuestionType: models.QuestionTypeMultipleChoice, Points: 3}
	if err := database.DB.Create(&own).Error; err != nil {
		t.Fatalf("seed own question: %v", err)
	}
	total, err = attemptPointsTotal(f.test.ID, f.attempt.ID)
	if err != nil || total != 3 {
		t.Fatalf("generated total = %v, %v; want 3", total, err)
	}
}

func TestSubmitAttemptSendsPreviousAnswers(t *testing.T) {
	grader, _, _ := installFakes(t)
	f := seedAttempt(t, false, nil)

	for i := 0; i < 2; i++ {
		if _, err := SubmitAttempt(context.Background(), SubmitInput{AttemptID: f.attempt.ID, Answers: f.answers("A", "B")}); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
	}
	if len(grader.requests) != 2 {
		t.Fatalf("grader calls = %d", len(grader.requests))
	}
	if prev := grader.requests[0].PreviousAnswers; prev != nil {
		t.Fatalf("first submission previous answers = %v, want none", prev)
	}
	prev := grader.requests[1].PreviousAnswers
	if prev["1"] != "goes" || prev["2"] != "go" {
		t.Fatalf("previous answers = %v", prev)
	}
}
