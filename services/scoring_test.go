package services

import (
	"testing"

	"github.com/anjiri1684/studyhub/models"
	"github.com/google/uuid"
)

func mcq(points float64, correct int, texts ...string) *models.Question {
	q := &models.Question{QuestionText: "Pick one", QuestionType: models.QuestionTypeMultipleChoice, Points: points}
	q.ID = uuid.New()
	for i, text := range texts {
		opt := models.QuestionOption{OptionText: text, IsCorrect: i == correct, Position: i}
		opt.ID = uuid.New()
		q.Options = append(q.Options, opt)
	}
	return q
}

func TestScoreAnswers(t *testing.T) {
	q1 := mcq(2, 1, "go", "went", "gone")
	q2 := mcq(0, 0, "yes", "no")
	essay := &models.Question{QuestionText: "Describe your city", QuestionType: "essay", Points: 5}
	essay.ID = uuid.New()
	questions := map[uuid.UUID]*models.Question{q1.ID: q1, q2.ID: q2, essay.ID: essay}

	tests := []struct {
		name        string
		answer      SubmittedAnswer
		wantCorrect *bool
		wantScore   float64
		wantText    string
	}{
		{name: "correct option id", answer: SubmittedAnswer{QuestionID: q1.ID.String(), SelectedOptionID: q1.Options[1].ID.String()}, wantCorrect: boolPtr(true), wantScore: 2, wantText: "went"},
		{name: "wrong option id", answer: SubmittedAnswer{QuestionID: q1.ID.String(), SelectedOptionID: q1.Options[0].ID.String()}, wantCorrect: boolPtr(false), wantText: "go"},
		{name: "unknown option id", answer: SubmittedAnswer{QuestionID: q1.ID.String(), SelectedOptionID: uuid.NewString()}, wantCorrect: boolPtr(false)},
		{name: "letter fallback", answer: SubmittedAnswer{QuestionID: q1.ID.String(), AnswerLetter: "b"}, wantCorrect: boolPtr(true), wantScore: 2, wantText: "went"},
		{name: "zero points scores one", answer: SubmittedAnswer{QuestionID: q2.ID.String(), AnswerLetter: "A"}, wantCorrect: boolPtr(true), wantScore: 1, wantText: "yes"},
		{name: "non multiple choice left ungraded", answer: SubmittedAnswer{QuestionID: essay.ID.String(), AnswerText: "It is busy."}, wantText: "It is busy."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, total := ScoreAnswers([]SubmittedAnswer{tc.answer}, questions)
			if len(got) != 1 {
				t.Fatalf("processed %d answers, want 1", len(got))
			}
			a := got[0]
			switch {
			case tc.wantCorrect == nil && a.IsCorrect != nil:
				t.Fatalf("isCorrect = %v, want nil", *a.IsCorrect)
			case tc.wantCorrect != nil && (a.IsCorrect == nil || *a.IsCorrect != *tc.wantCorrect):
				t.Fatalf("isCorrect = %v, want %v", a.IsCorrect, *tc.wantCorrect)
			}
			if a.Score != tc.wantScore || total != tc.wantScore {
				t.Fatalf("score = %v total = %v, want %v", a.Score, total, tc.wantScore)
			}
			if a.SelectedOptionText != tc.wantText {
				t.Fatalf("selected text = %q, want %q", a.SelectedOptionText, tc.wantText)
			}
		})
	}
}

func TestScoreAnswersSkipsUnknownQuestions(t *testing.T) {
	q := mcq(1, 0, "a", "b")
	questions := map[uuid.UUID]*models.Question{q.ID: q}
	answers := []SubmittedAnswer{
		{QuestionID: "not-a-uuid", AnswerLetter: "A"},
		{QuestionID: uuid.NewString(), AnswerLetter: "A"},
		{QuestionID: q.ID.String(), AnswerLetter: "A"},
	}

	got, total := ScoreAnswers(answers, questions)
	if len(got) != 1 || total != 1 {
		t.Fatalf("got %d answers total %v, want 1 answer total 1", len(got), total)
	}
	if m := StudentAnswersMap(got); m["1"] != "a" {
		t.Fatalf("answers map = %v", m)
	}
}

func TestMeetsPassingScore(t *testing.T) {
	tests := []struct {
		total, possible, passing float64
		want                     bool
	}{
		{80, 100, 7, true},
		{80, 100, 9, false},
		{7, 10, 7, true},
		{6.9, 10, 7, false},
		{5, 0, 7, false},
	}
	for _, tc := range tests {
		if got := MeetsPassingScore(tc.total, tc.possible, tc.passing); got != tc.want {
			t.Errorf("MeetsPassingScore(%v, %v, %v) = %v, want %v", tc.total, tc.possible, tc.passing, got, tc.want)
		}
	}
}

func TestBuildAnswerKey(t *testing.T) {
	q := mcq(1, 2, "is", "are", "were")
	q.Skill = "grammar"
	q.Topic = []string{"past tense", "plurals"}
	essay := models.Question{QuestionText: "Write"}

	key := BuildAnswerKey([]models.Question{*q, essay})
	if len(key) != 2 || key[0].ID != 1 || key[1].ID != 2 {
		t.Fatalf("unexpected numbering: %+v", key)
	}
	if key[0].Answer == nil || *key[0].Answer != "were" {
		t.Fatalf("answer = %v, want were", key[0].Answer)
	}
	if key[0].Topic == nil || *key[0].Topic != "past tense, plurals" {
		t.Fatalf("topic = %v", key[0].Topic)
	}
	if key[1].Answer != nil || key[1].Skill != nil {
		t.Fatalf("essay entry should have no answer or skill: %+v", key[1])
	}
}

func boolPtr(b bool) *bool { return &b }
