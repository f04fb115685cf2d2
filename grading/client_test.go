package grading

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGradeSendsSnakeCasePayload(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/grade" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"overall":"good"}`))
	}))
	defer srv.Close()

	ans := "B"
	out, err := NewClient(srv.URL).Grade(context.Background(), Request{
		TestInfo:       TestInfo{Title: "Unit 1", TotalQuestions: 1},
		AnswerKey:      []AnswerKeyItem{{ID: 1, Question: "q", Answer: &ans}},
		StudentAnswers: map[string]string{"1": "B"},
		UseGemini:      true,
		Profile:        Profile{StudentID: "s1", StudyHoursPerWeek: 2},
	})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if string(out) != `{"overall":"good"}` {
		t.Fatalf("response = %s", out)
	}
	for _, key := range []string{"test_info", "answer_key", "student_answers", "use_gemini", "profile"} {
		if _, ok := got[key]; !ok {
			t.Errorf("payload missing %q", key)
		}
	}
}

func TestGradeNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Grade(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestGenerateTestUnwrapsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"question":"Pick","type":"mcq","options":["a","b"],"answer":"b","topic":"verbs"}]}`))
	}))
	defer srv.Close()

	qs, err := NewClient(srv.URL).GenerateTest(context.Background(), GenerateRequest{Topic: "verbs", NumQuestions: 1})
	if err != nil {
		t.Fatalf("GenerateTest: %v", err)
	}
	if len(qs) != 1 || qs[0].Answer != "b" {
		t.Fatalf("questions = %+v", qs)
	}
	if topics := qs[0].Topics(); len(topics) != 1 || topics[0] != "verbs" {
		t.Fatalf("topics = %v", topics)
	}
}
