// Package grading talks to the external AI service that grades submissions
// and authors test questions.
package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/anjiri1684/studyhub/configs"
)

type AnswerKeyItem struct {
	ID       int     `json:"id"`
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
	Skill    *string `json:"skill"`
	Topic    *string `json:"topic"`
}

type TestInfo struct {
	Title          string `json:"title"`
	TotalQuestions int    `json:"total_questions"`
}

type HistoryEntry struct {
	TestDate    string          `json:"test_date"`
	LevelAtTest string          `json:"level_at_test"`
	PerQuestion json.RawMessage `json:"per_question"`
	WeakTopics  json.RawMessage `json:"weak_topics"`
}

type Profile struct {
	StudentID           string         `json:"student_id"`
	Name                string         `json:"name"`
	CurrentLevel        string         `json:"current_level"`
	StudyHoursPerWeek   float64        `json:"study_hours_per_week"`
	LearningGoals       string         `json:"learning_goals"`
	LearningPreferences []string       `json:"learning_preferences"`
	StudyMethods        []string       `json:"study_methods"`
	TestHistory         []HistoryEntry `json:"test_history"`
}

type Request struct {
	TestInfo       TestInfo          `json:"test_info"`
	AnswerKey      []AnswerKeyItem   `json:"answer_key"`
	StudentAnswers map[string]string `json:"student_answers"`
	UseGemini      bool              `json:"use_gemini"`
	Profile        Profile           `json:"profile"`
	// PreviousAnswers holds option texts from earlier submissions of the
	// same attempt, keyed by question number.
	PreviousAnswers map[string]string `json:"previous_answers,omitempty"`
}

// GenerateRequest is the body of /generate-test.
type GenerateRequest struct {
	Topic         string   `json:"topic"`
	QuestionTypes []string `json:"question_types"`
	NumQuestions  int      `json:"num_questions"`
	ExamType      string   `json:"exam_type,omitempty"`
	ScoreRange    string   `json:"score_range,omitempty"`
}

// CustomGenerateRequest is the body of /generate-test-custom.
type CustomGenerateRequest struct {
	CurrentLevel  string          `json:"current_level"`
	ToeicScore    *int            `json:"toeic_score"`
	WeakSkills    []string        `json:"weak_skills"`
	ExamType      string          `json:"exam_type"`
	Topics        []string        `json:"topics"`
	Difficulty    string          `json:"difficulty"`
	QuestionRatio json.RawMessage `json:"question_ratio,omitempty"`
	NumQuestions  int             `json:"num_questions"`
	TimeLimit     int             `json:"time_limit"`
}

// GeneratedQuestion is one item of the service's data array.
type GeneratedQuestion struct {
	Question    string          `json:"question"`
	Type        string          `json:"type"`
	Options     []string        `json:"options"`
	Answer      string          `json:"answer"`
	Skill       string          `json:"skill"`
	Topic       json.RawMessage `json:"topic"`
	Explanation string          `json:"explanation"`
}

// Topics accepts either a string or a list of strings.
func (q GeneratedQuestion) Topics() []string {
	if len(q.Topic) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(q.Topic, &list); err == nil {
		return list
	}
	var one string
	if err := json.Unmarshal(q.Topic, &one); err == nil && one != "" {
		return []string{one}
	}
	return nil
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func NewFromConfig() *Client {
	return NewClient(config.ConfigOrDefault("GRADING_SERVICE_URL", "http://localhost:8000"))
}

// Grade returns the service's analysis verbatim.
func (c *Client) Grade(ctx context.Context, req Request) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.post(ctx, "/grade", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GenerateTest(ctx context.Context, req GenerateRequest) ([]GeneratedQuestion, error) {
	var out struct {
		Data []GeneratedQuestion `json:"data"`
	}
	if err := c.post(ctx, "/generate-test", req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GenerateCustomTest(ctx context.Context, req CustomGenerateRequest) ([]GeneratedQuestion, error) {
	var out struct {
		Data []GeneratedQuestion `json:"data"`
	}
	if err := c.post(ctx, "/generate-test-custom", req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, truncate(raw, 256))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
