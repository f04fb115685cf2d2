package handlers

import (
	"encoding/json"
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AttemptDetailRequest struct {
	AttemptID      uuid.UUID                `json:"attemptId"`
	AttemptNumber  int                      `json:"attemptNumber"`
	StartTime      *time.Time               `json:"startTime"`
	EndTime        *time.Time               `json:"endTime"`
	Answers        []models.ProcessedAnswer `json:"answers"`
	AnalysisResult json.RawMessage          `json:"analysisResult"`
	TotalScore     float64                  `json:"totalScore"`
}

func CreateAttemptDetail(c *fiber.Ctx) error {
	var req AttemptDetailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.AttemptID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "attemptId is required"})
	}
	now := time.Now().UTC()
	detail := models.AttemptDetail{
		AttemptID:      req.AttemptID,
		AttemptNumber:  req.AttemptNumber,
		StartTime:      now,
		EndTime:        req.EndTime,
		Answers:        req.Answers,
		AnalysisResult: datatypes.JSON(req.AnalysisResult),
		TotalScore:     req.TotalScore,
		SubmittedAt:    now,
	}
	if req.StartTime != nil {
		detail.StartTime = *req.StartTime
	}
	if err := database.DB.Create(&detail).Error; err != nil {
		logger.Log.Error("create attempt detail failed", "attempt_id", req.AttemptID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create AttemptDetail"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "AttemptDetail created successfully", "data": detail})
}

func latestDetail(attemptID uuid.UUID) (*models.AttemptDetail, error) {
	var detail models.AttemptDetail
	err := database.DB.Where("attempt_id = ?", attemptID).Order("attempt_number desc").Limit(1).Find(&detail).Error
	if err != nil || detail.ID == uuid.Nil {
		return nil, err
	}
	return &detail, nil
}

func GetAttemptDetailByAttemptID(c *fiber.Ctx) error {
	attemptID, _ := paramUUID(c, "attemptId")
	detail, err := latestDetail(attemptID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get AttemptDetail"})
	}
	if detail == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "AttemptDetail not found"})
	}
	return c.JSON(fiber.Map{"message": "AttemptDetail retrieved successfully", "data": detail})
}

// UpdateAttemptDetailByAttemptID edits the latest detail of the attempt.
func UpdateAttemptDetailByAttemptID(c *fiber.Ctx) error {
	attemptID, _ := paramUUID(c, "attemptId")
	var req AttemptDetailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	detail, err := latestDetail(attemptID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update AttemptDetail"})
	}
	if detail == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "AttemptDetail not found"})
	}
	if req.EndTime != nil {
		detail.EndTime = req.EndTime
	}
	if req.Answers != nil {
		detail.Answers = req.Answers
	}
	if len(req.AnalysisResult) > 0 {
		detail.AnalysisResult = datatypes.JSON(req.AnalysisResult)
	}
	if req.TotalScore != 0 {
		detail.TotalScore = req.TotalScore
	}
	if err := database.DB.Save(detail).Error; err != nil {
		logger.Log.Error("update attempt detail failed", "attempt_id", attemptID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update AttemptDetail"})
	}
	return c.JSON(fiber.Map{"message": "AttemptDetail updated successfully", "data": detail})
}

func DeleteAttemptDetailByAttemptID(c *fiber.Ctx) error {
	attemptID, _ := paramUUID(c, "attemptId")
	detail, err := latestDetail(attemptID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete AttemptDetail"})
	}
	if detail == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "AttemptDetail not found"})
	}
	if err := database.DB.Delete(detail).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete AttemptDetail"})
	}
	return c.JSON(fiber.Map{"message": "AttemptDetail deleted successfully", "data": detail})
}

// GetAnswersByAttempt flattens the answers of every submission of the attempt.
func GetAnswersByAttempt(c *fiber.Ctx) error {
	attemptID, ok := paramUUID(c, "attemptId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Attempt ID not found"})
	}
	var details []models.AttemptDetail
	if err := database.DB.Where("attempt_id = ?", attemptID).Order("attempt_number asc").Find(&details).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get answers"})
	}
	answers := []models.ProcessedAnswer{}
	for _, d := range details {
		answers = append(answers, d.Answers...)
	}
	return c.JSON(fiber.Map{"message": "Answers retrieved", "data": answers, "total": len(answers)})
}

type attemptWithDetails struct {
	attempts []models.TestAttempt
	details  map[uuid.UUID][]models.AttemptDetail
}

func loadUserAttempts(userID uuid.UUID) (*attemptWithDetails, error) {
	out := &attemptWithDetails{details: map[uuid.UUID][]models.AttemptDetail{}}
	if err := database.DB.Preload("Test").Where("user_id = ?", userID).Order("created_at desc").Find(&out.attempts).Error; err != nil {
		return nil, err
	}
	if len(out.attempts) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(out.attempts))
	for i, a := range out.attempts {
		ids[i] = a.ID
	}
	var details []models.AttemptDetail
	if err := database.DB.Where("attempt_id IN ?", ids).Order("attempt_number asc").Find(&details).Error; err != nil {
		return nil, err
	}
	for _, d := range details {
		out.details[d.AttemptID] = append(out.details[d.AttemptID], d)
	}
	return out, nil
}

func GetAllAttemptDetailsByUser(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	loaded, err := loadUserAttempts(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Error fetching attempt details"})
	}
	if len(loaded.attempts) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No attempts found for this user"})
	}

	merged := []fiber.Map{}
	for _, a := range loaded.attempts {
		for _, d := range loaded.details[a.ID] {
			entry := fiber.Map{
				"attemptId":      d.AttemptID,
				"attemptNumber":  d.AttemptNumber,
				"startTime":      d.StartTime,
				"endTime":        d.EndTime,
				"totalScore":     d.TotalScore,
				"analysisResult": d.AnalysisResult,
			}
			if a.Test != nil {
				entry["testTitle"] = a.Test.Title
				entry["skill"] = a.Test.Skill
				entry["examType"] = a.Test.ExamType
				entry["durationMin"] = a.Test.DurationMin
			}
			merged = append(merged, entry)
		}
	}
	return c.JSON(fiber.Map{"message": "Fetched all attempt details successfully", "data": merged})
}

type testGroup struct {
	TestID      uuid.UUID   `json:"testId"`
	Title       string      `json:"title"`
	Skill       string      `json:"skill"`
	ExamType    string      `json:"examType"`
	DurationMin int         `json:"durationMin"`
	Attempts    []fiber.Map `json:"attempts"`
}

// GetUserTestDetailsGroupedByTest groups the caller's attempts by test,
// newest attempt first, each with its latest submission.
func GetUserTestDetailsGroupedByTest(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	loaded, err := loadUserAttempts(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to get test details for user"})
	}
	if len(loaded.attempts) == 0 {
		return c.JSON(fiber.Map{"message": "User has no attempts yet", "data": []testGroup{}})
	}

	groups := []*testGroup{}
	byTest := map[uuid.UUID]*testGroup{}
	for _, a := range loaded.attempts {
		if a.Test == nil {
			continue
		}
		g, ok := byTest[a.TestID]
		if !ok {
			g = &testGroup{
				TestID:      a.TestID,
				Title:       a.Test.Title,
				Skill:       a.Test.Skill,
				ExamType:    a.Test.ExamType,
				DurationMin: a.Test.DurationMin,
				Attempts:    []fiber.Map{},
			}
			byTest[a.TestID] = g
			groups = append(groups, g)
		}
		entry := fiber.Map{
			"attemptId":      a.ID,
			"attemptNumber":  a.AttemptNumber,
			"score":          a.Score,
			"totalScore":     0,
			"answers":        []models.ProcessedAnswer{},
			"analysisResult": fiber.Map{},
		}
		if ds := loaded.details[a.ID]; len(ds) > 0 {
			last := ds[len(ds)-1]
			entry["startTime"] = last.StartTime
			entry["endTime"] = last.EndTime
			entry["totalScore"] = last.TotalScore
			entry["submittedAt"] = last.SubmittedAt
			entry["answers"] = last.Answers
			entry["analysisResult"] = last.AnalysisResult
		}
		g.Attempts = append(g.Attempts, entry)
	}
	return c.JSON(fiber.Map{"message": "Fetched all test details grouped by test successfully", "data": groups})
}

func GetAttemptDetailByUserAndTest(c *fiber.Ctx) error {
	userID, okUser := paramUUID(c, "userId")
	testID, okTest := paramUUID(c, "testId")
	if !okUser || !okTest {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No attempt found for this user and test"})
	}
	var detail models.AttemptDetail
	err := database.DB.Joins("JOIN test_attempts ON test_attempts.id = attempt_details.attempt_id").
		Where("test_attempts.user_id = ? AND test_attempts.test_id = ?", userID, testID).
		Order("attempt_details.submitted_at desc").Limit(1).Find(&detail).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
	if detail.ID == uuid.Nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No attempt found for this user and test"})
	}
	return c.JSON(fiber.Map{"message": "Attempt detail retrieved", "data": detail})
}
