package services

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type RatingStats struct {
	AverageRating      float64          `json:"averageRating"`
	TotalReviews       int64            `json:"totalReviews"`
	RatingDistribution map[string]int64 `json:"ratingDistribution"`
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ReviewStats aggregates ratings, optionally scoped to one course.
func ReviewStats(courseID *uuid.UUID) (*RatingStats, error) {
	type row struct {
		Rating int
		Count  int64
	}
	var rows []row
	q := database.DB.Model(&models.Review{}).Select("rating, COUNT(*) AS count").Group("rating")
	if courseID != nil {
		q = q.Where("course_id = ?", *courseID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &RatingStats{RatingDistribution: map[string]int64{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}}
	var sum int64
	for _, r := range rows {
		stats.RatingDistribution[strconv.Itoa(r.Rating)] += r.Count
		stats.TotalReviews += r.Count
		sum += int64(r.Rating) * r.Count
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = roundTo(float64(sum)/float64(stats.TotalReviews), 1)
	}
	return stats, nil
}

type CourseSalesRow struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Cost          float64   `json:"cost"`
	CourseType    string    `json:"courseType"`
	CourseLevel   string    `json:"courseLevel"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	TotalRevenue  float64   `json:"totalRevenue"`
	TotalStudents int64     `json:"totalStudents"`
	CreatedAt     time.Time `json:"createdAt"`
}

type CourseStatistics struct {
	TotalCourses     int64            `json:"totalCourses"`
	TotalRevenue     float64          `json:"totalRevenue"`
	TotalStudents    int64            `json:"totalStudents"`
	TotalSoldCourses int64            `json:"totalSoldCourses"`
	Courses          []CourseSalesRow `json:"courses"`
}

func CourseStats() (*CourseStatistics, error) {
	stats := &CourseStatistics{Courses: []CourseSalesRow{}}
	if err := database.DB.Model(&models.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		return nil, err
	}
	err := database.DB.Model(&models.Payment{}).
		Select("COUNT(*), COALESCE(SUM(amount), 0)").
		Row().Scan(&stats.TotalStudents, &stats.TotalRevenue)
	if err != nil {
		return nil, err
	}

	err = database.DB.Model(&models.Course{}).
		Select("courses.id, courses.title, courses.cost, courses.course_type, courses.course_level, courses.thumbnail_url, courses.created_at, " +
			"COALESCE(SUM(payments.amount), 0) AS total_revenue, COUNT(payments.id) AS total_students").
		Joins("LEFT JOIN payments ON payments.course_id = courses.id").
		Group("courses.id, courses.title, courses.cost, courses.course_type, courses.course_level, courses.thumbnail_url, courses.created_at").
		Order("total_students desc").
		Scan(&stats.Courses).Error
	if err != nil {
		return nil, err
	}
	for _, c := range stats.Courses {
		if c.TotalStudents > 0 {
			stats.TotalSoldCourses++
		}
	}
	return stats, nil
}

type LevelStat struct {
	Level              string `json:"level"`
	TotalQuestions     int    `json:"totalQuestions"`
	TotalParticipants  int64  `json:"totalParticipants"`
	TotalAttempts      int64  `json:"totalAttempts"`
	QuestionPercentage int    `json:"questionPercentage"`
}

type TestStat struct {
	ID                uuid.UUID   `json:"id"`
	Title             string      `json:"title"`
	ExamType          string      `json:"examType"`
	TotalQuestions    int         `json:"totalQuestions"`
	TotalParticipants int64       `json:"totalParticipants"`
	TotalAttempts     int64       `json:"totalAttempts"`
	Levels            []LevelStat `json:"levels"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

func questionLevel(q models.Question, examType string) string {
	var level string
	switch examType {
	case "TOEIC":
		level = q.Level.TOEIC
	case "IELTS":
		level = q.Level.IELTS
	}
	if strings.TrimSpace(level) == "" {
		return "Unknown"
	}
	return level
}

// TestStats computes per-test participation and question-level breakdowns.
// Each test is aggregated in its own goroutine.
func TestStats() ([]TestStat, error) {
	var tests []models.Test
	if err := database.DB.Order("created_at desc").Find(&tests).Error; err != nil {
		return nil, err
	}

	out := make([]TestStat, len(tests))
	var g errgroup.Group
	g.SetLimit(8)
	for i := range tests {
		i := i
		g.Go(func() error {
			stat, err := statsForTest(database.DB, tests[i])
			if err != nil {
				stat = TestStat{ID: tests[i].ID, Title: tests[i].Title, ExamType: tests[i].ExamType, Levels: []LevelStat{},
					CreatedAt: tests[i].CreatedAt, UpdatedAt: tests[i].UpdatedAt}
			}
			out[i] = stat
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func statsForTest(db *gorm.DB, t models.Test) (TestStat, error) {
	stat := TestStat{ID: t.ID, Title: t.Title, ExamType: t.ExamType, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt, Levels: []LevelStat{}}

	var questions []models.Question
	if err := db.Where("test_id = ?", t.ID).Find(&questions).Error; err != nil {
		return stat, err
	}
	stat.TotalQuestions = len(questions)

	if err := db.Model(&models.TestAttempt{}).Where("test_id = ?", t.ID).
		Distinct("user_id").Count(&stat.TotalParticipants).Error; err != nil {
		return stat, err
	}
	if err := db.Model(&models.TestAttempt{}).Where("test_id = ?", t.ID).
		Select("COALESCE(SUM(attempt_number), 0)").Scan(&stat.TotalAttempts).Error; err != nil {
		return stat, err
	}

	counts := map[string]int{}
	for _, q := range questions {
		counts[questionLevel(q, t.ExamType)]++
	}
	for level, n := range counts {
		pct := 0
		if len(questions) > 0 {
			pct = int(math.Round(float64(n) / float64(len(questions)) * 100))
		}
		stat.Levels = append(stat.Levels, LevelStat{
			Level:              level,
			TotalQuestions:     n,
			TotalParticipants:  stat.TotalParticipants,
			TotalAttempts:      stat.TotalAttempts,
			QuestionPercentage: pct,
		})
	}
	sort.Slice(stat.Levels, func(a, b int) bool { return stat.Levels[a].Level < stat.Levels[b].Level })
	return stat, nil
}
