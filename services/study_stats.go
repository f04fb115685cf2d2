package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/models"
	"github.com/google/uuid"
)

const defaultStudyHoursPerWeek = 2

type DayStat struct {
	Date                       string `json:"date"`
	CompletedLessons           int    `json:"completedLessons"`
	CompletedTests             int    `json:"completedTests"`
	StudyTimeSeconds           int    `json:"studyTimeSeconds"`
	CumulativeStudyTimeSeconds int    `json:"cumulativeStudyTimeSeconds"`
}

type MonthlySummary struct {
	Month                     int       `json:"month"`
	Year                      int       `json:"year"`
	CompletedLessons          int       `json:"completedLessons"`
	CompletedTests            int       `json:"completedTests"`
	CurrentStreak             int       `json:"currentStreak"`
	LongestStreak             int       `json:"longestStreak"`
	StudyTimeThisMonth        string    `json:"studyTimeThisMonth"`
	StudyTimeThisMonthSeconds int       `json:"studyTimeThisMonthSeconds"`
	DailyStats                []DayStat `json:"dailyStats"`
}

func dayOrdinal(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// Streaks walks sorted distinct day numbers. A gap of one day extends the
// current run; any larger gap closes it.
func Streaks(days []int) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)

	current = 1
	longest = 1
	for i := 1; i < len(sorted); i++ {
		switch diff := sorted[i] - sorted[i-1]; {
		case diff == 0:
		case diff == 1:
			current++
		default:
			if current > longest {
				longest = current
			}
			current = 1
		}
	}
	if current > longest {
		longest = current
	}
	return current, longest
}

func FormatDuration(seconds int) string {
	return fmt.Sprintf("%dh %dm %ds", seconds/3600, (seconds%3600)/60, seconds%60)
}

func monthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func studyLogsBetween(userID uuid.UUID, from, to time.Time) ([]models.StudyLog, error) {
	var logs []models.StudyLog
	err := database.DB.
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("date asc").
		Find(&logs).Error
	return logs, err
}

// MonthlyStudyStats rolls the user's study logs for one month into totals,
// streaks and a per-day series. It returns nil when the month has no logs.
func MonthlyStudyStats(userID uuid.UUID, year int, month time.Month) (*MonthlySummary, error) {
	from, to := monthBounds(year, month)
	logs, err := studyLogsBetween(userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load study logs: %w", err)
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return summarizeLogs(logs, year, month), nil
}

func EmptyMonthlySummary(year int, month time.Month) *MonthlySummary {
	return &MonthlySummary{
		Month:              int(month),
		Year:               year,
		StudyTimeThisMonth: FormatDuration(0),
		DailyStats:         []DayStat{},
	}
}

func summarizeLogs(logs []models.StudyLog, year int, month time.Month) *MonthlySummary {
	s := EmptyMonthlySummary(year, month)

	lessons := map[uuid.UUID]struct{}{}
	tests := map[uuid.UUID]struct{}{}
	dayOrdinals := map[int]struct{}{}
	type bucket struct {
		lessons map[uuid.UUID]struct{}
		tests   map[uuid.UUID]struct{}
		seconds int
	}
	perDay := map[int]*bucket{}

	for _, l := range logs {
		s.StudyTimeThisMonthSeconds += l.DurationSeconds
		dayOrdinals[dayOrdinal(l.Date)] = struct{}{}

		d := l.Date.UTC().Day()
		b := perDay[d]
		if b == nil {
			b = &bucket{lessons: map[uuid.UUID]struct{}{}, tests: map[uuid.UUID]struct{}{}}
			perDay[d] = b
		}
		b.seconds += l.DurationSeconds
		if l.LessonID != nil {
			lessons[*l.LessonID] = struct{}{}
			b.lessons[*l.LessonID] = struct{}{}
		}
		if l.TestID != nil {
			tests[*l.TestID] = struct{}{}
			b.tests[*l.TestID] = struct{}{}
		}
	}

	s.CompletedLessons = len(lessons)
	s.CompletedTests = len(tests)
	s.StudyTimeThisMonth = FormatDuration(s.StudyTimeThisMonthSeconds)

	ords := make([]int, 0, len(dayOrdinals))
	for o := range dayOrdinals {
		ords = append(ords, o)
	}
	s.CurrentStreak, s.LongestStreak = Streaks(ords)

	from, to := monthBounds(year, month)
	cumulative := 0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		stat := DayStat{Date: d.Format("2006-01-02")}
		if b := perDay[d.Day()]; b != nil {
			stat.CompletedLessons = len(b.lessons)
			stat.CompletedTests = len(b.tests)
			stat.StudyTimeSeconds = b.seconds
		}
		cumulative += stat.StudyTimeSeconds
		stat.CumulativeStudyTimeSeconds = cumulative
		s.DailyStats = append(s.DailyStats, stat)
	}
	return s
}

// MaxWeeklyHours buckets logs by ISO week and returns the busiest week in hours.
func MaxWeeklyHours(logs []models.StudyLog) float64 {
	weeks := map[[2]int]int{}
	for _, l := range logs {
		y, w := l.Date.ISOWeek()
		weeks[[2]int{y, w}] += l.DurationSeconds
	}
	maxSeconds := 0
	for _, secs := range weeks {
		if secs > maxSeconds {
			maxSeconds = secs
		}
	}
	return float64(maxSeconds) / 3600
}

// StudyHoursPerWeek feeds the grading profile from the current month's logs.
func StudyHoursPerWeek(userID uuid.UUID, now time.Time) float64 {
	from, to := monthBounds(now.Year(), now.Month())
	logs, err := studyLogsBetween(userID, from, to)
	if err != nil || len(logs) == 0 {
		return defaultStudyHoursPerWeek
	}
	if h := MaxWeeklyHours(logs); h > 0 {
		return h
	}
	return defaultStudyHoursPerWeek
}

// LogStudyDay upserts today's entry of the monthly StudyStats document,
// adding the duration and merging exercise and lesson ids without duplicates.
func LogStudyDay(userID uuid.UUID, now time.Time, durationSeconds int, exercises, lessons []uuid.UUID) (*models.StudyStats, error) {
	var doc models.StudyStats
	err := database.DB.
		Where("user_id = ? AND year = ? AND month = ?", userID, now.Year(), int(now.Month())).
		Limit(1).Find(&doc).Error
	if err != nil {
		return nil, err
	}
	if doc.ID == uuid.Nil {
		doc = models.StudyStats{UserID: userID, Year: now.Year(), Month: int(now.Month())}
	}

	day := now.Day()
	idx := -1
	for i := range doc.DailyStats {
		if doc.DailyStats[i].Day == day {
			idx = i
			break
		}
	}
	if idx < 0 {
		doc.DailyStats = append(doc.DailyStats, models.DailyStat{Day: day, Exercises: []uuid.UUID{}, Lessons: []uuid.UUID{}})
		idx = len(doc.DailyStats) - 1
	}
	entry := &doc.DailyStats[idx]
	entry.DurationSeconds += durationSeconds
	entry.Exercises = mergeIDs(entry.Exercises, exercises)
	entry.Lessons = mergeIDs(entry.Lessons, lessons)

	if err := database.DB.Save(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func mergeIDs(have, add []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(have))
	for _, id := range have {
		seen[id] = struct{}{}
	}
	for _, id := range add {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		have = append(have, id)
	}
	return have
}

type StudyStatsSummary struct {
	CompletedLessons   int `json:"completedLessons"`
	StudyTimeThisMonth int `json:"studyTimeThisMonth"`
	CurrentStreak      int `json:"currentStreak"`
	LongestStreak      int `json:"longestStreak"`
}

// SummarizeStudyStats uses the same streak walk as the log rollup, on the
// document's day numbers.
func SummarizeStudyStats(doc *models.StudyStats) StudyStatsSummary {
	lessons := map[uuid.UUID]struct{}{}
	days := make([]int, 0, len(doc.DailyStats))
	var sum StudyStatsSummary
	for _, d := range doc.DailyStats {
		days = append(days, d.Day)
		sum.StudyTimeThisMonth += d.DurationSeconds
		for _, l := range d.Lessons {
			lessons[l] = struct{}{}
		}
	}
	sum.CompletedLessons = len(lessons)
	sum.CurrentStreak, sum.LongestStreak = Streaks(days)
	return sum
}
