package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"tasklog/internal/model"
)

type DailyProgress struct {
	Date     string  `json:"date"`
	Duration float64 `json:"duration"`
}

type WeeklyProgress struct {
	Week     string  `json:"week"`
	Duration float64 `json:"duration"`
}

// Analytics summarises all of a user's tasks. EstimationAccuracy is nil when
// nothing was estimated; positive means under budget.
type Analytics struct {
	TotalTasks          int              `json:"totalTasks"`
	CompletedTasks      int              `json:"completedTasks"`
	TotalEstimatedHours float64          `json:"totalEstimatedHours"`
	TotalLoggedHours    float64          `json:"totalLoggedHours"`
	EstimationAccuracy  *float64         `json:"estimationAccuracy"`
	DailyProgress       []DailyProgress  `json:"dailyProgress"`
	WeeklyProgress      []WeeklyProgress `json:"weeklyProgress"`
}

// AnalyticsService derives read-only statistics from a user's tasks.
type AnalyticsService struct {
	tasks *TaskService
}

func NewAnalyticsService(tasks *TaskService) *AnalyticsService {
	return &AnalyticsService{tasks: tasks}
}

func (s *AnalyticsService) ComputeAnalytics(ctx context.Context, ownerID uint) (*Analytics, error) {
	tasks, err := s.tasks.ListTasks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return BuildAnalytics(tasks), nil
}

// BuildAnalytics aggregates tasks and their time entries into a report.
// Buckets are keyed by UTC day and ISO week of each entry's LoggedAt.
func BuildAnalytics(tasks []model.Task) *Analytics {
	report := &Analytics{
		TotalTasks:     len(tasks),
		DailyProgress:  []DailyProgress{},
		WeeklyProgress: []WeeklyProgress{},
	}
	if len(tasks) == 0 {
		return report
	}

	daily := make(map[string]float64)
	weekly := make(map[string]float64)

	for _, task := range tasks {
		if task.EstimateTime != nil && *task.EstimateTime > 0 {
			report.TotalEstimatedHours += *task.EstimateTime
		}
		if task.LoggedTime > 0 {
			report.TotalLoggedHours += task.LoggedTime
		}
		if task.Status == model.StatusDone {
			report.CompletedTasks++
		}

		for _, entry := range task.TimeLog {
			daily[dayKey(entry.LoggedAt)] += entry.Duration
			weekly[isoWeekKey(entry.LoggedAt)] += entry.Duration
		}
	}

	if report.TotalEstimatedHours > 0 {
		accuracy := (report.TotalEstimatedHours - report.TotalLoggedHours) / report.TotalEstimatedHours * 100
		report.EstimationAccuracy = &accuracy
	}

	for _, key := range sortedKeys(daily) {
		report.DailyProgress = append(report.DailyProgress, DailyProgress{Date: key, Duration: daily[key]})
	}
	for _, key := range sortedKeys(weekly) {
		report.WeeklyProgress = append(report.WeeklyProgress, WeeklyProgress{Week: key, Duration: weekly[key]})
	}
	return report
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// isoWeekKey formats the ISO-8601 week of t as YYYY-W##. The date is moved to
// the Thursday of its Monday-based week; that Thursday's year is the week's
// year and its day-of-year gives the week number.
func isoWeekKey(t time.Time) string {
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	thursday := day.AddDate(0, 0, 4-weekday)

	yearStart := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := thursday.Sub(yearStart).Hours() / 24
	week := int(math.Ceil((days + 1) / 7))

	return fmt.Sprintf("%d-W%02d", thursday.Year(), week)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
