package service

import (
	"context"
	"log/slog"
	"time"

	"tasklog/internal/model"
)

const timerNote = "Timer session"

// TimeLogInput is the payload for logging or editing a time entry. A nil
// Note on edit keeps the previous note.
type TimeLogInput struct {
	Duration float64
	Note     *string
}

// TimeSummary is a read-only view of a task's logged time.
type TimeSummary struct {
	TotalLoggedTime float64           `json:"totalLoggedTime"`
	TimeLogHistory  []model.TimeEntry `json:"timeLogHistory"`
}

// TimeLogService maintains the time log embedded in each task. Every write
// recomputes LoggedTime from the full list of entries.
type TimeLogService struct {
	tasks *TaskService
	log   *slog.Logger
	now   func() time.Time
}

func NewTimeLogService(tasks *TaskService, log *slog.Logger) *TimeLogService {
	return &TimeLogService{tasks: tasks, log: log, now: time.Now}
}

// LogTime appends an entry with the next sequential id.
func (s *TimeLogService) LogTime(ctx context.Context, ownerID, taskID uint, input TimeLogInput) (*model.Task, error) {
	if err := validateDuration(input.Duration); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	note := cleanText(input.Note)
	var entryID int
	task, err := s.tasks.mutate(ctx, ownerID, taskID, func(task *model.Task) error {
		entryID = appendEntry(task, input.Duration, now, note)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "time logged", "task_id", taskID, "user_id", ownerID, "entry_id", entryID, "duration", input.Duration)
	return task, nil
}

// UpdateTimeEntry replaces the duration (and the note, when given) of one
// entry.
func (s *TimeLogService) UpdateTimeEntry(ctx context.Context, ownerID, taskID uint, entryID int, input TimeLogInput) (*model.Task, error) {
	if err := validateDuration(input.Duration); err != nil {
		return nil, err
	}

	task, err := s.tasks.mutate(ctx, ownerID, taskID, func(task *model.Task) error {
		entry := task.Entry(entryID)
		if entry == nil {
			return ErrEntryNotFound
		}
		entry.Duration = input.Duration
		if input.Note != nil {
			entry.Note = cleanText(input.Note)
		}
		task.LoggedTime = task.SumLogged()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "time entry updated", "task_id", taskID, "user_id", ownerID, "entry_id", entryID, "duration", input.Duration)
	return task, nil
}

func (s *TimeLogService) TimeSummary(ctx context.Context, ownerID, taskID uint) (*TimeSummary, error) {
	task, err := s.tasks.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	history := task.TimeLog
	if history == nil {
		history = []model.TimeEntry{}
	}
	return &TimeSummary{
		TotalLoggedTime: task.LoggedTime,
		TimeLogHistory:  history,
	}, nil
}

// StartTimer records when work on the task began.
func (s *TimeLogService) StartTimer(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	now := s.now().UTC()
	task, err := s.tasks.mutate(ctx, ownerID, taskID, func(task *model.Task) error {
		if task.TimerStartedAt != nil {
			return invalid("timer", "Timer is already running.")
		}
		task.TimerStartedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "timer started", "task_id", taskID, "user_id", ownerID)
	return task, nil
}

// StopTimer logs the time elapsed since StartTimer as a new entry.
func (s *TimeLogService) StopTimer(ctx context.Context, ownerID, taskID uint, note *string) (*model.Task, error) {
	now := s.now().UTC()
	entryNote := cleanText(note)
	if entryNote == nil {
		n := timerNote
		entryNote = &n
	}

	var elapsed float64
	task, err := s.tasks.mutate(ctx, ownerID, taskID, func(task *model.Task) error {
		if task.TimerStartedAt == nil {
			return invalid("timer", "No timer is running.")
		}
		elapsed = now.Sub(*task.TimerStartedAt).Hours()
		task.TimerStartedAt = nil
		if elapsed > 0 {
			appendEntry(task, elapsed, now, entryNote)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "timer stopped", "task_id", taskID, "user_id", ownerID, "duration", elapsed)
	return task, nil
}

func appendEntry(task *model.Task, duration float64, at time.Time, note *string) int {
	entryID := task.NextEntryID()
	task.TimeLog = append(task.TimeLog, model.TimeEntry{
		TaskID:   task.ID,
		EntryID:  entryID,
		Duration: duration,
		LoggedAt: at,
		Note:     note,
	})
	task.LoggedTime = task.SumLogged()
	return entryID
}

func validateDuration(d float64) error {
	if !(d > 0) {
		return invalid("duration", "Duration must be greater than 0.")
	}
	return nil
}
