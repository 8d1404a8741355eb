package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tasklog/internal/model"
	"tasklog/internal/repository"
)

const (
	maxWriteAttempts = 3
	lockStripes      = 64
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title        string
	Description  *string
	Status       model.Status
	Priority     model.Priority
	EstimateTime *float64
	LoggedTime   *float64
	DueDate      *time.Time
}

// TaskPatch is a partial update. Fields that are not Set are left alone; an
// explicit null clears nullable fields.
type TaskPatch struct {
	Title        model.Optional[string]
	Description  model.Optional[string]
	Status       model.Optional[model.Status]
	Priority     model.Optional[model.Priority]
	EstimateTime model.Optional[float64]
	LoggedTime   model.Optional[float64]
	DueDate      model.Optional[time.Time]
}

// taskLocks serialises writers of the same task within the process.
type taskLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *taskLocks) lock(taskID uint) func() {
	m := &l.stripes[taskID%lockStripes]
	m.Lock()
	return m.Unlock
}

// TaskService wraps owner-scoped task business logic.
type TaskService struct {
	taskRepo *repository.TaskRepository
	locks    *taskLocks
	log      *slog.Logger
	now      func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository, log *slog.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		locks:    &taskLocks{},
		log:      log,
		now:      time.Now,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID uint, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title", "Title is required.")
	}

	status := input.Status
	if status == "" {
		status = model.StatusTodo
	}
	if !status.Valid() {
		return nil, invalidStatus(status)
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, invalidPriority(priority)
	}

	if input.EstimateTime != nil && *input.EstimateTime < 0 {
		return nil, invalid("estimate_time", "Estimate must not be negative.")
	}
	if input.LoggedTime != nil && *input.LoggedTime < 0 {
		return nil, invalid("logged_time", "Logged time must not be negative.")
	}

	task := model.Task{
		UserID:       ownerID,
		Title:        title,
		Description:  cleanText(input.Description),
		Status:       status,
		Priority:     priority,
		EstimateTime: input.EstimateTime,
		DueDate:      utcPtr(input.DueDate),
	}

	if input.LoggedTime != nil && *input.LoggedTime > 0 {
		note := "Initial log"
		task.TimeLog = []model.TimeEntry{{
			EntryID:  1,
			Duration: *input.LoggedTime,
			LoggedAt: s.now().UTC(),
			Note:     &note,
		}}
	}
	task.LoggedTime = task.SumLogged()

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "task created", "task_id", task.ID, "user_id", ownerID)
	return &task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID uint) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, ownerID)
}

// GetTask returns ErrTaskNotFound both for missing tasks and for tasks owned
// by someone else.
func (s *TaskService) GetTask(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, ownerID, taskID)
	if err != nil {
		return nil, taskErr(err)
	}
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID uint, patch TaskPatch) (*model.Task, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	task, err := s.mutate(ctx, ownerID, taskID, func(task *model.Task) error {
		applyPatch(task, patch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "task updated", "task_id", task.ID, "user_id", ownerID)
	return task, nil
}

// DeleteTask removes a task and its time log.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID uint) error {
	unlock := s.locks.lock(taskID)
	defer unlock()

	if err := s.taskRepo.Delete(ctx, ownerID, taskID); err != nil {
		return taskErr(err)
	}

	s.log.InfoContext(ctx, "task deleted", "task_id", taskID, "user_id", ownerID)
	return nil
}

// mutate runs a read-modify-write of one task. Writers in this process are
// serialised per task; writers elsewhere are caught by the version check and
// the whole cycle is retried.
func (s *TaskService) mutate(ctx context.Context, ownerID, taskID uint, fn func(task *model.Task) error) (*model.Task, error) {
	unlock := s.locks.lock(taskID)
	defer unlock()

	var (
		task *model.Task
		err  error
	)
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		task, err = s.taskRepo.Update(ctx, ownerID, taskID, fn)
		if !errors.Is(err, repository.ErrConflict) {
			break
		}
		s.log.WarnContext(ctx, "task write conflict", "task_id", taskID, "attempt", attempt)
	}
	if err != nil {
		return nil, taskErr(err)
	}
	return task, nil
}

func validatePatch(patch TaskPatch) error {
	if patch.Title.Set && (patch.Title.Null || strings.TrimSpace(patch.Title.Value) == "") {
		return invalid("title", "Title is required.")
	}
	if patch.Status.Set && (patch.Status.Null || !patch.Status.Value.Valid()) {
		return invalidStatus(patch.Status.Value)
	}
	if patch.Priority.Set && (patch.Priority.Null || !patch.Priority.Value.Valid()) {
		return invalidPriority(patch.Priority.Value)
	}
	if patch.EstimateTime.Set && !patch.EstimateTime.Null && patch.EstimateTime.Value < 0 {
		return invalid("estimate_time", "Estimate must not be negative.")
	}
	if patch.LoggedTime.Set {
		return invalid("logged_time", "Logged time is derived from the time log; use the time-log endpoints.")
	}
	return nil
}

func applyPatch(task *model.Task, patch TaskPatch) {
	if patch.Title.Set {
		task.Title = strings.TrimSpace(patch.Title.Value)
	}
	if patch.Description.Set {
		task.Description = cleanText(patch.Description.Ptr())
	}
	if patch.Status.Set {
		task.Status = patch.Status.Value
	}
	if patch.Priority.Set {
		task.Priority = patch.Priority.Value
	}
	if patch.EstimateTime.Set {
		task.EstimateTime = patch.EstimateTime.Ptr()
	}
	if patch.DueDate.Set {
		task.DueDate = utcPtr(patch.DueDate.Ptr())
		// A moved due date deserves a fresh reminder.
		task.RemindedAt = nil
	}
}

func invalidStatus(status model.Status) error {
	return invalid("status", "Invalid status %q. Allowed: %s, %s, %s.", status, model.StatusTodo, model.StatusInProgress, model.StatusDone)
}

func invalidPriority(priority model.Priority) error {
	return invalid("priority", "Invalid priority %q. Allowed: %s, %s, %s.", priority, model.PriorityLow, model.PriorityMedium, model.PriorityHigh)
}

// cleanText trims s and maps blank strings to nil.
func cleanText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
