package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tasklog/internal/model"
)

// TaskRepository handles CRUD for tasks and their time logs. Every query is
// scoped to the owning user.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func preloadLog(db *gorm.DB) *gorm.DB {
	return db.Preload("TimeLog", func(db *gorm.DB) *gorm.DB {
		return db.Order("entry_id ASC")
	})
}

// Create inserts the task together with any seeded time entries.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.Version == 0 {
		task.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByUser returns the user's tasks, newest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := preloadLog(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	return findTask(preloadLog(r.db.WithContext(ctx)), userID, taskID)
}

func findTask(db *gorm.DB, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := db.Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// Update loads the task inside a transaction, lets mutate change it, and
// writes it back guarded by the version it was read at. Entries with a zero
// primary key are inserted, the rest are saved in place. ErrConflict is
// returned when another writer got there first.
func (r *TaskRepository) Update(ctx context.Context, userID, taskID uint, mutate func(task *model.Task) error) (*model.Task, error) {
	var result *model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(preloadLog(tx), userID, taskID)
		if err != nil {
			return err
		}
		version := task.Version

		if err := mutate(task); err != nil {
			return err
		}

		task.Version = version + 1
		task.UpdatedAt = time.Now().UTC()
		res := tx.Model(&model.Task{}).
			Where("id = ? AND user_id = ? AND version = ?", task.ID, userID, version).
			Updates(map[string]any{
				"title":            task.Title,
				"description":      task.Description,
				"status":           task.Status,
				"priority":         task.Priority,
				"estimate_time":    task.EstimateTime,
				"logged_time":      task.LoggedTime,
				"due_date":         task.DueDate,
				"timer_started_at": task.TimerStartedAt,
				"reminded_at":      task.RemindedAt,
				"version":          task.Version,
				"updated_at":       task.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("update task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		for i := range task.TimeLog {
			entry := &task.TimeLog[i]
			entry.TaskID = task.ID
			if entry.ID == 0 {
				if err := tx.Create(entry).Error; err != nil {
					return fmt.Errorf("create time entry: %w", err)
				}
				continue
			}
			if err := tx.Save(entry).Error; err != nil {
				return fmt.Errorf("save time entry: %w", err)
			}
		}

		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a task and its time log.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, userID, taskID)
		if err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&model.TimeEntry{}).Error; err != nil {
			return fmt.Errorf("delete time log: %w", err)
		}
		if err := tx.Delete(task).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

// ListDueForReminder returns open tasks of the user due in (from, to] that
// have not been reminded yet.
func (r *TaskRepository) ListDueForReminder(ctx context.Context, userID uint, from, to time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ? AND reminded_at IS NULL", userID, model.StatusDone).
		Where("due_date > ? AND due_date <= ?", from, to).
		Order("due_date ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	return tasks, nil
}

// MarkReminded stamps reminded_at on the given tasks without touching their
// version, so it never conflicts with user edits.
func (r *TaskRepository) MarkReminded(ctx context.Context, userID uint, taskIDs []uint, at time.Time) error {
	if len(taskIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id IN ?", userID, taskIDs).
		Update("reminded_at", at).Error; err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}
