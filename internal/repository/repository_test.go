package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"tasklog/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{Name: "Test", Email: email, PasswordHash: "x"}
	if err := NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestWithSQLiteParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"tasks.db", "tasks.db?_busy_timeout=5000"},
		{"file:tasks.db?cache=shared", "file:tasks.db?cache=shared&_busy_timeout=5000"},
		{"tasks.db?_busy_timeout=100", "tasks.db?_busy_timeout=100"},
	}

	for _, tt := range tests {
		if got := withSQLiteParams(tt.in); got != tt.want {
			t.Errorf("withSQLiteParams(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsPostgres(t *testing.T) {
	t.Parallel()

	if !isPostgres("postgres://u:p@localhost/db") || !isPostgres("postgresql://localhost/db") {
		t.Error("expected postgres URLs to be detected")
	}
	if isPostgres("tasklog.db") {
		t.Error("sqlite path detected as postgres")
	}
}

func TestTaskRepositoryOwnerScoping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)

	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")

	task := &model.Task{UserID: alice.ID, Title: "Mine", Status: model.StatusTodo, Priority: model.PriorityMedium}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if task.Version != 1 {
		t.Errorf("expected version 1, got %d", task.Version)
	}

	if _, err := repo.FindByID(ctx, bob.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other owner, got %v", err)
	}
	if err := repo.Delete(ctx, bob.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting other owner's task, got %v", err)
	}

	tasks, err := repo.ListByUser(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks for bob, got %d", len(tasks))
	}
}

func TestTaskRepositoryUpdatePersistsLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := createUser(t, db, "u@example.com")

	task := &model.Task{UserID: user.ID, Title: "Log me", Status: model.StatusTodo, Priority: model.PriorityLow}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := repo.Update(ctx, user.ID, task.ID, func(task *model.Task) error {
		task.TimeLog = append(task.TimeLog, model.TimeEntry{EntryID: 1, Duration: 1.25, LoggedAt: time.Now()})
		task.LoggedTime = task.SumLogged()
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("expected version 2, got %d", updated.Version)
	}

	updated, err = repo.Update(ctx, user.ID, task.ID, func(task *model.Task) error {
		task.Entry(1).Duration = 2
		task.LoggedTime = task.SumLogged()
		return nil
	})
	if err != nil {
		t.Fatalf("second Update failed: %v", err)
	}

	got, err := repo.FindByID(ctx, user.ID, task.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(got.TimeLog) != 1 || got.TimeLog[0].Duration != 2 {
		t.Fatalf("unexpected time log: %+v", got.TimeLog)
	}
	if got.LoggedTime != 2 || got.Version != updated.Version {
		t.Errorf("unexpected task state: logged=%v version=%d", got.LoggedTime, got.Version)
	}
}

func TestTaskRepositoryUpdateRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := createUser(t, db, "u@example.com")

	task := &model.Task{UserID: user.ID, Title: "Keep", Status: model.StatusTodo, Priority: model.PriorityLow}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	boom := errors.New("boom")
	_, err := repo.Update(ctx, user.ID, task.ID, func(task *model.Task) error {
		task.Title = "Changed"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := repo.FindByID(ctx, user.ID, task.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Title != "Keep" || got.Version != 1 {
		t.Errorf("expected untouched task, got title=%q version=%d", got.Title, got.Version)
	}
}

func TestUserDeleteCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	tasks := NewTaskRepository(db)
	prefs := NewNotificationRepository(db)

	user := createUser(t, db, "gone@example.com")
	keeper := createUser(t, db, "keeper@example.com")

	for _, owner := range []uint{user.ID, keeper.ID} {
		task := &model.Task{
			UserID: owner, Title: "t", Status: model.StatusTodo, Priority: model.PriorityLow,
			LoggedTime: 1,
			TimeLog:    []model.TimeEntry{{EntryID: 1, Duration: 1, LoggedAt: time.Now()}},
		}
		if err := tasks.Create(ctx, task); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	chat := int64(42)
	if err := prefs.Save(ctx, &model.NotificationPreferences{UserID: user.ID, TelegramChatID: &chat, RemindersEnabled: true, ReminderHours: 24}); err != nil {
		t.Fatalf("save prefs: %v", err)
	}

	if err := users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := users.Delete(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	var entries int64
	db.Model(&model.TimeEntry{}).Count(&entries)
	if entries != 1 {
		t.Errorf("expected only keeper's entry to remain, got %d", entries)
	}
	remaining, err := tasks.ListByUser(ctx, keeper.ID)
	if err != nil || len(remaining) != 1 {
		t.Errorf("keeper's tasks affected: %v, %d", err, len(remaining))
	}
	targets, err := prefs.ListReminderTargets(ctx)
	if err != nil {
		t.Fatalf("ListReminderTargets failed: %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("expected preferences removed, got %d", len(targets))
	}
}

func TestNotificationDefaults(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	user := createUser(t, db, "n@example.com")

	prefs, err := NewNotificationRepository(db).Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if prefs.RemindersEnabled || prefs.ReminderHours != model.DefaultReminderHours || prefs.TelegramChatID != nil {
		t.Errorf("unexpected defaults: %+v", prefs)
	}
}

func TestListDueForReminder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := createUser(t, db, "due@example.com")

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	at := func(h int) *time.Time { d := now.Add(time.Duration(h) * time.Hour); return &d }

	fixtures := []model.Task{
		{Title: "soon", Status: model.StatusTodo, DueDate: at(5)},
		{Title: "done", Status: model.StatusDone, DueDate: at(5)},
		{Title: "late", Status: model.StatusTodo, DueDate: at(48)},
		{Title: "past", Status: model.StatusInProgress, DueDate: at(-1)},
		{Title: "reminded", Status: model.StatusTodo, DueDate: at(3), RemindedAt: &now},
		{Title: "no date", Status: model.StatusTodo},
	}
	for i := range fixtures {
		fixtures[i].UserID = user.ID
		fixtures[i].Priority = model.PriorityMedium
		if err := repo.Create(ctx, &fixtures[i]); err != nil {
			t.Fatalf("create %s: %v", fixtures[i].Title, err)
		}
	}

	due, err := repo.ListDueForReminder(ctx, user.ID, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListDueForReminder failed: %v", err)
	}
	if len(due) != 1 || due[0].Title != "soon" {
		t.Fatalf("expected only 'soon', got %+v", due)
	}

	if err := repo.MarkReminded(ctx, user.ID, []uint{due[0].ID}, now); err != nil {
		t.Fatalf("MarkReminded failed: %v", err)
	}
	due, err = repo.ListDueForReminder(ctx, user.ID, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListDueForReminder failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected no tasks after marking, got %d", len(due))
	}
}
