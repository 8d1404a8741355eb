package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tasklog/internal/auth"
	"tasklog/internal/model"
	"tasklog/internal/repository"
)

type testEnv struct {
	tasks     *TaskService
	timeLog   *TimeLogService
	analytics *AnalyticsService
	users     *UserService
	reminders *ReminderService
	notifier  *fakeNotifier
	taskRepo  *repository.TaskRepository
	prefsRepo *repository.NotificationRepository
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := discardLogger()
	taskRepo := repository.NewTaskRepository(db)
	prefsRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	tasks := NewTaskService(taskRepo, log)
	notifier := &fakeNotifier{}

	return &testEnv{
		tasks:     tasks,
		timeLog:   NewTimeLogService(tasks, log),
		analytics: NewAnalyticsService(tasks),
		users:     NewUserService(userRepo, prefsRepo, auth.NewTokenManager("test-secret", time.Hour), log),
		reminders: NewReminderService(taskRepo, prefsRepo, notifier, log),
		notifier:  notifier,
		taskRepo:  taskRepo,
		prefsRepo: prefsRepo,
	}
}

func (e *testEnv) signup(t *testing.T, email string) *model.User {
	t.Helper()

	user, err := e.users.Signup(context.Background(), SignupInput{Name: "Tester", Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("Signup(%s) failed: %v", email, err)
	}
	return user
}

func (e *testEnv) createTask(t *testing.T, ownerID uint, title string) *model.Task {
	t.Helper()

	task, err := e.tasks.CreateTask(context.Background(), ownerID, TaskInput{Title: title})
	if err != nil {
		t.Fatalf("CreateTask(%s) failed: %v", title, err)
	}
	return task
}

func ptr[T any](v T) *T {
	return &v
}

func sumEntries(task *model.Task) float64 {
	var total float64
	for _, e := range task.TimeLog {
		total += e.Duration
	}
	return total
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}
