package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"tasklog/internal/model"
	"tasklog/internal/repository"
)

// Notifier delivers a formatted message to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// ReminderService tells users about tasks whose due date is coming up.
type ReminderService struct {
	taskRepo  *repository.TaskRepository
	prefsRepo *repository.NotificationRepository
	notifier  Notifier
	log       *slog.Logger
}

func NewReminderService(taskRepo *repository.TaskRepository, prefsRepo *repository.NotificationRepository, notifier Notifier, log *slog.Logger) *ReminderService {
	return &ReminderService{taskRepo: taskRepo, prefsRepo: prefsRepo, notifier: notifier, log: log}
}

// SendDueReminders sends one message per user listing open tasks due within
// their reminder window, then marks those tasks so they are not repeated.
// It returns the number of messages sent.
func (s *ReminderService) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	targets, err := s.prefsRepo.ListReminderTargets(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, prefs := range targets {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		hours := prefs.ReminderHours
		if hours <= 0 {
			hours = model.DefaultReminderHours
		}
		due, err := s.taskRepo.ListDueForReminder(ctx, prefs.UserID, now, now.Add(time.Duration(hours)*time.Hour))
		if err != nil {
			s.log.ErrorContext(ctx, "list due tasks", "user_id", prefs.UserID, "error", err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		if err := s.notifier.Notify(ctx, *prefs.TelegramChatID, FormatReminder(due, now)); err != nil {
			s.log.ErrorContext(ctx, "send reminder", "user_id", prefs.UserID, "error", err)
			continue
		}

		ids := make([]uint, 0, len(due))
		for _, task := range due {
			ids = append(ids, task.ID)
		}
		if err := s.taskRepo.MarkReminded(ctx, prefs.UserID, ids, now); err != nil {
			s.log.ErrorContext(ctx, "mark reminded", "user_id", prefs.UserID, "error", err)
			continue
		}
		s.log.InfoContext(ctx, "reminder sent", "user_id", prefs.UserID, "tasks", len(ids))
		sent++
	}
	return sent, nil
}

// FormatReminder renders due tasks as Telegram HTML.
func FormatReminder(tasks []model.Task, now time.Time) string {
	var builder strings.Builder
	builder.WriteString("⏰ <b>Upcoming deadlines</b>\n\n")
	for _, task := range tasks {
		builder.WriteString(formatDueTask(task, now))
	}
	return strings.TrimSpace(builder.String())
}

func formatDueTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch task.Priority {
	case model.PriorityHigh:
		icon = "🔥"
	case model.PriorityMedium:
		icon = "⏳"
	}

	title := html.EscapeString(strings.TrimSpace(task.Title))
	sb.WriteString(fmt.Sprintf("%s %s <i>(%s)</i>", icon, title, html.EscapeString(string(task.Status))))

	if task.DueDate != nil {
		left := task.DueDate.Sub(now)
		sb.WriteString(fmt.Sprintf("\n   📅 due %s · in %s", task.DueDate.UTC().Format("2006-01-02 15:04 MST"), humanizeHours(left)))
	}

	if task.EstimateTime != nil && *task.EstimateTime > 0 {
		sb.WriteString(fmt.Sprintf("\n   ⏱ %.1fh of %.1fh logged", task.LoggedTime, *task.EstimateTime))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func humanizeHours(d time.Duration) string {
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
