package service

import (
	"context"
	"errors"
	"testing"

	"tasklog/internal/model"
)

func TestSignupValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input SignupInput
		field string
	}{
		{"missing name", SignupInput{Email: "a@example.com", Password: "password123"}, ""},
		{"missing password", SignupInput{Name: "A", Email: "a@example.com"}, ""},
		{"bad email", SignupInput{Name: "A", Email: "not-an-email", Password: "password123"}, "email"},
		{"short password", SignupInput{Name: "A", Email: "a@example.com", Password: "abc123"}, "password"},
		{"no digits", SignupInput{Name: "A", Email: "a@example.com", Password: "passwordonly"}, "password"},
		{"symbols", SignupInput{Name: "A", Email: "a@example.com", Password: "pass word123"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Signup(context.Background(), tt.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, verr.Field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected errors.Is(err, ErrValidation)")
			}
		})
	}
}

func TestSignupNormalizesAndRejectsDuplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.users.Signup(ctx, SignupInput{Name: "  Ann ", Email: " Ann@Example.COM ", Password: "password123"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.Email != "ann@example.com" || user.Name != "Ann" {
		t.Errorf("Expected normalized user, got %q / %q", user.Name, user.Email)
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("Expected hashed password")
	}

	_, err = env.users.Signup(ctx, SignupInput{Name: "Other", Email: "ANN@example.com", Password: "password456"})
	if !errors.Is(err, ErrEmailTaken) || !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.signup(t, "login@example.com")

	session, err := env.users.Login(ctx, "LOGIN@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session.Token == "" || session.User.ID != user.ID {
		t.Fatalf("Unexpected session: %+v", session)
	}

	resolved, err := env.users.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, resolved.ID)
	}

	if _, err := env.users.Login(ctx, "login@example.com", "wrongpass1"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for bad password, got %v", err)
	}
	if _, err := env.users.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for unknown email, got %v", err)
	}
	if _, err := env.users.Login(ctx, "", "password123"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for missing email, got %v", err)
	}
	if _, err := env.users.Authenticate(ctx, "garbage"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for garbage token, got %v", err)
	}
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.signup(t, "gone@example.com")
	task := env.createTask(t, user.ID, "orphan")

	session, err := env.users.Login(ctx, "gone@example.com", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := env.users.DeleteAccount(ctx, user.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	if _, err := env.users.Authenticate(ctx, session.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
	if _, err := env.tasks.GetTask(ctx, user.ID, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected tasks removed with the account, got %v", err)
	}
	if err := env.users.DeleteAccount(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.signup(t, "first@example.com")
	env.signup(t, "taken@example.com")

	if _, err := env.users.UpdateProfile(ctx, user.ID, ProfileUpdate{}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for empty update, got %v", err)
	}
	if _, err := env.users.UpdateProfile(ctx, user.ID, ProfileUpdate{Email: "bad"}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for bad email, got %v", err)
	}
	if _, err := env.users.UpdateProfile(ctx, user.ID, ProfileUpdate{Email: "Taken@example.com"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}

	session, err := env.users.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: "Renamed", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if session.User.Name != "Renamed" || session.User.Email != "new@example.com" {
		t.Errorf("Unexpected user: %+v", session.User)
	}

	stored, err := env.users.Profile(ctx, user.ID)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if stored.Name != "Renamed" || stored.Email != "new@example.com" {
		t.Errorf("Expected persisted changes, got %+v", stored)
	}
	if _, err := env.users.Login(ctx, "new@example.com", "password123"); err != nil {
		t.Errorf("Expected login with new email, got %v", err)
	}

	// Keeping your own email is not a conflict.
	if _, err := env.users.UpdateProfile(ctx, user.ID, ProfileUpdate{Email: "new@example.com"}); err != nil {
		t.Errorf("Expected no conflict on unchanged email, got %v", err)
	}
	if _, err := env.users.UpdateProfile(ctx, 9999, ProfileUpdate{Name: "x"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestNotificationPreferences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.signup(t, "notify@example.com")

	prefs, err := env.users.NotificationPreferences(ctx, user.ID)
	if err != nil {
		t.Fatalf("NotificationPreferences failed: %v", err)
	}
	if prefs.RemindersEnabled || prefs.TelegramChatID != nil || prefs.ReminderHours != model.DefaultReminderHours {
		t.Errorf("Unexpected defaults: %+v", prefs)
	}

	_, err = env.users.UpdateNotificationPreferences(ctx, user.ID, NotificationUpdate{RemindersEnabled: model.Some(true)})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "telegram_chat_id" {
		t.Errorf("Expected telegram_chat_id validation error, got %v", err)
	}

	for _, hours := range []int{0, 337, -1} {
		_, err := env.users.UpdateNotificationPreferences(ctx, user.ID, NotificationUpdate{ReminderHours: model.Some(hours)})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Expected ErrValidation for %d hours, got %v", hours, err)
		}
	}

	updated, err := env.users.UpdateNotificationPreferences(ctx, user.ID, NotificationUpdate{
		TelegramChatID:   model.Some(int64(4242)),
		RemindersEnabled: model.Some(true),
		ReminderHours:    model.Some(6),
	})
	if err != nil {
		t.Fatalf("UpdateNotificationPreferences failed: %v", err)
	}
	if !updated.RemindersEnabled || updated.TelegramChatID == nil || *updated.TelegramChatID != 4242 || updated.ReminderHours != 6 {
		t.Errorf("Unexpected preferences: %+v", updated)
	}

	// Clearing the chat id while reminders stay on is rejected.
	_, err = env.users.UpdateNotificationPreferences(ctx, user.ID, NotificationUpdate{TelegramChatID: model.Null[int64]()})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}

	cleared, err := env.users.UpdateNotificationPreferences(ctx, user.ID, NotificationUpdate{
		TelegramChatID:   model.Null[int64](),
		RemindersEnabled: model.Some(false),
	})
	if err != nil {
		t.Fatalf("UpdateNotificationPreferences failed: %v", err)
	}
	if cleared.RemindersEnabled || cleared.TelegramChatID != nil || cleared.ReminderHours != 6 {
		t.Errorf("Unexpected preferences: %+v", cleared)
	}
}
