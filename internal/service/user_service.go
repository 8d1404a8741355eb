package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"tasklog/internal/auth"
	"tasklog/internal/model"
	"tasklog/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// ProfileUpdate changes the non-empty fields only.
type ProfileUpdate struct {
	Name  string
	Email string
}

type NotificationUpdate struct {
	TelegramChatID   model.Optional[int64]
	RemindersEnabled model.Optional[bool]
	ReminderHours    model.Optional[int]
}

// Session is a signed token together with the user it was issued for.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// UserService handles accounts and resolves bearer tokens to users.
type UserService struct {
	users  *repository.UserRepository
	prefs  *repository.NotificationRepository
	tokens *auth.TokenManager
	log    *slog.Logger
}

func NewUserService(users *repository.UserRepository, prefs *repository.NotificationRepository, tokens *auth.TokenManager, log *slog.Logger) *UserService {
	return &UserService{users: users, prefs: prefs, tokens: tokens, log: log}
}

func (s *UserService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, invalid("", "Missing required fields: email, password, name.")
	}
	if !emailPattern.MatchString(email) {
		return nil, invalid("email", "Invalid email format.")
	}
	if !strongPassword(input.Password) {
		return nil, invalid("password", "Password must be at least 8 characters long and contain both letters and numbers.")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("", "Missing email or password.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown email", ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: password mismatch", ErrUnauthenticated)
	}

	return s.session(user)
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d no longer exists", ErrUnauthenticated, claims.UserID)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// UpdateProfile changes name and/or email and returns a fresh session, since
// the token embeds the email.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*Session, error) {
	name := strings.TrimSpace(update.Name)
	email := normalizeEmail(update.Email)
	if name == "" && email == "" {
		return nil, invalid("", "At least one field (name or email) is required for update.")
	}
	if email != "" && !emailPattern.MatchString(email) {
		return nil, invalid("email", "Invalid email format.")
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if name != "" {
		updates["name"] = name
	}
	if email != "" && email != user.Email {
		existing, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, ErrEmailTaken
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		updates["email"] = email
	}

	if err := s.users.UpdateProfile(ctx, user, updates); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if name != "" {
		user.Name = name
	}
	if v, ok := updates["email"]; ok {
		user.Email = v.(string)
	}

	s.log.InfoContext(ctx, "profile updated", "user_id", user.ID)
	return s.session(user)
}

// DeleteAccount removes the user and everything they own.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.log.InfoContext(ctx, "account deleted", "user_id", userID)
	return nil
}

func (s *UserService) NotificationPreferences(ctx context.Context, userID uint) (*model.NotificationPreferences, error) {
	return s.prefs.Get(ctx, userID)
}

func (s *UserService) UpdateNotificationPreferences(ctx context.Context, userID uint, update NotificationUpdate) (*model.NotificationPreferences, error) {
	if update.RemindersEnabled.Set && update.RemindersEnabled.Null {
		return nil, invalid("reminders_enabled", "reminders_enabled cannot be null.")
	}
	if update.ReminderHours.Set && (update.ReminderHours.Null || update.ReminderHours.Value < 1 || update.ReminderHours.Value > 24*14) {
		return nil, invalid("reminder_hours", "reminder_hours must be between 1 and 336.")
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.TelegramChatID.Set {
		prefs.TelegramChatID = update.TelegramChatID.Ptr()
	}
	if update.RemindersEnabled.Set {
		prefs.RemindersEnabled = update.RemindersEnabled.Value
	}
	if update.ReminderHours.Set {
		prefs.ReminderHours = update.ReminderHours.Value
	}
	if prefs.RemindersEnabled && prefs.TelegramChatID == nil {
		return nil, invalid("telegram_chat_id", "A Telegram chat id is required to enable reminders.")
	}

	if err := s.prefs.Save(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *UserService) session(user *model.User) (*Session, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// strongPassword requires 8+ ASCII letters and digits with at least one of
// each.
func strongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			return false
		}
	}
	return letter && digit
}
