package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tasklog/internal/model"
)

// NotificationRepository stores per-user reminder preferences.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Get returns the user's preferences, or defaults when none were saved.
func (r *NotificationRepository) Get(ctx context.Context, userID uint) (*model.NotificationPreferences, error) {
	var prefs model.NotificationPreferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	switch {
	case err == nil:
		return &prefs, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &model.NotificationPreferences{UserID: userID, ReminderHours: model.DefaultReminderHours}, nil
	default:
		return nil, fmt.Errorf("find notification preferences: %w", err)
	}
}

func (r *NotificationRepository) Save(ctx context.Context, prefs *model.NotificationPreferences) error {
	if err := r.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return fmt.Errorf("save notification preferences: %w", err)
	}
	return nil
}

// ListReminderTargets returns preferences with reminders switched on and a
// chat to deliver to.
func (r *NotificationRepository) ListReminderTargets(ctx context.Context) ([]model.NotificationPreferences, error) {
	var prefs []model.NotificationPreferences
	if err := r.db.WithContext(ctx).
		Where("reminders_enabled = ? AND telegram_chat_id IS NOT NULL", true).
		Find(&prefs).Error; err != nil {
		return nil, fmt.Errorf("list reminder targets: %w", err)
	}
	return prefs, nil
}
