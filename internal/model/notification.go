package model

// DefaultReminderHours is how far ahead of a due date reminders fire when
// the user has not chosen a window.
const DefaultReminderHours = 24

// NotificationPreferences controls due-date reminders for a user.
type NotificationPreferences struct {
	ID               uint   `gorm:"primaryKey" json:"-"`
	UserID           uint   `gorm:"uniqueIndex;not null" json:"-"`
	TelegramChatID   *int64 `json:"telegram_chat_id"`
	RemindersEnabled bool   `gorm:"not null" json:"reminders_enabled"`
	ReminderHours    int    `gorm:"not null" json:"reminder_hours"`
}
