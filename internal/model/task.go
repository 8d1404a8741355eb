package model

import "time"

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "To-do"
	StatusInProgress Status = "In progress"
	StatusDone       Status = "Done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work owned by a single user. LoggedTime always equals the
// sum of the durations in TimeLog.
type Task struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	UserID         uint        `gorm:"index;not null" json:"user_id"`
	Title          string      `gorm:"not null" json:"title"`
	Description    *string     `gorm:"type:text" json:"description"`
	Status         Status      `gorm:"type:varchar(16);not null" json:"status"`
	Priority       Priority    `gorm:"type:varchar(8);not null" json:"priority"`
	EstimateTime   *float64    `json:"estimate_time"`
	LoggedTime     float64     `gorm:"not null" json:"logged_time"`
	DueDate        *time.Time  `gorm:"index" json:"due_date"`
	TimerStartedAt *time.Time  `json:"timer_started_at,omitempty"`
	RemindedAt     *time.Time  `json:"-"`
	Version        int         `gorm:"not null" json:"-"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	TimeLog        []TimeEntry `gorm:"foreignKey:TaskID" json:"time_log"`
}

// TimeEntry is one logged interval of work. EntryID is 1-based and unique
// within the owning task.
type TimeEntry struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	TaskID   uint      `gorm:"uniqueIndex:idx_task_entry;not null" json:"-"`
	EntryID  int       `gorm:"uniqueIndex:idx_task_entry;not null" json:"entry_id"`
	Duration float64   `gorm:"not null" json:"duration"`
	LoggedAt time.Time `gorm:"not null" json:"logged_at"`
	Note     *string   `json:"note,omitempty"`
}

// SumLogged re-sums the durations of every entry in the log.
func (t *Task) SumLogged() float64 {
	var total float64
	for _, e := range t.TimeLog {
		total += e.Duration
	}
	return total
}

// NextEntryID returns the id for the next appended entry.
func (t *Task) NextEntryID() int {
	next := 1
	for _, e := range t.TimeLog {
		if e.EntryID >= next {
			next = e.EntryID + 1
		}
	}
	return next
}

// Entry returns the entry with the given id, or nil.
func (t *Task) Entry(entryID int) *TimeEntry {
	for i := range t.TimeLog {
		if t.TimeLog[i].EntryID == entryID {
			return &t.TimeLog[i]
		}
	}
	return nil
}
