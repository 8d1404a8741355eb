package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tasklog/internal/model"
	"tasklog/internal/service"
)

const dateOnly = "2006-01-02"

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type notificationRequest struct {
	TelegramChatID   model.Optional[int64] `json:"telegram_chat_id"`
	RemindersEnabled model.Optional[bool]  `json:"reminders_enabled"`
	ReminderHours    model.Optional[int]   `json:"reminder_hours"`
}

type createTaskRequest struct {
	Title        string         `json:"title"`
	Description  *string        `json:"description"`
	Status       model.Status   `json:"status"`
	Priority     model.Priority `json:"priority"`
	EstimateTime *float64       `json:"estimate_time"`
	LoggedTime   *float64       `json:"logged_time"`
	DueDate      *string        `json:"due_date"`
}

type updateTaskRequest struct {
	Title        model.Optional[string]         `json:"title"`
	Description  model.Optional[string]         `json:"description"`
	Status       model.Optional[model.Status]   `json:"status"`
	Priority     model.Optional[model.Priority] `json:"priority"`
	EstimateTime model.Optional[float64]        `json:"estimate_time"`
	LoggedTime   model.Optional[float64]        `json:"logged_time"`
	DueDate      model.Optional[string]         `json:"due_date"`
}

type timeLogRequest struct {
	Duration float64 `json:"duration"`
	Note     *string `json:"note"`
}

type stopTimerRequest struct {
	Note *string `json:"note"`
}

func (r createTaskRequest) input() (service.TaskInput, error) {
	input := service.TaskInput{
		Title:        r.Title,
		Description:  r.Description,
		Status:       r.Status,
		Priority:     r.Priority,
		EstimateTime: r.EstimateTime,
		LoggedTime:   r.LoggedTime,
	}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		due, err := parseDueDate(*r.DueDate)
		if err != nil {
			return service.TaskInput{}, err
		}
		input.DueDate = &due
	}
	return input, nil
}

func (r updateTaskRequest) patch() (service.TaskPatch, error) {
	patch := service.TaskPatch{
		Title:        r.Title,
		Description:  r.Description,
		Status:       r.Status,
		Priority:     r.Priority,
		EstimateTime: r.EstimateTime,
		LoggedTime:   r.LoggedTime,
	}
	switch {
	case !r.DueDate.Set:
	case r.DueDate.Null || strings.TrimSpace(r.DueDate.Value) == "":
		patch.DueDate = model.Null[time.Time]()
	default:
		due, err := parseDueDate(r.DueDate.Value)
		if err != nil {
			return service.TaskPatch{}, err
		}
		patch.DueDate = model.Some(due)
	}
	return patch, nil
}

func (r notificationRequest) update() service.NotificationUpdate {
	return service.NotificationUpdate{
		TelegramChatID:   r.TelegramChatID,
		RemindersEnabled: r.RemindersEnabled,
		ReminderHours:    r.ReminderHours,
	}
}

// parseDueDate accepts a calendar date (midnight UTC) or an RFC 3339
// timestamp.
func parseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &service.ValidationError{
			Field:   "due_date",
			Message: fmt.Sprintf("Invalid due_date %q. Use YYYY-MM-DD or RFC 3339.", value),
		}
	}
	return t.UTC(), nil
}

// bindJSON decodes the body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "Request body too large.")
			return false
		}
		fail(c, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}

func taskIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "Invalid task id.")
		return 0, false
	}
	return uint(id), true
}

func entryIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("entryId"))
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "Invalid entry id.")
		return 0, false
	}
	return id, true
}
