package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklog/internal/model"
	"tasklog/internal/service"
)

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func respond(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and hidden from the caller.
func (s *Server) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, service.ErrEntryNotFound):
		fail(c, http.StatusNotFound, "Time entry not found.")
	case errors.Is(err, service.ErrTaskNotFound):
		fail(c, http.StatusNotFound, "Task not found.")
	case errors.Is(err, service.ErrUserNotFound):
		fail(c, http.StatusNotFound, "User not found.")
	case errors.Is(err, service.ErrEmailTaken):
		fail(c, http.StatusConflict, "Email is already registered.")
	case errors.Is(err, service.ErrConflict):
		fail(c, http.StatusConflict, "Task was modified concurrently, please retry.")
	default:
		s.log.ErrorContext(c.Request.Context(), "request failed",
			"request_id", c.GetString(ctxRequestID),
			"user_id", currentUserID(c),
			"path", c.FullPath(),
			"error", err,
		)
		fail(c, http.StatusInternalServerError, "Server error.")
	}
}

// withLog makes sure an empty time log encodes as [] rather than null.
func withLog(task *model.Task) *model.Task {
	if task != nil && task.TimeLog == nil {
		task.TimeLog = []model.TimeEntry{}
	}
	return task
}
