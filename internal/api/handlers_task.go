package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklog/internal/model"
	"tasklog/internal/service"
)

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	input, err := req.input()
	if err != nil {
		s.writeError(c, err)
		return
	}

	task, err := s.tasks.CreateTask(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Task created successfully.", gin.H{"task": withLog(task)})
}

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.tasks.ListTasks(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	for i := range tasks {
		withLog(&tasks[i])
	}
	respond(c, http.StatusOK, "", gin.H{"tasks": tasks})
}

func (s *Server) handleGetTask(c *gin.Context) {
	taskID, valid := taskIDParam(c)
	if !valid {
		return
	}

	task, err := s.tasks.GetTask(c.Request.Context(), currentUserID(c), taskID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"task": withLog(task)})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	taskID, valid := taskIDParam(c)
	if !valid {
		return
	}
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	patch, err := req.patch()
	if err != nil {
		s.writeError(c, err)
		return
	}

	task, err := s.tasks.UpdateTask(c.Request.Context(), currentUserID(c), taskID, patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Task updated successfully.", gin.H{"task": withLog(task)})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	taskID, valid := taskIDParam(c)
	if !valid {
		return
	}

	if err := s.tasks.DeleteTask(c.Request.Context(), currentUserID(c), taskID); err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Task deleted successfully.", nil)
}

func (s *Server) handleLogTime(c *gin.Context) {
	taskID, valid := taskIDParam(c)
	if !valid {
		return
	}
	var req timeLogRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := s.timeLog.LogTime(c.Request.Context(), currentUserID(c), taskID, service.TimeLogInput{
		Duration: req.Duration,
		Note:     req.Note,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Time logged successfully.", gin.H{"task": withLog(task)})
}

func (s *Server) handleUpdateTimeEntry(c *gin.Context) {
	taskID, valid := taskIDParam(c)
	if !valid {
		return
	}
	entryID, valid := entryIDParam(c)
	if !valid {
		return
	}
	var req timeLogRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := s.timeLog.UpdateTimeEntry(c.Request.Context(), currentUserID(c), taskID, entryID, service.TimeLogInput{
		Duration: req.Duration,
		Note:     req.Note,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Time entry updated successfully.", gin.H{"task": withLog(task)})
}

func (s *Server) handleTimeSummary(c *gin.Context) {
	taskID, valid := taskIDParam(c)
	if !valid {
		return
	}

	summary, err := s.timeLog.TimeSummary(c.Request.Context(), currentUserID(c), taskID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"timeSummary": summary})
}

func (s *Server) handleStartTimer(c *gin.Context) {
	taskID, valid := taskIDParam(c)
	if !valid {
		return
	}

	task, err := s.timeLog.StartTimer(c.Request.Context(), currentUserID(c), taskID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Timer started.", gin.H{"task": withLog(task)})
}

func (s *Server) handleStopTimer(c *gin.Context) {
	taskID, valid := taskIDParam(c)
	if !valid {
		return
	}
	var req stopTimerRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	task, err := s.timeLog.StopTimer(c.Request.Context(), currentUserID(c), taskID, req.Note)
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Timer stopped.", gin.H{"task": withLog(task)})
}

func (s *Server) handleAnalytics(c *gin.Context) {
	report, err := s.analytics.ComputeAnalytics(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"analytics": report})
}
