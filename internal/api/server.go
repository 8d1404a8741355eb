// Package api exposes the task tracker over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklog/internal/service"
)

const maxBodySize = 1 << 20 // 1MB

// Services bundles what the handlers call into.
type Services struct {
	Users     *service.UserService
	Tasks     *service.TaskService
	TimeLog   *service.TimeLogService
	Analytics *service.AnalyticsService
}

// Server routes HTTP requests to the services.
type Server struct {
	router    *gin.Engine
	users     *service.UserService
	tasks     *service.TaskService
	timeLog   *service.TimeLogService
	analytics *service.AnalyticsService
	log       *slog.Logger
}

func NewServer(svc Services, log *slog.Logger) *Server {
	router := gin.New()

	s := &Server{
		router:    router,
		users:     svc.Users,
		tasks:     svc.Tasks,
		timeLog:   svc.TimeLog,
		analytics: svc.Analytics,
		log:       log,
	}

	router.Use(s.requestLogger(), s.recovery(), limitBody(maxBodySize))
	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Route not found.")
	})

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/signup", s.handleSignup)
		api.POST("/login", s.handleLogin)
	}

	authed := api.Group("", s.requireAuth(svc.Users))
	{
		authed.GET("/user/profile", s.handleGetProfile)
		authed.PUT("/user/profile", s.handleUpdateProfile)
		authed.DELETE("/user/profile", s.handleDeleteProfile)
		authed.GET("/user/notifications", s.handleGetNotifications)
		authed.PUT("/user/notifications", s.handleUpdateNotifications)

		authed.POST("/tasks", s.handleCreateTask)
		authed.GET("/tasks", s.handleListTasks)
		authed.GET("/tasks/:id", s.handleGetTask)
		authed.PUT("/tasks/:id", s.handleUpdateTask)
		authed.DELETE("/tasks/:id", s.handleDeleteTask)

		authed.POST("/tasks/:id/time-log", s.handleLogTime)
		authed.PUT("/tasks/:id/time-log/:entryId", s.handleUpdateTimeEntry)
		authed.GET("/tasks/:id/time-summary", s.handleTimeSummary)
		authed.POST("/tasks/:id/timer/start", s.handleStartTimer)
		authed.POST("/tasks/:id/timer/stop", s.handleStopTimer)

		authed.GET("/analytics/time", s.handleAnalytics)
	}

	return s
}

// Handler returns the router for use in an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}
