package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklog/internal/service"
)

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := s.users.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, "User created successfully.", gin.H{"user": user})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful.", gin.H{"token": session.Token, "user": session.User})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	user, err := s.users.Profile(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"user": user})
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := s.users.UpdateProfile(c.Request.Context(), currentUserID(c), service.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, "Profile updated successfully.", gin.H{"user": session.User, "token": session.Token})
}

func (s *Server) handleDeleteProfile(c *gin.Context) {
	if err := s.users.DeleteAccount(c.Request.Context(), currentUserID(c)); err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Account deleted successfully.", nil)
}

func (s *Server) handleGetNotifications(c *gin.Context) {
	prefs, err := s.users.NotificationPreferences(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"notifications": prefs})
}

func (s *Server) handleUpdateNotifications(c *gin.Context) {
	var req notificationRequest
	if !bindJSON(c, &req) {
		return
	}

	prefs, err := s.users.UpdateNotificationPreferences(c.Request.Context(), currentUserID(c), req.update())
	if err != nil {
		s.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Notification preferences updated.", gin.H{"notifications": prefs})
}
