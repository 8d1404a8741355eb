package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tasklog/internal/model"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxUserID       = "user_id"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(ctxRequestID, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if userID, ok := c.Get(ctxUserID); ok {
			attrs = append(attrs, "user_id", userID)
		}
		s.log.InfoContext(c.Request.Context(), "http request", attrs...)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		s.log.ErrorContext(c.Request.Context(), "panic in handler",
			"request_id", c.GetString(ctxRequestID),
			"panic", recovered,
		)
		fail(c, http.StatusInternalServerError, "Server error.")
	})
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's id for the handlers.
func (s *Server) requireAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			fail(c, http.StatusUnauthorized, "No token provided.")
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.log.DebugContext(c.Request.Context(), "authentication failed",
				"request_id", c.GetString(ctxRequestID),
				"error", err,
			)
			fail(c, http.StatusUnauthorized, "Invalid token.")
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}
