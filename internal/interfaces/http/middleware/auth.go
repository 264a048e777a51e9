package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/interfaces/http/response"
	"myfi.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for user ID
	UserIDKey = "user_id"
	// SessionIDKey is the context key for the session backing the request
	SessionIDKey = "session_id"
)

// SessionAuthenticator resolves a bearer token to a live session
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*entities.Session, error)
}

// SessionAuthMiddleware admits requests carrying a bearer token whose session
// is still live and whose user is confirmed.
func SessionAuthMiddleware(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.Abort(c, domainerrors.Unauthorized("Authorization header is required. Use: Bearer <token>"))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Warn(c.Request.Context(), "Session authentication failed",
				zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.Abort(c, domainerrors.Unauthorized("Invalid or expired session"))
			return
		}

		c.Set(UserIDKey, session.UserID)
		c.Set(SessionIDKey, session.ID)
		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, session.UserID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUserID gets the user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	return id, ok
}

// GetSessionID gets the session ID from context
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID := c.GetString(SessionIDKey)
	return sessionID, sessionID != ""
}
