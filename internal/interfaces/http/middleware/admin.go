package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/interfaces/http/response"
)

// AdminTokenHeader carries the operator token on admin routes
const AdminTokenHeader = "X-Admin-Token"

// AdminTokenMiddleware guards admin routes with a static operator token.
// An empty configured token disables the admin surface entirely.
func AdminTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			response.Abort(c, domainerrors.Forbidden("Admin API is disabled"))
			return
		}

		got := c.GetHeader(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			response.Abort(c, domainerrors.Unauthorized("Invalid admin token"))
			return
		}
		c.Next()
	}
}
