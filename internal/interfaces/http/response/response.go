package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/pkg/logger"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error maps err onto its API outcome and sends it. Internal errors are
// logged and never echoed to the caller.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromError(err)
	if appErr.Code == domainerrors.CodeInternalError {
		logger.Error(c.Request.Context(), "Unhandled error", zap.Error(err), zap.String("path", c.FullPath()))
	}

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// Abort sends an error response and stops the handler chain
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// Paginated sends a list page with its metadata
func Paginated(c *gin.Context, status int, items interface{}, meta interface{}) {
	c.JSON(status, gin.H{
		"items": items,
		"meta":  meta,
	})
}
