package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"myfi.backend/pkg/logger"
	"myfi.backend/pkg/redis"
)

var (
	lockFeed    = redis.LockFeed
	releaseLock = (*redis.Lock).Release
)

// IngestLockMiddleware lets one ingestion run per feed proceed at a time. The
// feed is read from the named route param. The scheduled sync job takes the
// same lock.
func IngestLockMiddleware(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		feed := c.Param(param)

		lock, err := lockFeed(ctx, feed)
		if errors.Is(err, redis.ErrLockHeld) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"code":    "INGEST_IN_PROGRESS",
				"message": "Ingestion already in progress",
			})
			return
		}
		if err != nil {
			logger.Error(ctx, "Ingest lock unavailable", zap.String("feed", feed), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"code":    "INGEST_LOCK_UNAVAILABLE",
				"message": "Ingestion lock unavailable",
			})
			return
		}

		defer func() {
			// release even when the client went away mid-run
			released, err := releaseLock(lock, context.WithoutCancel(ctx))
			switch {
			case err != nil:
				logger.Warn(ctx, "Failed to release ingest lock", zap.String("feed", feed), zap.Error(err))
			case !released:
				logger.Warn(ctx, "Ingest lock expired before the run finished", zap.String("feed", feed))
			}
		}()
		c.Next()
	}
}
