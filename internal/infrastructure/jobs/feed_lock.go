package jobs

import (
	"context"

	"go.uber.org/zap"
	"myfi.backend/pkg/logger"
	"myfi.backend/pkg/redis"
)

var (
	lockFeed    = redis.LockFeed
	releaseLock = (*redis.Lock).Release
)

// RedisFeedLocker takes the same INGEST_LOCK key the ingestion endpoints use,
// so a scheduled sync never overlaps a manual upload of the same feed.
func RedisFeedLocker(ctx context.Context, feed string) (func(), error) {
	lock, err := lockFeed(ctx, feed)
	if err != nil {
		return nil, err
	}
	return func() {
		releaseCtx := context.WithoutCancel(ctx)
		released, err := releaseLock(lock, releaseCtx)
		if err != nil {
			logger.Warn(releaseCtx, "Failed to release ingest lock", zap.String("feed", feed), zap.Error(err))
			return
		}
		if !released {
			logger.Warn(releaseCtx, "Ingest lock expired before the sync finished", zap.String("key", lock.Key()))
		}
	}, nil
}
