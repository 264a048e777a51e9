package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// IngestLockNamespace prefixes the per-feed ingestion locks
	IngestLockNamespace = "INGEST_LOCK"
	// IngestLockDuration bounds how long a crashed run can hold a feed
	IngestLockDuration = 30 * time.Minute
)

// ErrLockHeld is returned when another holder owns the lock
var ErrLockHeld = errors.New("lock held")

// releaseScript deletes the key only while it still carries the holder's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var newLockToken = uuid.NewString

// Lock is a SetNX lock owned by whoever holds its token
type Lock struct {
	key   string
	token string
}

// AcquireLock takes key for ttl. It returns ErrLockHeld if someone else has it.
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := newLockToken()
	ok, err := SetNX(ctx, key, token, ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &Lock{key: key, token: token}, nil
}

// LockFeed takes the ingestion lock of a reference data feed
func LockFeed(ctx context.Context, feed string) (*Lock, error) {
	return AcquireLock(ctx, Key(IngestLockNamespace, feed), IngestLockDuration)
}

// Key returns the locked key
func (l *Lock) Key() string { return l.key }

// Release drops the lock if it is still ours. A lock that expired and was
// taken by someone else is left alone; released reports which happened.
func (l *Lock) Release(ctx context.Context) (released bool, err error) {
	n, err := releaseScript.Run(ctx, client, []string{l.key}, l.token).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
