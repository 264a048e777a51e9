package repositories

import (
	"context"
	"time"

	"myfi.backend/internal/domain/entities"
)

// Namespace partitions the key-value identity store
type Namespace string

const (
	NamespacePendingUser Namespace = "REDIS_NEW_USER"
	NamespaceUser        Namespace = "REDIS_USER"
	NamespaceSession     Namespace = "REDIS_USER_SESSION"
)

// IdentityStore is the key-value store holding identity records.
// Get returns domainerrors.ErrNotFound for an absent or expired key.
type IdentityStore interface {
	Get(ctx context.Context, ns Namespace, key string) (*entities.IdentityRecord, error)
	Set(ctx context.Context, ns Namespace, key string, record *entities.IdentityRecord, ttl time.Duration) error
	Delete(ctx context.Context, ns Namespace, key string) (int64, error)
}

// SessionRepository stores sessions issued after pin verification
type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*entities.Session, error)
	Delete(ctx context.Context, id string) error
}
