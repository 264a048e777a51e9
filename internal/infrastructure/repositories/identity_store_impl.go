package repositories

import (
	"context"
	"fmt"
	"time"

	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/domain/repositories"
	"myfi.backend/pkg/redis"
)

// recordStore is the encrypted key-value store the redis-backed repositories write through
type recordStore interface {
	Put(ctx context.Context, key string, v interface{}, expiration time.Duration) error
	Fetch(ctx context.Context, key string, v interface{}) error
	Remove(ctx context.Context, key string) (int64, error)
}

// identityStore implements repositories.IdentityStore on redis
type identityStore struct {
	records recordStore
}

// NewIdentityStore creates an identity store writing through records
func NewIdentityStore(records *redis.RecordStore) repositories.IdentityStore {
	return &identityStore{records: records}
}

// Get reads the identity record stored under ns:key
func (s *identityStore) Get(ctx context.Context, ns repositories.Namespace, key string) (*entities.IdentityRecord, error) {
	var rec entities.IdentityRecord
	if err := s.records.Fetch(ctx, redis.Key(string(ns), key), &rec); err != nil {
		if redis.IsNil(err) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, fmt.Errorf("read %s record: %w", ns, err)
	}
	return &rec, nil
}

// Set writes rec under ns:key; a zero ttl keeps it until deleted
func (s *identityStore) Set(ctx context.Context, ns repositories.Namespace, key string, rec *entities.IdentityRecord, ttl time.Duration) error {
	if err := s.records.Put(ctx, redis.Key(string(ns), key), rec, ttl); err != nil {
		return fmt.Errorf("write %s record: %w", ns, err)
	}
	return nil
}

// Delete removes ns:key and reports how many keys were removed
func (s *identityStore) Delete(ctx context.Context, ns repositories.Namespace, key string) (int64, error) {
	n, err := s.records.Remove(ctx, redis.Key(string(ns), key))
	if err != nil {
		return 0, fmt.Errorf("delete %s record: %w", ns, err)
	}
	return n, nil
}

// sessionRepo implements repositories.SessionRepository on redis
type sessionRepo struct {
	records recordStore
}

// NewSessionRepository creates a session repository writing through records
func NewSessionRepository(records *redis.RecordStore) repositories.SessionRepository {
	return &sessionRepo{records: records}
}

// Create stores the session until ttl elapses
func (r *sessionRepo) Create(ctx context.Context, session *entities.Session, ttl time.Duration) error {
	return r.records.Put(ctx, redis.Key(string(repositories.NamespaceSession), session.ID), session, ttl)
}

// Get reads a live session
func (r *sessionRepo) Get(ctx context.Context, id string) (*entities.Session, error) {
	var session entities.Session
	if err := r.records.Fetch(ctx, redis.Key(string(repositories.NamespaceSession), id), &session); err != nil {
		if redis.IsNil(err) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Delete revokes a session
func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.records.Remove(ctx, redis.Key(string(repositories.NamespaceSession), id))
	return err
}
