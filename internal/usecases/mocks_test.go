package usecases_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"myfi.backend/internal/domain/entities"
	domainerrors "myfi.backend/internal/domain/errors"
	"myfi.backend/internal/domain/repositories"
	"myfi.backend/pkg/utils"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	args := m.Called(ctx)
	return args.Get(0).(context.Context) // Return mocked context
}

// Mock IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) Get(ctx context.Context, ns repositories.Namespace, key string) (*entities.IdentityRecord, error) {
	args := m.Called(ctx, ns, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.IdentityRecord), args.Error(1)
}

func (m *MockIdentityStore) Set(ctx context.Context, ns repositories.Namespace, key string, record *entities.IdentityRecord, ttl time.Duration) error {
	args := m.Called(ctx, ns, key, record, ttl)
	return args.Error(0)
}

func (m *MockIdentityStore) Delete(ctx context.Context, ns repositories.Namespace, key string) (int64, error) {
	args := m.Called(ctx, ns, key)
	return args.Get(0).(int64), args.Error(1)
}

// Mock SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *entities.Session, ttl time.Duration) error {
	args := m.Called(ctx, session, ttl)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, id string) (*entities.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock AmcRepository
type MockAmcRepository struct {
	mock.Mock
}

func (m *MockAmcRepository) Create(ctx context.Context, amc *entities.AMC) error {
	args := m.Called(ctx, amc)
	return args.Error(0)
}

func (m *MockAmcRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.AMC, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AMC), args.Error(1)
}

func (m *MockAmcRepository) GetByCode(ctx context.Context, code string) (*entities.AMC, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AMC), args.Error(1)
}

func (m *MockAmcRepository) Update(ctx context.Context, amc *entities.AMC) error {
	args := m.Called(ctx, amc)
	return args.Error(0)
}

func (m *MockAmcRepository) List(ctx context.Context) ([]*entities.AMC, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AMC), args.Error(1)
}

// Mock SchemeRepository
type MockSchemeRepository struct {
	mock.Mock
}

func (m *MockSchemeRepository) Create(ctx context.Context, scheme *entities.MutualFundScheme) error {
	args := m.Called(ctx, scheme)
	return args.Error(0)
}

func (m *MockSchemeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.MutualFundScheme, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MutualFundScheme), args.Error(1)
}

func (m *MockSchemeRepository) GetByName(ctx context.Context, name string) (*entities.MutualFundScheme, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MutualFundScheme), args.Error(1)
}

func (m *MockSchemeRepository) GetBySchemeCode(ctx context.Context, code int64) (*entities.MutualFundScheme, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MutualFundScheme), args.Error(1)
}

func (m *MockSchemeRepository) Update(ctx context.Context, scheme *entities.MutualFundScheme) error {
	args := m.Called(ctx, scheme)
	return args.Error(0)
}

func (m *MockSchemeRepository) List(ctx context.Context, filter entities.SchemeFilter, pagination utils.PaginationParams) ([]*entities.MutualFundScheme, int64, error) {
	args := m.Called(ctx, filter, pagination)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.MutualFundScheme), args.Get(1).(int64), args.Error(2)
}

// Mock SchemeNavRepository
type MockSchemeNavRepository struct {
	mock.Mock
}

func (m *MockSchemeNavRepository) Create(ctx context.Context, nav *entities.SchemeNAV) error {
	args := m.Called(ctx, nav)
	return args.Error(0)
}

func (m *MockSchemeNavRepository) GetBySchemeID(ctx context.Context, schemeID uuid.UUID) (*entities.SchemeNAV, error) {
	args := m.Called(ctx, schemeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SchemeNAV), args.Error(1)
}

func (m *MockSchemeNavRepository) Update(ctx context.Context, nav *entities.SchemeNAV) error {
	args := m.Called(ctx, nav)
	return args.Error(0)
}

// memIdentityStore is an in-memory IdentityStore. Records are copied on the way
// in and out so callers never share state with the store.
type memIdentityStore struct {
	mu      sync.Mutex
	records map[string]entities.IdentityRecord
	ttls    map[string]time.Duration
}

func newMemIdentityStore() *memIdentityStore {
	return &memIdentityStore{
		records: map[string]entities.IdentityRecord{},
		ttls:    map[string]time.Duration{},
	}
}

func memKey(ns repositories.Namespace, key string) string {
	return fmt.Sprintf("%s:%s", ns, key)
}

func (s *memIdentityStore) Get(_ context.Context, ns repositories.Namespace, key string) (*entities.IdentityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[memKey(ns, key)]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return &rec, nil
}

func (s *memIdentityStore) Set(_ context.Context, ns repositories.Namespace, key string, record *entities.IdentityRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[memKey(ns, key)] = *record
	s.ttls[memKey(ns, key)] = ttl
	return nil
}

func (s *memIdentityStore) Delete(_ context.Context, ns repositories.Namespace, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[memKey(ns, key)]; !ok {
		return 0, nil
	}
	delete(s.records, memKey(ns, key))
	delete(s.ttls, memKey(ns, key))
	return 1, nil
}

func (s *memIdentityStore) ttl(ns repositories.Namespace, key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[memKey(ns, key)]
}

// memSessionRepo is an in-memory SessionRepository
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]entities.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]entities.Session{}}
}

func (r *memSessionRepo) Create(_ context.Context, session *entities.Session, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *memSessionRepo) Get(_ context.Context, id string) (*entities.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return &s, nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// sequenceOTP hands out predictable codes: 100001, 100002, ...
type sequenceOTP struct {
	mu   sync.Mutex
	next int
	err  error
}

func (g *sequenceOTP) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.next++
	return fmt.Sprintf("%06d", 100000+g.next), nil
}

// recordingSender remembers the last code sent to each contact
type recordingSender struct {
	mu   sync.Mutex
	sent map[string]string
	err  error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: map[string]string{}}
}

func (s *recordingSender) SendOTP(_ context.Context, contact entities.ContactMethod, otp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent[contact.Value()] = otp
	return nil
}

func (s *recordingSender) last(contact entities.ContactMethod) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[contact.Value()]
}
