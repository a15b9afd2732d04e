package services

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yamdb/internal/models"
	"yamdb/internal/repositories"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) userResult(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return m.userResult(m.Called(ctx, id))
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.userResult(m.Called(ctx, username))
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.userResult(m.Called(ctx, email))
}

func (m *MockUserRepository) FindByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error) {
	return m.userResult(m.Called(ctx, username, email))
}

func (m *MockUserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *MockUserRepository) RotateConfirmation(ctx context.Context, id int64) (*models.User, error) {
	return m.userResult(m.Called(ctx, id))
}

func (m *MockUserRepository) MarkActivated(ctx context.Context, user *models.User, at time.Time) (*models.User, error) {
	return m.userResult(m.Called(ctx, user, at))
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// MockAttemptLimiter is a mock implementation of repositories.AttemptLimiter
type MockAttemptLimiter struct {
	mock.Mock
}

func (m *MockAttemptLimiter) Locked(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptLimiter) RecordFailure(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptLimiter) Reset(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// memStore is an IdentityStore with the uniqueness and compare-and-set rules
// of the postgres repository.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]models.User
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]models.User)}
}

func (s *memStore) find(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *memStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s *memStore) FindByUsernameAndEmail(_ context.Context, username, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Username == username && u.Email == email })
}

func (s *memStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return &repositories.DuplicateError{Field: "username"}
		}
		if u.Email == user.Email {
			return &repositories.DuplicateError{Field: "email"}
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.DateJoined = time.Now().UTC()
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) RotateConfirmation(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	u.ConfirmationSeq++
	s.users[id] = u
	return &u, nil
}

func (s *memStore) MarkActivated(_ context.Context, user *models.User, at time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[user.ID]
	if !ok || u.ConfirmationSeq != user.ConfirmationSeq || !sameTime(u.LastLogin, user.LastLogin) {
		return nil, repositories.ErrNotFound
	}
	u.IsActive = true
	u.LastLogin = &at
	s.users[user.ID] = u
	return &u, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// mailbox is a Notifier that keeps every message.
type mailbox struct {
	mu   sync.Mutex
	sent []string
}

func (m *mailbox) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to+"\n"+body)
	return nil
}

var codeLine = regexp.MustCompile(`code: (\S+)`)

// lastCode returns the confirmation code of the most recent message.
func (m *mailbox) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	match := codeLine.FindStringSubmatch(m.sent[len(m.sent)-1])
	require.Len(t, match, 2)
	return strings.TrimSpace(match[1])
}

var testCodeKey = []byte("test-code-key-0123456789abcdef!!")

var _ IdentityStore = (*memStore)(nil)
