package testutil

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/stretchr/testify/mock"
)

// MockAuthService is a mock implementation of the account operations
type MockAuthService struct {
	mock.Mock
}

// NewMockAuthService creates a new mock auth service
func NewMockAuthService(t *testing.T) *MockAuthService {
	m := &MockAuthService{}
	m.Test(t)
	return m
}

func (m *MockAuthService) SignUp(ctx context.Context, in auth.SignupInput) (*auth.SignupResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*auth.SignupResult)
	return res, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*auth.Session)
	return res, args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	res, _ := args.Get(0).(*auth.TokenPair)
	return res, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAuthService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// ExpectLogin sets up expectation for Login
func (m *MockAuthService) ExpectLogin(email, password string, session *auth.Session, err error) *mock.Call {
	return m.On("Login", mock.Anything, email, password).Return(session, err)
}

// ExpectPing sets up expectation for Ping
func (m *MockAuthService) ExpectPing(err error) *mock.Call {
	return m.On("Ping", mock.Anything).Return(err)
}

// MockStorage is a mock implementation of object storage
type MockStorage struct {
	mock.Mock

	mu      sync.Mutex
	Objects map[string][]byte
}

// NewMockStorage creates a mock storage that keeps uploaded bytes in memory
// and answers presign requests with a fake URL unless told otherwise.
func NewMockStorage(t *testing.T) *MockStorage {
	m := &MockStorage{Objects: make(map[string][]byte)}
	m.Test(t)
	return m
}

func (m *MockStorage) PutObject(ctx context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	args := m.Called(ctx, key, contentType)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.Objects[key] = data
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, key string, duration time.Duration) (string, error) {
	args := m.Called(ctx, key, duration)
	if fn, ok := args.Get(0).(func(string) string); ok {
		return fn(key), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *MockStorage) DeleteObject(ctx context.Context, key string) error {
	err := m.Called(ctx, key).Error(0)
	if err == nil {
		m.mu.Lock()
		delete(m.Objects, key)
		m.mu.Unlock()
	}
	return err
}

// AllowAll accepts every storage call and presigns as https://storage.test/<key>.
func (m *MockStorage) AllowAll() *MockStorage {
	m.On("PutObject", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("DeleteObject", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("PresignGet", mock.Anything, mock.Anything, mock.Anything).
		Return(func(key string) string { return "https://storage.test/" + key }, nil).
		Maybe()
	return m
}

// Keys returns the stored object keys.
func (m *MockStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Objects))
	for k := range m.Objects {
		keys = append(keys, k)
	}
	return keys
}

// RecordingAuditor captures audit entries instead of writing them.
type RecordingAuditor struct {
	mu      sync.Mutex
	Entries []audit.Entry
}

func (r *RecordingAuditor) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
}

// Actions returns the recorded actions in order.
func (r *RecordingAuditor) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Action
	}
	return out
}
