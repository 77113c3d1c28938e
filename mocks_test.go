package authclient_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	authclient "github.com/goliatone/go-auth-client"
)

// MockAuthAPI implements authclient.AuthAPI
type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (*authclient.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	resp, _ := args.Get(0).(*authclient.LoginResponse)
	return resp, args.Error(1)
}

func (m *MockAuthAPI) Register(ctx context.Context, payload map[string]any) (map[string]any, error) {
	args := m.Called(ctx, payload)
	out, _ := args.Get(0).(map[string]any)
	return out, args.Error(1)
}

func (m *MockAuthAPI) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// countingStorage is an in memory Storage that records calls and can be
// switched into a failing mode.
type countingStorage struct {
	mu      sync.Mutex
	values  map[string]string
	gets    int
	sets    int
	deletes int
	failing bool
}

func newCountingStorage(initial map[string]string) *countingStorage {
	values := map[string]string{}
	for k, v := range initial {
		values[k] = v
	}
	return &countingStorage{values: values}
}

var errQuotaExceeded = errors.New("quota exceeded")

func (s *countingStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.failing {
		return "", false, errQuotaExceeded
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *countingStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.failing {
		return errQuotaExceeded
	}
	s.values[key] = value
	return nil
}

func (s *countingStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.failing {
		return errQuotaExceeded
	}
	delete(s.values, key)
	return nil
}

func (s *countingStorage) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *countingStorage) setFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

// captureLogger records formatted log lines per level.
type captureLogger struct {
	mu    sync.Mutex
	lines map[string][]string
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{lines: map[string][]string{}}
}

func (l *captureLogger) add(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[level] = append(l.lines[level], fmt.Sprintf(format, args...))
}

func (l *captureLogger) Debug(format string, args ...any) { l.add("debug", format, args...) }
func (l *captureLogger) Info(format string, args ...any)  { l.add("info", format, args...) }
func (l *captureLogger) Warn(format string, args ...any)  { l.add("warn", format, args...) }
func (l *captureLogger) Error(format string, args ...any) { l.add("error", format, args...) }

func (l *captureLogger) get(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines[level]...)
}

// recordingSink collects activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []authclient.ActivityEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, e authclient.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) types() []authclient.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]authclient.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// credential builds an unsigned three segment credential around payload.
func credential(payload any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return "h." + base64.RawURLEncoding.EncodeToString(b) + ".s"
}

func annCredential() string {
	return credential(map[string]any{"id": 1, "name": "Ann", "email": "a@x.com", "role_id": 1})
}
