package authclient

import (
	"context"
	"time"
)

// ActivityEventType enumerates session activity categories.
type ActivityEventType string

const (
	ActivityEventHydrated         ActivityEventType = "session.hydrated"
	ActivityEventCredentialPurged ActivityEventType = "session.credential.purged"
	ActivityEventLoginSuccess     ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure     ActivityEventType = "auth.login.failure"
	ActivityEventLoginSuperseded  ActivityEventType = "auth.login.superseded"
	ActivityEventLogout           ActivityEventType = "auth.logout"
)

// ActivityEvent describes a session transition.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	FromStatus Status
	ToStatus   Status
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes session activity events. Sinks are best effort,
// errors are logged and never change the session.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
