package authclient

import (
	"context"
	"fmt"
)

// Logger is the logging contract used across the package.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Storage is a durable string key/value store, the desktop counterpart of a
// browser local storage. Get reports whether the key was present.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// AuthAPI is the credential issuing collaborator.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Register(ctx context.Context, payload map[string]any) (map[string]any, error)
	Logout(ctx context.Context) error
}

// LoginResponse is the body returned by POST /auth/login. Both fields are
// required for a login to be accepted.
type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserView `json:"user"`
}

const (
	// CredentialKey is the storage key holding the raw credential.
	CredentialKey = "ss_auth_token"
	// ThemeKey is the storage key holding the JSON encoded theme preference.
	ThemeKey = "ss-theme"
)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
