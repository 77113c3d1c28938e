// Package cli wires the session core to storage, the auth service and the
// web shell, and implements the skillsphere subcommands.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/internal/config"
	"github.com/goliatone/go-auth-client/internal/logging"
	"github.com/goliatone/go-auth-client/storage"
)

// App holds the wired client components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Backend storage.Backend
	API     *authclient.HTTPAuthAPI
	Store   *authclient.SessionStore
	Bus     *authclient.NotificationBus
	Theme   *authclient.ThemePreference
}

// NewApp opens storage and builds the session store. A backend that fails to
// open is logged and replaced by memory only persistence.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.New(cfg.Logging)
	}

	backend, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		logger.Error("storage unavailable, session will not survive restarts", "driver", cfg.Storage.Driver, "err", err)
	}

	cacheLogger := authclient.WithCacheLogger(logging.NewAdapter(logger, "cache"))

	api := authclient.NewHTTPAuthAPI(authclient.HTTPAuthAPIConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logging.NewAdapter(logger, "api"),
	})

	store := authclient.NewSessionStore(api,
		authclient.NewCredentialCache(backend, cacheLogger),
		authclient.WithSessionLogger(logging.NewAdapter(logger, "session")),
		authclient.WithSessionActivitySink(activityLogger(logger)),
	)
	api.SetTokenSource(store.Credential)

	bus := authclient.NewNotificationBus(
		authclient.WithTTL(cfg.Notifications.TTL),
		authclient.WithMaxActive(cfg.Notifications.MaxActive),
		authclient.WithNotificationLogger(logging.NewAdapter(logger, "notifications")),
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: backend,
		API:     api,
		Store:   store,
		Bus:     bus,
		Theme:   authclient.NewThemePreference(backend, cacheLogger),
	}, nil
}

// Close releases timers and storage
func (a *App) Close() error {
	a.Bus.Close()
	a.Store.Close()
	return a.Backend.Close()
}

func activityLogger(logger *slog.Logger) authclient.ActivitySink {
	return authclient.ActivitySinkFunc(func(ctx context.Context, e authclient.ActivityEvent) error {
		attrs := []any{
			"event", e.EventType,
			"from", e.FromStatus,
			"to", e.ToStatus,
		}
		if e.UserID != "" {
			attrs = append(attrs, "user_id", e.UserID)
		}
		if e.Err != nil {
			attrs = append(attrs, "err", e.Err)
		}
		logger.DebugContext(ctx, "session activity", attrs...)
		return nil
	})
}
