// Package web serves the SkillSphere shell: public pages, the login and
// registration forms and the guarded dashboard.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/internal/config"
	"github.com/goliatone/go-auth-client/middleware/guardware"
)

//go:embed views
var viewsFS embed.FS

const layout = "layouts/main"

// Deps are the collaborators the shell renders from.
type Deps struct {
	Store  *authclient.SessionStore
	Bus    *authclient.NotificationBus
	Theme  *authclient.ThemePreference
	Config config.WebConfig
	Logger authclient.Logger
	// Demo shows the demo credentials on the login page
	Demo bool
}

type Server struct {
	deps   Deps
	logger authclient.Logger
	app    *fiber.App

	guard      *authclient.Guard
	adminGuard *authclient.Guard
}

// New builds the fiber app and registers every route.
func New(deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Bus == nil || deps.Theme == nil {
		return nil, errors.New("web: store, bus and theme are required")
	}
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}

	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, fmt.Errorf("unable to scope embedded views: %w", err)
	}
	engine := django.NewFileSystem(http.FS(views), ".html")

	s := &Server{
		deps:   deps,
		logger: deps.Logger,
		app: fiber.New(fiber.Config{
			Views:                 engine,
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler(deps.Logger),
		}),
	}

	guardOpts := []authclient.GuardOption{
		authclient.WithLoginPath(deps.Config.LoginPath),
		authclient.WithDefaultPath(deps.Config.DefaultPath),
	}
	s.guard = authclient.NewGuard(deps.Store, guardOpts...)
	s.adminGuard = authclient.NewGuard(deps.Store, append(guardOpts, authclient.WithRequiredRoles(authclient.RoleAdmin))...)

	s.routes()
	return s, nil
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run hydrates the session in the background and serves until ctx is done.
// Requests arriving before hydration completes get the loading placeholder.
func (s *Server) Run(ctx context.Context) error {
	go s.deps.Store.Hydrate(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.deps.Config.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

func (s *Server) routes() {
	app := s.app

	app.Get("/", s.home)
	app.Get("/login", s.loginForm)
	app.Post("/login", s.login)
	app.Get("/register", s.registerForm)
	app.Post("/register", s.register)
	app.Post("/logout", s.logout)

	app.Post("/theme/toggle", s.toggleTheme)
	app.Get("/session", s.session)
	app.Get("/notifications", s.notifications)
	app.Post("/notifications/:id/dismiss", s.dismissNotification)
	app.Delete("/notifications/:id", s.dismissNotification)

	guardCfg := guardware.Config{
		Guard:            s.guard,
		RejectedRouteKey: s.deps.Config.RejectedRouteKey,
		PlaceholderHandler: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, "1")
			c.Status(fiber.StatusServiceUnavailable)
			return s.render(c, "loading", map[string]any{"title": "Loading"})
		},
	}
	adminCfg := guardCfg
	adminCfg.Guard = s.adminGuard

	dash := app.Group("/dashboard", guardware.New(guardCfg))
	dash.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/dashboard/home", fiber.StatusSeeOther)
	})
	dash.Get("/home", s.page("dashboard/home", "Dashboard"))
	dash.Get("/learning", s.page("dashboard/learning", "My Learning"))
	dash.Get("/profile", s.page("dashboard/profile", "Profile"))
	dash.Get("/settings", s.page("dashboard/settings", "Settings"))
	dash.Get("/users", guardware.New(adminCfg), s.page("dashboard/users", "User Management"))
}

func errorHandler(logger authclient.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("%s %s: %v", c.Method(), c.OriginalURL(), err)
		}
		return c.Status(code).JSON(fiber.Map{"message": http.StatusText(code)})
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
