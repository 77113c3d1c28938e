// Package guardware adapts authclient.Guard to fiber handlers.
package guardware

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	authclient "github.com/goliatone/go-auth-client"
)

const (
	DefaultContextKey       = "user"
	DefaultRejectedRouteKey = "rejected_route"
	DefaultRetryAfter       = time.Second
)

type Config struct {
	// Filter skips the middleware when it returns true
	Filter func(*fiber.Ctx) bool
	// Guard is required
	Guard *authclient.Guard
	// ContextKey is the Locals key holding the *authclient.UserView
	ContextKey string
	// RejectedRouteKey is the cookie remembering the rejected location
	RejectedRouteKey string
	// RedirectStatus defaults to 303 See Other
	RedirectStatus int
	// RetryAfter is advertised while the session is still loading
	RetryAfter time.Duration
	// PlaceholderHandler renders the neutral loading response. The default
	// answers 503 with a Retry-After header.
	PlaceholderHandler fiber.Handler
	// SuccessHandler runs when access is granted, c.Next by default.
	SuccessHandler fiber.Handler
	// RedirectHandler runs on both redirect outcomes.
	RedirectHandler func(c *fiber.Ctx, d authclient.Decision) error
}

// New returns a handler that gates the route with cfg.Guard.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		d := cfg.Guard.Decide(c.OriginalURL())
		switch d.Outcome {
		case authclient.OutcomePlaceholder:
			return cfg.PlaceholderHandler(c)
		case authclient.OutcomeRedirectLogin, authclient.OutcomeRedirectDefault:
			return cfg.RedirectHandler(c, d)
		}

		c.Locals(cfg.ContextKey, d.User)
		c.SetUserContext(authclient.WithUser(c.UserContext(), d.User))
		return cfg.SuccessHandler(c)
	}
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		panic("guardware: Guard is required")
	}

	cfg := config[0]
	if cfg.Guard == nil {
		panic("guardware: Guard is required")
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.RejectedRouteKey == "" {
		cfg.RejectedRouteKey = DefaultRejectedRouteKey
	}
	if cfg.RedirectStatus == 0 {
		cfg.RedirectStatus = http.StatusSeeOther
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = DefaultRetryAfter
	}
	if cfg.PlaceholderHandler == nil {
		retryAfter := strconv.Itoa(int(cfg.RetryAfter.Round(time.Second) / time.Second))
		if retryAfter == "0" {
			retryAfter = "1"
		}
		cfg.PlaceholderHandler = func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			c.Set(fiber.HeaderCacheControl, "no-store")
			return c.Status(fiber.StatusServiceUnavailable).SendString("Loading...")
		}
	}
	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	if cfg.RedirectHandler == nil {
		cfg.RedirectHandler = func(c *fiber.Ctx, d authclient.Decision) error {
			location := d.Location
			if d.Outcome == authclient.OutcomeRedirectLogin {
				SetRedirect(c, cfg.RejectedRouteKey, d.From)
				location = LoginLocation(d)
			}
			return c.Redirect(location, cfg.RedirectStatus)
		}
	}
	return cfg
}

// LoginLocation returns the login path carrying the rejected location in
// the from query parameter.
func LoginLocation(d authclient.Decision) string {
	if d.From == "" {
		return d.Location
	}
	return d.Location + "?" + url.Values{"from": {d.From}}.Encode()
}

// User returns the user stored by the middleware, nil when the route was
// not guarded.
func User(c *fiber.Ctx, key ...string) *authclient.UserView {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	u, _ := c.Locals(k).(*authclient.UserView)
	return u
}

// SetRedirect remembers from in the rejected route cookie for five minutes.
func SetRedirect(c *fiber.Ctx, key, from string) {
	if key == "" {
		key = DefaultRejectedRouteKey
	}
	c.Cookie(&fiber.Cookie{
		Name:     key,
		Value:    from,
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// GetRedirect returns the location to go back to after login and clears
// the cookie. The from query parameter wins over the cookie and def is used
// when neither is set. Only local paths are returned.
func GetRedirect(c *fiber.Ctx, def string, key ...string) string {
	k := DefaultRejectedRouteKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}

	r := c.Query("from")
	if r == "" {
		r = c.Cookies(k)
	}
	if c.Cookies(k) != "" {
		c.Cookie(&fiber.Cookie{
			Name:     k,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour * (24 * 365)),
			HTTPOnly: true,
		})
	}

	if !IsLocalPath(r) {
		return def
	}
	return r
}

// IsLocalPath reports whether p is a path on this host.
func IsLocalPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	// protocol relative urls like //evil.example
	if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
		return false
	}
	return true
}
