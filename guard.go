package authclient

import "slices"

// Outcome is what a guarded view should do
type Outcome string

const (
	// OutcomePlaceholder render a neutral placeholder, the session is still loading
	OutcomePlaceholder Outcome = "placeholder"
	// OutcomeRedirectLogin nobody is logged in, send them to the login entry point
	OutcomeRedirectLogin Outcome = "redirect_login"
	// OutcomeRedirectDefault logged in but the role is not allowed
	OutcomeRedirectDefault Outcome = "redirect_default"
	// OutcomeRender access granted
	OutcomeRender Outcome = "render"
)

// Decision is the result of evaluating a guard for a location.
type Decision struct {
	Outcome Outcome
	// Location is where to redirect to, empty for placeholder and render.
	Location string
	// From is the originally requested location, set for login redirects so a
	// successful login can return there.
	From string
	User *UserView
}

// Redirects reports whether the decision navigates away
func (d Decision) Redirects() bool {
	return d.Outcome == OutcomeRedirectLogin || d.Outcome == OutcomeRedirectDefault
}

// SessionSource is what a Guard needs from the session store.
type SessionSource interface {
	Session() Session
	Subscribe(fn func(Session)) (unsubscribe func())
}

var _ SessionSource = (*SessionStore)(nil)

// Guard gates protected views by session status and role. It only mirrors
// the client's belief about the user: credentials are not verified, so the
// auth service must still authorize every request.
type Guard struct {
	source        SessionSource
	requiredRoles []RoleID
	loginPath     string
	defaultPath   string
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithRequiredRoles restricts the guard to users holding one of roles. No
// roles admits any authenticated user.
func WithRequiredRoles(roles ...RoleID) GuardOption {
	return func(g *Guard) {
		g.requiredRoles = append(g.requiredRoles, roles...)
	}
}

// WithLoginPath sets the login entry point, "/login" by default.
func WithLoginPath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithDefaultPath sets the safe location for unauthorized users, "/" by default.
func WithDefaultPath(path string) GuardOption {
	return func(g *Guard) {
		if path != "" {
			g.defaultPath = path
		}
	}
}

// NewGuard returns a guard reading from source.
func NewGuard(source SessionSource, opts ...GuardOption) *Guard {
	g := &Guard{
		source:      source,
		loginPath:   "/login",
		defaultPath: "/",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// RequiredRoles returns the roles the guard admits.
func (g *Guard) RequiredRoles() []RoleID {
	return slices.Clone(g.requiredRoles)
}

// Decide evaluates the current session for a request to location.
func (g *Guard) Decide(location string) Decision {
	return g.decide(g.source.Session(), location)
}

// Watch evaluates the guard now and again on every session change, so a
// logout elsewhere evicts the rendered view immediately. Call stop when the
// view is torn down.
func (g *Guard) Watch(location string, fn func(Decision)) (stop func()) {
	if fn == nil {
		return func() {}
	}

	unsubscribe := g.source.Subscribe(func(s Session) {
		fn(g.decide(s, location))
	})
	fn(g.Decide(location))
	return unsubscribe
}

func (g *Guard) decide(s Session, location string) Decision {
	switch {
	case s.IsLoading():
		// redirecting here would evict a user whose credential is still hydrating
		return Decision{Outcome: OutcomePlaceholder}

	case !s.IsAuthenticated():
		return Decision{
			Outcome:  OutcomeRedirectLogin,
			Location: g.loginPath,
			From:     location,
		}

	case len(g.requiredRoles) > 0 && !s.User.HasAnyRole(g.requiredRoles...):
		return Decision{
			Outcome:  OutcomeRedirectDefault,
			Location: g.defaultPath,
			User:     s.User,
		}

	default:
		return Decision{Outcome: OutcomeRender, User: s.User}
	}
}
