package authclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// SessionStore is the authentication state machine.
//
// The persisted credential is the only writable edge: every transition writes
// the credential cache and the user is re-derived synchronously from the new
// credential. Nothing sets the user directly.
//
// Login, Logout and Hydrate stamp a generation when they start. A login
// response is applied only if no other session operation started after it,
// so a late login response never re-authenticates after a logout.
type SessionStore struct {
	api        AuthAPI
	credential *Cache[string]
	decoder    CredentialDecoder
	logger     Logger
	activity   ActivitySink
	now        func() time.Time

	hydrateOnce sync.Once
	generation  atomic.Uint64
	opMu        sync.Mutex
	applyMu     sync.Mutex

	mu       sync.RWMutex
	session  Session
	loginErr error
	pending  *pendingLogin

	subMu     sync.Mutex
	subs      map[int]func(Session)
	nextSubID int

	stopCredential func()
}

type pendingLogin struct {
	token string
	user  *UserView
}

// SessionOption customizes a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionLogger overrides the logger.
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionActivitySink sets the sink receiving session activity.
func WithSessionActivitySink(sink ActivitySink) SessionOption {
	return func(s *SessionStore) {
		s.activity = normalizeActivitySink(sink)
	}
}

// WithSessionDecoder overrides the credential decoder.
func WithSessionDecoder(decoder CredentialDecoder) SessionOption {
	return func(s *SessionStore) {
		if decoder != nil {
			s.decoder = decoder
		}
	}
}

// WithSessionClock injects a custom clock (useful for tests).
func WithSessionClock(clock func() time.Time) SessionOption {
	return func(s *SessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewSessionStore returns a store in the Loading state. Call Hydrate once
// the application starts.
func NewSessionStore(api AuthAPI, credential *Cache[string], opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		api:        api,
		credential: credential,
		decoder:    NewTokenDecoder(),
		logger:     defLogger{},
		activity:   noopActivitySink{},
		now:        time.Now,
		session:    Session{Status: StatusLoading},
		subs:       map[int]func(Session){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.stopCredential = credential.OnChange(func(_, next string) {
		s.apply(context.Background(), next)
	})

	return s
}

// Session returns the current session snapshot.
func (s *SessionStore) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Credential returns the persisted credential, empty when logged out.
func (s *SessionStore) Credential() string {
	return s.credential.Get()
}

// Subscribe registers fn to receive every session change. Subscribers run
// synchronously on the goroutine that changed the credential and must not
// call Login or Logout from the callback.
func (s *SessionStore) Subscribe(fn func(Session)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Close detaches the store from the credential cache.
func (s *SessionStore) Close() {
	if s.stopCredential != nil {
		s.stopCredential()
	}
}

// Hydrate derives the session from the persisted credential. It runs once,
// later calls return immediately. A malformed credential is purged.
func (s *SessionStore) Hydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() {
		s.generation.Add(1)

		s.opMu.Lock()
		defer s.opMu.Unlock()

		s.apply(ctx, s.credential.Get())

		current := s.Session()
		s.recordActivity(ctx, ActivityEvent{
			EventType:  ActivityEventHydrated,
			UserID:     userID(current.User),
			FromStatus: StatusLoading,
			ToStatus:   current.Status,
		})
	})
}

// Login authenticates against the auth service. On success the returned
// credential is persisted and the user from the response is returned. Any
// failure clears the credential, moves the session to StatusFailed and is
// returned unchanged so the caller can report it.
//
// Input is sent as given. Callers check it with ValidateLogin first.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*UserView, error) {
	s.Hydrate(ctx)

	gen := s.generation.Add(1)
	resp, err := s.api.Login(ctx, email, password)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.generation.Load() != gen {
		s.logger.Info("discarding login response for %s, a newer session operation started", email)
		s.recordActivity(ctx, ActivityEvent{
			EventType:  ActivityEventLoginSuperseded,
			FromStatus: s.Session().Status,
			ToStatus:   s.Session().Status,
			Err:        err,
		})
		if err != nil {
			return nil, err
		}
		return nil, ErrSessionSuperseded
	}

	if err == nil && (resp == nil || resp.Token == "" || resp.User == nil) {
		err = ErrInvalidLoginResponse
	}

	from := s.Session().Status

	if err != nil {
		s.logger.Error("login failed for %s: %v", email, err)
		s.mu.Lock()
		s.loginErr = err
		s.pending = nil
		s.mu.Unlock()

		s.credential.Set("")

		s.recordActivity(ctx, ActivityEvent{
			EventType:  ActivityEventLoginFailure,
			FromStatus: from,
			ToStatus:   s.Session().Status,
			Err:        err,
			Metadata:   map[string]any{"email": email},
		})
		return nil, err
	}

	user := *resp.User

	s.mu.Lock()
	s.loginErr = nil
	s.pending = &pendingLogin{token: resp.Token, user: &user}
	s.mu.Unlock()

	s.credential.Set(resp.Token)

	s.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		UserID:     user.ID.String(),
		FromStatus: from,
		ToStatus:   s.Session().Status,
	})

	returned := *resp.User
	return &returned, nil
}

// Register forwards payload to the auth service and returns its response
// verbatim. It never changes the session.
func (s *SessionStore) Register(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return s.api.Register(ctx, payload)
}

// Logout notifies the auth service and clears the credential. The request is
// best effort: its failure is logged and the session still ends anonymous.
// If a login starts while the request is in flight the newer login owns the
// session and the credential is left to it.
func (s *SessionStore) Logout(ctx context.Context) {
	s.Hydrate(ctx)

	gen := s.generation.Add(1)

	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("%v: %v", ErrLogoutRequestFailed, err)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.generation.Load() != gen {
		s.logger.Info("logout superseded by a newer session operation")
		return
	}

	from := s.Session()

	s.mu.Lock()
	s.loginErr = nil
	s.pending = nil
	s.mu.Unlock()

	s.credential.Set("")

	s.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventLogout,
		UserID:     userID(from.User),
		FromStatus: from.Status,
		ToStatus:   s.Session().Status,
	})
}

// apply recomputes the session from credential. It runs for every
// credential change, including the purge it may trigger itself.
//
// Notifications can arrive out of order, so a credential that is no longer
// the persisted one is ignored. The change that replaced it has its own
// notification.
func (s *SessionStore) apply(ctx context.Context, credential string) {
	s.applyMu.Lock()
	purge := s.applyLocked(credential)
	s.applyMu.Unlock()

	if purge == nil {
		return
	}

	s.logger.Warn("purging persisted credential: %v", purge)
	s.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventCredentialPurged,
		FromStatus: s.Session().Status,
		ToStatus:   StatusAnonymous,
		Err:        purge,
	})
	s.credential.Update(func(current string) string {
		if current == credential {
			return ""
		}
		return current
	})
}

// applyLocked commits the session derived from credential and returns the
// decode error when credential must be purged.
func (s *SessionStore) applyLocked(credential string) error {
	s.mu.Lock()
	pending := s.pending
	loginErr := s.loginErr
	s.mu.Unlock()

	user, err := deriveUser(s.decoder, credential)

	if credential != s.credential.Get() {
		s.logger.Debug("ignoring stale credential change")
		return nil
	}

	switch {
	case credential == "":
		status := StatusAnonymous
		if loginErr != nil {
			status = StatusFailed
		}
		s.setSession(Session{Status: status, Err: loginErr})

	case err == nil:
		s.setSession(Session{Status: StatusAuthenticated, User: user})

	case pending != nil && pending.token == credential:
		s.logger.Debug("login credential is opaque, using the login response user")
		u := *pending.user
		s.setSession(Session{Status: StatusAuthenticated, User: &u})

	default:
		return err
	}
	return nil
}

func (s *SessionStore) setSession(next Session) {
	s.mu.Lock()
	prev := s.session
	s.session = next
	if next.Status != StatusAuthenticated {
		s.pending = nil
	}
	s.mu.Unlock()

	if sessionEqual(prev, next) {
		return
	}

	s.subMu.Lock()
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

func (s *SessionStore) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	sink := normalizeActivitySink(s.activity)
	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("session activity sink error: %v", err)
	}
}

// deriveUser is the pure projection from a credential to the session user.
// An empty credential yields no user and no error.
func deriveUser(decoder CredentialDecoder, credential string) (*UserView, error) {
	if credential == "" {
		return nil, nil
	}
	claims, err := decoder.Decode(credential)
	if err != nil {
		return nil, err
	}
	return claims.User(), nil
}

func sessionEqual(a, b Session) bool {
	if a.Status != b.Status || !errors.Is(a.Err, b.Err) {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return *a.User == *b.User
}

func userID(u *UserView) string {
	if u == nil {
		return ""
	}
	return u.ID.String()
}
