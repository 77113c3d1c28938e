package authclient

import "context"

var userCtxKey = &contextKey{"user"}
var storeCtxKey = &contextKey{"session-store"}

type contextKey struct {
	name string
}

// WithUser sets the user in the given context
func WithUser(ctx context.Context, user *UserView) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the user from the context.
func UserFromContext(ctx context.Context) (*UserView, bool) {
	raw, ok := ctx.Value(userCtxKey).(*UserView)
	return raw, ok && raw != nil
}

// WithSessionStore hands store down to consumers that only receive a context.
func WithSessionStore(ctx context.Context, store *SessionStore) context.Context {
	return context.WithValue(ctx, storeCtxKey, store)
}

// SessionStoreFromContext returns the store set by WithSessionStore.
func SessionStoreFromContext(ctx context.Context) (*SessionStore, bool) {
	raw, ok := ctx.Value(storeCtxKey).(*SessionStore)
	return raw, ok && raw != nil
}

// CurrentUser returns the user in ctx, falling back to the authenticated
// user of the store in ctx.
func CurrentUser(ctx context.Context) (*UserView, bool) {
	if u, ok := UserFromContext(ctx); ok {
		return u, true
	}
	store, ok := SessionStoreFromContext(ctx)
	if !ok {
		return nil, false
	}
	s := store.Session()
	if !s.IsAuthenticated() {
		return nil, false
	}
	return s.User, true
}
