package authclient

import "fmt"

// Status is the authentication status of a session
type Status string

const (
	// StatusLoading only holds before the first hydration completes
	StatusLoading Status = "loading"
	// StatusAnonymous nobody is logged in
	StatusAnonymous Status = "anonymous"
	// StatusAuthenticated a user was derived from the persisted credential
	StatusAuthenticated Status = "authenticated"
	// StatusFailed is reported by Session.Status when the last login failed.
	// Consumers must treat it exactly like StatusAnonymous.
	StatusFailed Status = "failed"
)

// Session is an immutable snapshot of the store state.
type Session struct {
	Status Status
	User   *UserView
	// Err holds the failure of the last login, cleared by the next
	// successful login or logout.
	Err error
}

// IsLoading reports whether hydration is still pending
func (s Session) IsLoading() bool {
	return s.Status == StatusLoading
}

// IsAuthenticated reports whether a user is logged in
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// IsAnonymous reports whether nobody is logged in, failed logins included
func (s Session) IsAnonymous() bool {
	return s.Status == StatusAnonymous || s.Status == StatusFailed
}

// Failed reports whether the last login attempt failed
func (s Session) Failed() bool {
	return s.Status == StatusFailed
}

func (s Session) String() string {
	if s.User == nil {
		return fmt.Sprintf("status=%s", s.Status)
	}
	return fmt.Sprintf("status=%s user=%s email=%s role=%s", s.Status, s.User.ID, s.User.Email, s.User.RoleID)
}
