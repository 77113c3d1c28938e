package authclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity fields carried in a credential's payload segment.
// They are display hints only, nothing here is verified.
type Claims struct {
	jwt.RegisteredClaims
	UID    UserID `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID RoleID `json:"role_id"`
}

// User projects the claims into a UserView
func (c *Claims) User() *UserView {
	return &UserView{
		ID:     c.UID,
		Name:   c.Name,
		Email:  c.Email,
		RoleID: c.RoleID,
	}
}

// Expires returns the expiration time, zero when the claim is missing
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// UserView is the user as shown to the UI. It is derived from decoded claims on
// hydration and taken from the login response on explicit login.
type UserView struct {
	ID     UserID `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID RoleID `json:"role_id"`
}

// IsAdmin reports whether the user holds the administrator role
func (u *UserView) IsAdmin() bool {
	return u != nil && u.RoleID == RoleAdmin
}

// HasAnyRole reports whether the user's role is in roles
func (u *UserView) HasAnyRole(roles ...RoleID) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.RoleID == r {
			return true
		}
	}
	return false
}

// UserID accepts both JSON strings and numbers. Servers differ on how they
// encode identifiers and the client only ever displays or compares them.
type UserID string

func (id UserID) String() string {
	return string(id)
}

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id must be a string or a number: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

func (id UserID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}
