package authclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RoleID is the integer role tag carried by credentials
type RoleID int

const (
	// RoleAdmin is the elevated administrator role
	RoleAdmin RoleID = 1
	// RoleStudent is the standard learner role. Any role other than RoleAdmin
	// is treated as standard.
	RoleStudent RoleID = 2
)

// IsAdmin checks if this role is the administrator role
func (r RoleID) IsAdmin() bool {
	return r == RoleAdmin
}

// IsStandard checks if this role is a non elevated role
func (r RoleID) IsStandard() bool {
	return r != RoleAdmin
}

func (r RoleID) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStudent:
		return "student"
	default:
		return "role:" + strconv.Itoa(int(r))
	}
}

// ParseRole parses a role name or its numeric id
func ParseRole(s string) (RoleID, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "admin":
		return RoleAdmin, true
	case "student":
		return RoleStudent, true
	}

	n, err := strconv.Atoi(strings.TrimPrefix(s, "role:"))
	if err != nil {
		return 0, false
	}
	return RoleID(n), true
}

// UnmarshalJSON accepts numbers and numeric strings.
func (r *RoleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}

	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("role_id must be an integer: %w", err)
	}
	*r = RoleID(n)
	return nil
}
