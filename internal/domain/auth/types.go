package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and comparison against backend payloads.
// Valid values are defined as constants below; route guards, handlers and the
// API client all use these instead of string literals.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
)

// Roles returns the closed set of roles known at build time.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTutor, RoleStudent}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTutor, RoleStudent:
		return true
	default:
		return false
	}
}

// ParseRole converts a string into a Role. Matching is exact after trimming
// surrounding whitespace; "Admin" is not "admin".
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q (valid options: admin, tutor, student)", s)
	}
	return r, nil
}

// UserID is a user identifier as handed out by the backend. Older backend
// revisions emitted numeric ids, newer ones emit uuid strings; both decode.
type UserID string

// UnmarshalJSON accepts a JSON string or a JSON number. Any other value,
// null included, decodes to the empty id instead of failing, so one odd
// field does not discard the rest of a stored user record.
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*id = ""
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = UserID(n.String())
	}
	return nil
}

// MarshalJSON writes numeric ids back as numbers so entries round-trip to
// the shape older readers expect.
func (id UserID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte(`""`), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// User is the persisted user record handed out by the backend on login.
// Every field is optional when decoding; entries written by older revisions
// (user_id instead of id, username instead of name) still decode.
type User struct {
	ID       UserID `json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role"`
}

// looseString decodes a JSON string and ignores values of any other type.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var v string
	if json.Unmarshal(data, &v) == nil {
		*s = looseString(v)
	}
	return nil
}

// userWire is the decoding shape of User including legacy aliases.
type userWire struct {
	ID       UserID      `json:"id"`
	UserID   UserID      `json:"user_id"`
	Name     looseString `json:"name"`
	Email    looseString `json:"email"`
	Username looseString `json:"username"`
	Role     looseString `json:"role"`
}

// UnmarshalJSON decodes a user record, folding legacy aliases into the
// current field names. Fields of an unexpected type decode as empty; only a
// payload that is not a JSON object fails.
func (u *User) UnmarshalJSON(data []byte) error {
	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*u = User{
		ID:       w.ID,
		Name:     string(w.Name),
		Email:    string(w.Email),
		Username: string(w.Username),
		Role:     Role(w.Role),
	}
	if u.ID == "" {
		u.ID = w.UserID
	}
	if u.Name == "" {
		u.Name = string(w.Username)
	}
	return nil
}

// HasRole reports whether the user's role equals role exactly.
func (u User) HasRole(role Role) bool { return u.Role == role }

// HasAnyRole reports whether the user's role is a member of roles.
func (u User) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// DisplayName returns the best human-readable name available.
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
