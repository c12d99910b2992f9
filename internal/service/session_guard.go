package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

// ErrEmptyToken is returned by SetSession when no token is given.
var ErrEmptyToken = errors.New("session token is required")

var _ ports.Session = (*SessionGuard)(nil)

// SessionGuardOptions groups dependencies for SessionGuard.
type SessionGuardOptions struct {
	Area   ports.StorageArea // Required: the storage area of one origin
	Now    func() time.Time  // Optional: clock, defaults to time.Now
	Logger *slog.Logger      // Optional: structured logger
}

// SessionGuard derives authentication state and role from the token and user
// entries of one storage area. It holds no session state of its own: every
// call re-reads storage, so a login or logout elsewhere is visible on the
// next read.
//
// Every read method is total. Missing entries, corrupt JSON, malformed tokens
// and storage failures all resolve to a definite answer; none of them panic
// or surface an error.
type SessionGuard struct {
	area   ports.StorageArea
	now    func() time.Time
	logger *slog.Logger
}

// NewSessionGuard constructs a SessionGuard over a storage area.
func NewSessionGuard(opts SessionGuardOptions) *SessionGuard {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionGuard{area: opts.Area, now: now, logger: logger}
}

// SetSession persists token and user together. Areas implementing
// ports.AtomicWriter write both in one step; other areas are written user
// first, then token. On any failure both entries are removed and the error is
// returned: the caller must treat the session as absent.
func (g *SessionGuard) SetSession(ctx context.Context, token string, user domainauth.User) error {
	if token == "" {
		g.clear(ctx)
		return ErrEmptyToken
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		g.clear(ctx)
		return fmt.Errorf("encode user: %w", err)
	}

	if err := g.write(ctx, token, string(userJSON)); err != nil {
		if rmErr := g.area.RemoveItem(ctx, ports.StorageKeyToken, ports.StorageKeyUser); rmErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback session: %w", rmErr))
		}
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (g *SessionGuard) write(ctx context.Context, token, userJSON string) error {
	if aw, ok := g.area.(ports.AtomicWriter); ok {
		return aw.SetItems(ctx, map[string]string{
			ports.StorageKeyToken: token,
			ports.StorageKeyUser:  userJSON,
		})
	}
	// A reader between the two writes sees a user without a token, which is
	// unauthenticated.
	if err := g.area.SetItem(ctx, ports.StorageKeyUser, userJSON); err != nil {
		return err
	}
	return g.area.SetItem(ctx, ports.StorageKeyToken, token)
}

// Token returns the persisted bearer token. An empty value is absent.
func (g *SessionGuard) Token(ctx context.Context) (string, bool) {
	v, ok := g.get(ctx, ports.StorageKeyToken)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// User returns the persisted user record. A missing entry, the literal
// strings "undefined" and "null", and malformed JSON all yield absent.
func (g *SessionGuard) User(ctx context.Context) (domainauth.User, bool) {
	raw, ok := g.get(ctx, ports.StorageKeyUser)
	if !ok {
		return domainauth.User{}, false
	}
	switch strings.TrimSpace(raw) {
	case "", "undefined", "null":
		return domainauth.User{}, false
	}

	var u domainauth.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		g.logger.DebugContext(ctx, "ignoring corrupt user entry", "error", err)
		return domainauth.User{}, false
	}
	return u, true
}

// IsAuthenticated reports whether the stored session is valid now.
//
// A decodable token is valid iff its exp claim is strictly after now; a
// decodable token without a numeric exp is not valid. When the token cannot
// be decoded at all, the session counts as valid iff a user record is also
// present. That fallback trades strict expiry checking for availability with
// tokens the portal cannot read.
func (g *SessionGuard) IsAuthenticated(ctx context.Context) bool {
	token, ok := g.Token(ctx)
	if !ok {
		return false
	}

	claims, err := domainauth.DecodeClaims(token)
	if err != nil {
		_, hasUser := g.User(ctx)
		g.logger.DebugContext(ctx, "token not decodable, using presence check",
			"error", err, "user_present", hasUser)
		return hasUser
	}
	return claims.ValidAt(g.now())
}

// UserRole returns the role of the stored user. A user without a role, or no
// user, is absent.
func (g *SessionGuard) UserRole(ctx context.Context) (domainauth.Role, bool) {
	u, ok := g.User(ctx)
	if !ok || u.Role == "" {
		return "", false
	}
	return u.Role, true
}

// HasRole reports whether a user is stored and its role equals role exactly.
func (g *SessionGuard) HasRole(ctx context.Context, role domainauth.Role) bool {
	current, ok := g.UserRole(ctx)
	return ok && current == role
}

// HasAnyRole reports whether a user is stored and its role is one of roles.
func (g *SessionGuard) HasAnyRole(ctx context.Context, roles ...domainauth.Role) bool {
	current, ok := g.UserRole(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if current == r {
			return true
		}
	}
	return false
}

// Logout removes both session entries. The HTTP layer follows up with a full
// navigation to the login page.
func (g *SessionGuard) Logout(ctx context.Context) error {
	if err := g.area.RemoveItem(ctx, ports.StorageKeyToken, ports.StorageKeyUser); err != nil {
		g.logger.WarnContext(ctx, "failed to clear session", "error", err)
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SessionState is a point-in-time view of the guard, for status endpoints.
type SessionState struct {
	Authenticated bool             `json:"authenticated"`
	User          *domainauth.User `json:"user"`
	Role          domainauth.Role  `json:"role,omitempty"`
}

// State reads the guard once per field and returns the combined view.
func (g *SessionGuard) State(ctx context.Context) SessionState {
	st := SessionState{Authenticated: g.IsAuthenticated(ctx)}
	if u, ok := g.User(ctx); ok {
		st.User = &u
		st.Role = u.Role
	}
	return st
}

func (g *SessionGuard) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := g.area.GetItem(ctx, key)
	if err != nil {
		g.logger.WarnContext(ctx, "storage read failed, treating entry as absent", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func (g *SessionGuard) clear(ctx context.Context) {
	if err := g.area.RemoveItem(ctx, ports.StorageKeyToken, ports.StorageKeyUser); err != nil {
		g.logger.WarnContext(ctx, "failed to clear session", "error", err)
	}
}
