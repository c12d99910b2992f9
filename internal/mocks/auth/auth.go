package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthBackend = (*FakeBackend)(nil)
	_ ports.StorageArea = (*FlakyArea)(nil)
)

// SigningKey signs the tokens minted by FakeBackend and MintToken.
const SigningKey = "fake-backend-secret"

// MintToken signs an HS256 token for user that expires ttl after now.
// A non-positive ttl yields an already expired token.
func MintToken(user domainauth.User, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": string(user.ID),
		"email":   user.Email,
		"role":    string(user.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(SigningKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

type account struct {
	password string
	user     domainauth.User
}

// FakeBackend simulates the platform's auth endpoints with deterministic
// user ids and signed tokens.
type FakeBackend struct {
	LoginFunc  func(ctx context.Context, in ports.Credentials) (ports.LoginResult, error)
	SignupFunc func(ctx context.Context, in ports.SignupInput) (ports.LoginResult, error)

	// TokenTTL is the lifetime of minted tokens; defaults to one hour.
	TokenTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time

	mu       sync.Mutex
	accounts map[string]account
	nextID   int
}

// NewFakeBackend creates a FakeBackend with no accounts.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{accounts: make(map[string]account)}
}

// AddUser registers an account and returns the stored user.
func (f *FakeBackend) AddUser(email, password, name string, role domainauth.Role) domainauth.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(email, password, name, role)
}

func (f *FakeBackend) addLocked(email, password, name string, role domainauth.Role) domainauth.User {
	if f.accounts == nil {
		f.accounts = make(map[string]account)
	}
	f.nextID++
	u := domainauth.User{
		ID:    domainauth.UserID(fmt.Sprintf("%d", f.nextID)),
		Name:  name,
		Email: email,
		Role:  role,
	}
	f.accounts[strings.ToLower(email)] = account{password: password, user: u}
	return u
}

func (f *FakeBackend) Login(ctx context.Context, in ports.Credentials) (ports.LoginResult, error) {
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, in)
	}

	f.mu.Lock()
	acct, ok := f.accounts[strings.ToLower(in.Email)]
	f.mu.Unlock()
	if !ok || acct.password != in.Password {
		return ports.LoginResult{}, apperrors.Unauthorized("Invalid credentials")
	}
	return f.issue(acct.user)
}

func (f *FakeBackend) Signup(ctx context.Context, in ports.SignupInput) (ports.LoginResult, error) {
	if f.SignupFunc != nil {
		return f.SignupFunc(ctx, in)
	}
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return ports.LoginResult{}, apperrors.Validation("Email, password, and name are required")
	}

	f.mu.Lock()
	if _, exists := f.accounts[strings.ToLower(in.Email)]; exists {
		f.mu.Unlock()
		return ports.LoginResult{}, apperrors.Conflict("User already exists")
	}
	role := in.Role
	if role == "" {
		role = domainauth.RoleStudent
	}
	u := f.addLocked(in.Email, in.Password, in.Name, role)
	f.mu.Unlock()

	return f.issue(u)
}

func (f *FakeBackend) issue(u domainauth.User) (ports.LoginResult, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	ttl := f.TokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	tok, err := MintToken(u, now(), ttl)
	if err != nil {
		return ports.LoginResult{}, err
	}
	return ports.LoginResult{Token: tok, User: u}, nil
}

// ErrInjected is the failure FlakyArea reports for its failing keys.
var ErrInjected = errors.New("injected storage failure")

// FlakyArea wraps a storage area and fails writes (or reads) of chosen keys.
// Writes to other keys pass through, which makes partial failures easy to
// reproduce.
type FlakyArea struct {
	ports.StorageArea

	FailSet    map[string]bool
	FailGet    map[string]bool
	FailRemove bool
}

func (f *FlakyArea) GetItem(ctx context.Context, key string) (string, bool, error) {
	if f.FailGet[key] {
		return "", false, ErrInjected
	}
	return f.StorageArea.GetItem(ctx, key)
}

func (f *FlakyArea) SetItem(ctx context.Context, key, value string) error {
	if f.FailSet[key] {
		return ErrInjected
	}
	return f.StorageArea.SetItem(ctx, key, value)
}

func (f *FlakyArea) RemoveItem(ctx context.Context, keys ...string) error {
	if f.FailRemove {
		return ErrInjected
	}
	return f.StorageArea.RemoveItem(ctx, keys...)
}
