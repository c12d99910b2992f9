package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Backend ports.AuthBackend // Required: platform auth endpoints
}

// AuthService orchestrates login and signup by calling the backend and
// handing the resulting token and user to a SessionGuard.
type AuthService struct {
	backend ports.AuthBackend
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Backend == nil {
		return nil, errors.New("auth backend is required")
	}
	return &AuthService{backend: opts.Backend}, nil
}

// Login authenticates against the backend and persists the session in guard.
func (s *AuthService) Login(ctx context.Context, guard *SessionGuard, in ports.Credentials) (ports.LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return ports.LoginResult{}, apperrors.ValidationField("email", "Email is required")
	}
	if in.Password == "" {
		return ports.LoginResult{}, apperrors.ValidationField("password", "Password is required")
	}

	res, err := s.backend.Login(ctx, in)
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if err := guard.SetSession(ctx, res.Token, res.User); err != nil {
		return ports.LoginResult{}, err
	}
	return res, nil
}

// Signup creates an account (role defaults to student) and logs it in.
func (s *AuthService) Signup(ctx context.Context, guard *SessionGuard, in ports.SignupInput) (ports.LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Email == "":
		return ports.LoginResult{}, apperrors.ValidationField("email", "Email is required")
	case in.Password == "":
		return ports.LoginResult{}, apperrors.ValidationField("password", "Password is required")
	case in.Name == "":
		return ports.LoginResult{}, apperrors.ValidationField("name", "Name is required")
	}
	if in.Role == "" {
		in.Role = domainauth.RoleStudent
	}
	if !in.Role.Valid() {
		return ports.LoginResult{}, apperrors.ValidationField("role", fmt.Sprintf("Unknown role %q", in.Role))
	}

	res, err := s.backend.Signup(ctx, in)
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("signup: %w", err)
	}
	if err := guard.SetSession(ctx, res.Token, res.User); err != nil {
		return ports.LoginResult{}, err
	}
	return res, nil
}
