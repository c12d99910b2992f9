package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/evalquiz/quiz-portal/internal/ports"
)

// SessionsOptions groups dependencies for Sessions.
type SessionsOptions struct {
	Backend ports.StorageBackend // Required: storage backend
	Now     func() time.Time     // Optional: clock shared by every guard
	Logger  *slog.Logger         // Optional: structured logger
}

// Sessions hands out a SessionGuard per storage origin.
type Sessions struct {
	backend ports.StorageBackend
	now     func() time.Time
	logger  *slog.Logger
}

// NewSessions constructs a Sessions factory.
func NewSessions(opts SessionsOptions) (*Sessions, error) {
	if opts.Backend == nil {
		return nil, errors.New("storage backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		backend: opts.Backend,
		now:     opts.Now,
		logger:  logger.With("component", "session_guard"),
	}, nil
}

// For returns the guard of one storage origin. Guards are cheap and hold no
// session state, so one is built per request.
func (s *Sessions) For(origin string) *SessionGuard {
	return NewSessionGuard(SessionGuardOptions{
		Area:   s.backend.Area(origin),
		Now:    s.now,
		Logger: s.logger,
	})
}
