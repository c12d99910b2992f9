package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evalquiz/quiz-portal/config"
	"github.com/evalquiz/quiz-portal/internal/adapters/memstore"
	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	mockauth "github.com/evalquiz/quiz-portal/internal/mocks/auth"
	"github.com/evalquiz/quiz-portal/internal/service"
	"github.com/evalquiz/quiz-portal/internal/testutil"
)

const testOrigin = "5b1f2c1e-4a5d-4f0e-9a77-0c3c0f6f9e21"

func testNavigation() config.NavigationConfig {
	return config.NavigationConfig{LoginPath: "/login", LandingPath: "/dashboard"}
}

// newTestSessions builds a session factory over an in-memory backend with the
// shared fixed test clock.
func newTestSessions(t *testing.T) *service.Sessions {
	t.Helper()
	return newTestSessionsOn(t, memstore.NewBackend())
}

func newTestSessionsOn(t *testing.T, backend *memstore.Backend) *service.Sessions {
	t.Helper()
	sessions, err := service.NewSessions(service.SessionsOptions{
		Backend: backend,
		Now:     testutil.FixedTimeFunc(testutil.TestTime()),
	})
	require.NoError(t, err)
	return sessions
}

// signIn stores a valid session for a user with role under guard.
func signIn(t *testing.T, guard *service.SessionGuard, role domainauth.Role) domainauth.User {
	t.Helper()
	user := domainauth.User{ID: "7", Name: "Test " + string(role), Email: string(role) + "@example.com", Role: role}
	tok, err := mockauth.MintToken(user, testutil.TestTime(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, guard.SetSession(context.Background(), tok, user))
	return user
}

// withGuard attaches guard to req the way StorageOrigin does.
func withGuard(req *http.Request, guard *service.SessionGuard) *http.Request {
	ctx := setOriginInContext(req.Context(), testOrigin)
	return req.WithContext(SetGuardInContext(ctx, guard))
}

func browserRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

func apiRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func requireRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{})
	require.NoError(t, err)
	return tr
}

// okHandler answers 200 "served" so tests can tell the route ran.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("served"))
})

type countEvent struct {
	name string
	tags map[string]string
}

// recordingSink collects counters for assertions.
type recordingSink struct {
	mu     sync.Mutex
	counts []countEvent
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, countEvent{name: name, tags: tags})
}

func (s *recordingSink) Timing(string, time.Duration, map[string]string) {}

func (s *recordingSink) last(name string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.counts) - 1; i >= 0; i-- {
		if s.counts[i].name == name {
			return s.counts[i].tags
		}
	}
	return nil
}
