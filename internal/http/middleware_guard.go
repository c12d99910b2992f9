package httpx

import (
	"errors"
	"net/http"

	"github.com/evalquiz/quiz-portal/config"
	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	"github.com/evalquiz/quiz-portal/internal/observability/metrics"
	"github.com/evalquiz/quiz-portal/internal/observability/statsd"
)

// Access tiers, as tagged on guard metrics.
const (
	tierProtected  = "protected"
	tierRole       = "role"
	tierPublicOnly = "public_only"
)

var (
	errAuthenticationRequired = errors.New("authentication required")
	errInsufficientPerms      = errors.New("insufficient permissions")
)

// GuardOptions configures the route guards. Every guard redirects to the same
// two configured targets.
type GuardOptions struct {
	Navigation config.NavigationConfig
	Metrics    statsd.Sink
}

// RequireAuth serves the route only when the visitor's session is
// authenticated. Browsers are sent to the login page with the current path as
// redirect_uri; API clients get 401 authentication_required.
func RequireAuth(opts GuardOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard, ok := GuardFromContext(r.Context())
			if !ok || !guard.IsAuthenticated(r.Context()) {
				metrics.EmitGuardDecision(opts.Metrics, tierProtected, denyUnauthenticated(w, r, opts.Navigation))
				return
			}
			metrics.EmitGuardDecision(opts.Metrics, tierProtected, metrics.DecisionAllow)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole serves the route only to authenticated visitors holding one of
// roles. Authentication is checked first: an unauthenticated visitor goes to
// the login page even when the stored role would match. An authenticated
// visitor without the role goes to the landing page (browsers) or gets
// 403 insufficient_permissions (API clients), never to the login page.
func RequireRole(opts GuardOptions, roles ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			guard, ok := GuardFromContext(ctx)
			if !ok || !guard.IsAuthenticated(ctx) {
				metrics.EmitGuardDecision(opts.Metrics, tierRole, denyUnauthenticated(w, r, opts.Navigation))
				return
			}

			if !guard.HasAnyRole(ctx, roles...) {
				if IsBrowserRequest(r) {
					HardRedirect(w, r, opts.Navigation.LandingPath)
					metrics.EmitGuardDecision(opts.Metrics, tierRole, metrics.DecisionLanding)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errInsufficientPerms,
				})
				metrics.EmitGuardDecision(opts.Metrics, tierRole, metrics.DecisionForbidden)
				return
			}

			metrics.EmitGuardDecision(opts.Metrics, tierRole, metrics.DecisionAllow)
			next.ServeHTTP(w, r)
		})
	}
}

// PublicOnly keeps authenticated browsers away from the login and signup
// pages by sending them to the landing page. API clients pass through.
func PublicOnly(opts GuardOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard, ok := GuardFromContext(r.Context())
			if ok && IsBrowserRequest(r) && guard.IsAuthenticated(r.Context()) {
				HardRedirect(w, r, opts.Navigation.LandingPath)
				metrics.EmitGuardDecision(opts.Metrics, tierPublicOnly, metrics.DecisionLanding)
				return
			}
			metrics.EmitGuardDecision(opts.Metrics, tierPublicOnly, metrics.DecisionAllow)
			next.ServeHTTP(w, r)
		})
	}
}

// HardRedirect performs a full navigation to target: 303 See Other for
// regular requests and HX-Redirect for htmx requests, so the next page is
// built from a fresh read of the session instead of a swapped fragment.
func HardRedirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		HTMX(w).Redirect(target)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// denyUnauthenticated answers a request that needs a session and returns the
// decision taken.
func denyUnauthenticated(w http.ResponseWriter, r *http.Request, nav config.NavigationConfig) string {
	if IsBrowserRequest(r) {
		HardRedirect(w, r, loginURL(nav.LoginPath, redirectPathForRequest(r)))
		return metrics.DecisionLogin
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errAuthenticationRequired,
	})
	return metrics.DecisionUnauthorized
}
