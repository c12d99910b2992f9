package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/evalquiz/quiz-portal/config"
	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	"github.com/evalquiz/quiz-portal/internal/observability/statsd"
	"github.com/evalquiz/quiz-portal/internal/ports"
	"github.com/evalquiz/quiz-portal/internal/service"
)

var errNotFound = errors.New("no route matches the request")

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions   *service.Sessions    // Required: session guard per storage origin
	Auth       AuthServiceInterface // Required: login and signup
	API        ports.QuizAPI        // Required: platform pages and password reset
	Navigation config.NavigationConfig

	CookieDomain string
	CookieSecure bool

	CompressionEnabled bool
	CompressionLevel   int

	// Optional: dependency pings reported by /healthz.
	HealthChecks map[string]HealthCheck
	// Optional: renderer override; the embedded views are used when nil.
	Renderer *TemplateRenderer
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// builtinPaths are routes whose paths are fixed. The configurable login path
// must not collide with them.
var builtinPaths = map[string]struct{}{
	"/signup":          {},
	"/forgot-password": {},
	"/logout":          {},
	"/dashboard":       {},
	"/profile":         {},
	"/reports":         {},
	"/reports/all":     {},
	"/admin/users":     {},
	"/admin/logs":      {},
	"/results":         {},
	"/quiz/submit":     {},
	"/healthz":         {},
}

// NewRouter creates the portal's HTTP handler with its middleware chain:
// Recover, Logging, Compression (optional), BrowserDetection, StorageOrigin,
// CSRFProtection, then the route mux.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Sessions == nil {
		return nil, errors.New("sessions are required")
	}
	if services.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	if services.API == nil {
		return nil, errors.New("quiz API is required")
	}
	nav := services.Navigation
	nav.Sanitize()
	if _, taken := builtinPaths[nav.LoginPath]; taken {
		return nil, fmt.Errorf("login path %q collides with a built-in route", nav.LoginPath)
	}

	if err := validateCookieDomain(services.CookieDomain); err != nil {
		return nil, err
	}

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := services.Renderer
	if renderer == nil {
		var err error
		renderer, err = NewTemplateRenderer(TemplateRendererConfig{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("template renderer: %w", err)
		}
	}

	authHandlers := &AuthHandlers{
		Svc:        services.Auth,
		Resetter:   services.API,
		Navigation: nav,
		Renderer:   renderer,
		Metrics:    services.Metrics,
		Logger:     logger,
	}
	pageHandlers := &PageHandlers{
		API:        services.API,
		Navigation: nav,
		Renderer:   renderer,
		Logger:     logger,
	}
	guards := GuardOptions{Navigation: nav, Metrics: services.Metrics}

	mux := http.NewServeMux()
	registerAuthRoutes(mux, authHandlers, guards)
	registerPageRoutes(mux, pageHandlers, guards)
	health := healthHandler(services.HealthChecks, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("/", fallbackHandler(nav))

	var handler http.Handler = mux
	handler = CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain, Secure: services.CookieSecure})(handler)
	handler = StorageOrigin(StorageOriginConfig{
		Sessions:     services.Sessions,
		CookieDomain: services.CookieDomain,
		Secure:       services.CookieSecure,
	})(handler)
	handler = BrowserDetection()(handler)
	if services.CompressionEnabled {
		handler = Compression(CompressionConfig{Level: services.CompressionLevel, Logger: logger})(handler)
	}
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, guards GuardOptions) {
	publicOnly := PublicOnly(guards)

	mux.Handle("GET "+h.Navigation.LoginPath, publicOnly(http.HandlerFunc(h.LoginPage)))
	mux.HandleFunc("POST "+h.Navigation.LoginPath, h.Login)
	mux.Handle("GET /signup", publicOnly(http.HandlerFunc(h.SignupPage)))
	mux.HandleFunc("POST /signup", h.Signup)
	mux.Handle("GET /forgot-password", publicOnly(http.HandlerFunc(h.ForgotPasswordPage)))
	mux.HandleFunc("POST /forgot-password", h.ForgotPassword)
	mux.HandleFunc("GET /logout", h.Logout)
	mux.HandleFunc("POST /logout", h.Logout)

	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/auth/forgot-password", h.ForgotPassword)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/session", h.Session)
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers, guards GuardOptions) {
	protected := RequireAuth(guards)
	staff := RequireRole(guards, domainauth.RoleAdmin, domainauth.RoleTutor)
	admin := RequireRole(guards, domainauth.RoleAdmin)

	routes := []struct {
		page, api string
		guard     func(http.Handler) http.Handler
		handler   http.HandlerFunc
	}{
		{"/dashboard", "/api/templates", protected, h.Dashboard},
		{"/templates/{templateID}", "/api/templates/{templateID}", protected, h.Template},
		{"/quiz/{templateID}", "/api/quiz/{templateID}", protected, h.Quiz},
		{"/profile", "/api/profile", protected, h.Profile},
		{"/reports", "/api/reports", protected, h.MyReports},
		{"/reports/all", "/api/reports/all", staff, h.AllReports},
		{"/admin/users", "/api/admin/users", admin, h.Users},
		{"/results", "/api/quiz/results", protected, h.Results},
		{"/reports/template/{templateID}", "/api/reports/template/{templateID}", staff, h.TemplateReports},
		{"/admin/logs", "/api/admin/logs", admin, h.UsageLogs},
	}
	for _, rt := range routes {
		guarded := rt.guard(rt.handler)
		mux.Handle("GET "+rt.page, guarded)
		mux.Handle("GET "+rt.api, guarded)
	}

	submit := protected(http.HandlerFunc(h.SubmitQuiz))
	mux.Handle("POST /quiz/submit", submit)
	mux.Handle("POST /api/quiz/submit", submit)
	updateRole := admin(http.HandlerFunc(h.UpdateUserRole))
	mux.Handle("POST /admin/users/{userID}/role", updateRole)
	mux.Handle("PUT /api/admin/users/{userID}/role", updateRole)
}

// fallbackHandler sends browsers that land on "/" or an unknown page to the
// landing page; everything else gets a JSON 404.
func fallbackHandler(nav config.NavigationConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method == http.MethodGet || r.Method == http.MethodHead) && IsBrowserRequest(r) {
			HardRedirect(w, r, nav.LandingPath)
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errNotFound})
	})
}

// validateCookieDomain rejects cookie domains browsers would refuse, such as
// "com" or "github.io", which would silently drop the origin cookie.
func validateCookieDomain(domain string) error {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return nil
	}
	if suffix, _ := publicsuffix.PublicSuffix(domain); suffix == domain {
		return fmt.Errorf("cookie domain %q is a public suffix", domain)
	}
	return nil
}
