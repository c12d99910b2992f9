package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evalquiz/quiz-portal/config"
	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/observability/metrics"
	"github.com/evalquiz/quiz-portal/internal/observability/statsd"
	"github.com/evalquiz/quiz-portal/internal/ports"
	"github.com/evalquiz/quiz-portal/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, guard *service.SessionGuard, in ports.Credentials) (ports.LoginResult, error)
	Signup(ctx context.Context, guard *service.SessionGuard, in ports.SignupInput) (ports.LoginResult, error)
}

// PasswordResetter starts the backend's password reset flow.
type PasswordResetter interface {
	ForgotPassword(ctx context.Context, email string) error
}

var errNoSession = errors.New("session storage is not available")

// AuthHandlers provides HTTP handlers for login, signup, and logout.
type AuthHandlers struct {
	Svc        AuthServiceInterface
	Resetter   PasswordResetter
	Navigation config.NavigationConfig
	Renderer   *TemplateRenderer
	Metrics    statsd.Sink
	Logger     *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// sessionResponse is the JSON answer to a successful login or signup.
type sessionResponse struct {
	service.SessionState
	RedirectTo string `json:"redirect_to"`
}

// LoginPage renders the login form.
// GET /login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := newPageData(r, h.Navigation, PageMeta{Title: "Log in", CurrentPage: PageLogin})
	data.RedirectURI = safeRedirectPath(r.URL.Query().Get("redirect_uri"))
	h.render(w, r, http.StatusOK, PageLogin, data)
}

// Login authenticates the visitor and stores the session under its origin.
// POST /login (form) and POST /api/auth/login (JSON).
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	guard, ok := h.requireGuard(w, r)
	if !ok {
		return
	}

	var req loginRequest
	if isJSONBody(r) {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		req = loginRequest{
			Email:       r.PostFormValue("email"),
			Password:    r.PostFormValue("password"),
			RedirectURI: r.PostFormValue("redirect_uri"),
		}
	}

	_, err := h.Svc.Login(r.Context(), guard, ports.Credentials{Email: req.Email, Password: req.Password})
	metrics.EmitAuthAttempt(h.Metrics, "login", err)
	if err != nil {
		h.logger().InfoContext(r.Context(), "login failed", "error_code", apperrors.GetCode(err))
		if wantsJSON(r) {
			WriteAppError(w, err)
			return
		}
		data := newPageData(r, h.Navigation, PageMeta{Title: "Log in", CurrentPage: PageLogin})
		data.Email = strings.TrimSpace(req.Email)
		data.RedirectURI = safeRedirectPath(req.RedirectURI)
		status := applyFormError(&data, err)
		h.render(w, r, status, PageLogin, data)
		return
	}

	h.completeAuth(w, r, guard, postLoginTarget(req.RedirectURI, h.Navigation.LoginPath, h.Navigation.LandingPath))
}

// SignupPage renders the signup form.
// GET /signup.
func (h *AuthHandlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	data := newPageData(r, h.Navigation, PageMeta{Title: "Sign up", CurrentPage: PageSignup})
	h.render(w, r, http.StatusOK, PageSignup, data)
}

// Signup creates an account and logs it in. The role defaults to student.
// POST /signup (form) and POST /api/auth/signup (JSON).
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	guard, ok := h.requireGuard(w, r)
	if !ok {
		return
	}

	var req signupRequest
	if isJSONBody(r) {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		req = signupRequest{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
			Name:     r.PostFormValue("name"),
			Role:     r.PostFormValue("role"),
		}
	}

	_, err := h.Svc.Signup(r.Context(), guard, ports.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     domainauth.Role(strings.TrimSpace(req.Role)),
	})
	metrics.EmitAuthAttempt(h.Metrics, "signup", err)
	if err != nil {
		h.logger().InfoContext(r.Context(), "signup failed", "error_code", apperrors.GetCode(err))
		if wantsJSON(r) {
			WriteAppError(w, err)
			return
		}
		data := newPageData(r, h.Navigation, PageMeta{Title: "Sign up", CurrentPage: PageSignup})
		data.Email = strings.TrimSpace(req.Email)
		data.Name = strings.TrimSpace(req.Name)
		data.Role = strings.TrimSpace(req.Role)
		status := applyFormError(&data, err)
		h.render(w, r, status, PageSignup, data)
		return
	}

	h.completeAuth(w, r, guard, h.Navigation.LandingPath)
}

// ForgotPasswordPage renders the password reset form.
// GET /forgot-password.
func (h *AuthHandlers) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	data := newPageData(r, h.Navigation, PageMeta{Title: "Reset password", CurrentPage: PageForgotPassword})
	h.render(w, r, http.StatusOK, PageForgotPassword, data)
}

// ForgotPassword asks the backend to send a reset link. The answer does not
// reveal whether an account exists for the address.
// POST /forgot-password (form) and POST /api/auth/forgot-password (JSON).
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if isJSONBody(r) {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		req.Email = r.PostFormValue("email")
	}

	err := h.Resetter.ForgotPassword(r.Context(), strings.TrimSpace(req.Email))
	if err != nil && !apperrors.IsNotFound(err) {
		h.logger().InfoContext(r.Context(), "password reset failed", "error_code", apperrors.GetCode(err))
		if wantsJSON(r) {
			WriteAppError(w, err)
			return
		}
		data := newPageData(r, h.Navigation, PageMeta{Title: "Reset password", CurrentPage: PageForgotPassword})
		data.Email = strings.TrimSpace(req.Email)
		status := applyFormError(&data, err)
		h.render(w, r, status, PageForgotPassword, data)
		return
	}

	const sent = "If an account exists for that email, a reset link is on its way."
	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "sent", "message": sent})
		return
	}
	data := newPageData(r, h.Navigation, PageMeta{Title: "Reset password", CurrentPage: PageForgotPassword})
	data.Message = sent
	h.render(w, r, http.StatusOK, PageForgotPassword, data)
}

// Logout clears the session of the visitor's origin and sends it to login.
// GET|POST /logout and POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	guard, ok := h.requireGuard(w, r)
	if !ok {
		return
	}

	if err := guard.Logout(r.Context()); err != nil {
		h.logger().ErrorContext(r.Context(), "logout failed", "error", err)
		if wantsJSON(r) {
			WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "logout_failed", Err: errors.New("could not clear the session")})
			return
		}
		data := newPageData(r, h.Navigation, PageMeta{Title: "Logout failed", CurrentPage: PageError})
		data.Error = "We could not sign you out. Please try again."
		h.render(w, r, http.StatusInternalServerError, PageError, data)
		return
	}

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": h.Navigation.LoginPath,
		})
		return
	}
	HardRedirect(w, r, h.Navigation.LoginPath)
}

// Session reports the session state of the visitor's origin.
// GET /api/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	guard, ok := h.requireGuard(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, guard.State(r.Context()))
}

// completeAuth answers a successful login or signup. Browsers get a full
// navigation so the next page reads the freshly stored session.
func (h *AuthHandlers) completeAuth(w http.ResponseWriter, r *http.Request, guard *service.SessionGuard, target string) {
	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, sessionResponse{
			SessionState: guard.State(r.Context()),
			RedirectTo:   target,
		})
		return
	}
	HardRedirect(w, r, target)
}

func (h *AuthHandlers) requireGuard(w http.ResponseWriter, r *http.Request) (*service.SessionGuard, bool) {
	guard, ok := GuardFromContext(r.Context())
	if !ok {
		h.logger().ErrorContext(r.Context(), "no session guard in request context")
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "session_unavailable", Err: errNoSession})
		return nil, false
	}
	return guard, true
}

func (h *AuthHandlers) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	if err := h.Renderer.Render(w, status, page, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render failed", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// newPageData fills the fields every page shares.
func newPageData(r *http.Request, nav config.NavigationConfig, meta PageMeta) pageData {
	data := pageData{
		PageMeta:    meta,
		CSRFToken:   GetCSRFToken(r),
		LoginPath:   nav.LoginPath,
		LandingPath: nav.LandingPath,
	}
	if guard, ok := GuardFromContext(r.Context()); ok {
		data.Authenticated = guard.IsAuthenticated(r.Context())
		if u, ok := guard.User(r.Context()); ok && data.Authenticated {
			data.User = &u
		}
	}
	return data
}

// applyFormError turns err into form feedback and returns the status to
// answer with.
func applyFormError(data *pageData, err error) int {
	code := apperrors.GetCode(err)
	if field := apperrors.GetField(err); field != "" {
		data.FieldErrors = map[string]string{field: publicMessage(err)}
		return apperrors.HTTPStatus(code)
	}

	switch code {
	case apperrors.ErrCodeUnauthorized:
		data.Error = "Invalid email or password."
	case apperrors.ErrCodeValidation, apperrors.ErrCodeConflict:
		data.Error = publicMessage(err)
	case apperrors.ErrCodeUnavailable, apperrors.ErrCodeTimeout:
		data.Error = "The quiz service is unavailable right now. Please try again shortly."
	default:
		data.Error = "Something went wrong. Please try again."
	}
	return apperrors.HTTPStatus(code)
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
