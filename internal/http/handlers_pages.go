package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/evalquiz/quiz-portal/config"
	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

// PageHandlers serves the portal pages backed by the quiz platform API.
// Browsers get the page; API clients get the backend payload as is.
type PageHandlers struct {
	API        ports.QuizAPI
	Navigation config.NavigationConfig
	Renderer   *TemplateRenderer
	Logger     *slog.Logger
}

type fetchFunc func(ctx context.Context, sess ports.Session) (json.RawMessage, error)

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Dashboard lists quiz templates, optionally filtered by subject and course.
// GET /dashboard?subject=&course=.
func (h *PageHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.show(w, r, PageMeta{Title: "Dashboard", CurrentPage: "dashboard"}, func(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
		return h.API.Templates(ctx, sess, q.Get("subject"), q.Get("course"))
	})
}

// Template shows one quiz template.
// GET /templates/{templateID}.
func (h *PageHandlers) Template(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("templateID")
	h.show(w, r, PageMeta{Title: "Template", CurrentPage: "template"}, func(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
		return h.API.Template(ctx, sess, id)
	})
}

// Quiz loads the quiz generated from a template.
// GET /quiz/{templateID}.
func (h *PageHandlers) Quiz(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("templateID")
	h.show(w, r, PageMeta{Title: "Quiz", CurrentPage: "quiz"}, func(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
		return h.API.Quiz(ctx, sess, id)
	})
}

// Profile shows the visitor's profile.
// GET /profile.
func (h *PageHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, PageMeta{Title: "Profile", CurrentPage: "profile"}, h.API.Profile)
}

// MyReports lists the visitor's own quiz reports.
// GET /reports.
func (h *PageHandlers) MyReports(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, PageMeta{Title: "My reports", CurrentPage: "reports"}, func(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
		id := currentUserID(ctx, r)
		if id == "" {
			return nil, apperrors.Validation("Your session does not identify a user")
		}
		return h.API.UserReports(ctx, sess, id)
	})
}

// AllReports lists every user's reports.
// GET /reports/all (admin, tutor).
func (h *PageHandlers) AllReports(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, PageMeta{Title: "All reports", CurrentPage: "reports_all"}, h.API.AllReports)
}

// Users lists platform accounts.
// GET /admin/users (admin).
func (h *PageHandlers) Users(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, PageMeta{Title: "Users", CurrentPage: "admin_users"}, h.API.Users)
}

// Results lists the visitor's graded quiz results.
// GET /results.
func (h *PageHandlers) Results(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, PageMeta{Title: "Results", CurrentPage: "results"}, func(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
		id := currentUserID(ctx, r)
		if id == "" {
			return nil, apperrors.Validation("Your session does not identify a user")
		}
		return h.API.Results(ctx, sess, id)
	})
}

// TemplateReports lists the reports submitted against one template.
// GET /reports/template/{templateID} (admin, tutor).
func (h *PageHandlers) TemplateReports(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("templateID")
	h.show(w, r, PageMeta{Title: "Template reports", CurrentPage: "reports_template"}, func(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
		return h.API.TemplateReports(ctx, sess, id)
	})
}

// UsageLogs shows recent admin and user activity.
// GET /admin/logs (admin).
func (h *PageHandlers) UsageLogs(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, PageMeta{Title: "Usage logs", CurrentPage: "admin_logs"}, h.API.UsageLogs)
}

// SubmitQuiz sends the visitor's answers for grading and shows the result.
// POST /quiz/submit (form) and POST /api/quiz/submit (JSON). The form carries
// the answers array as JSON text in its answers field.
func (h *PageHandlers) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var in ports.QuizSubmission
	if isJSONBody(r) {
		if !DecodeJSON(w, r, &in) {
			return
		}
	} else {
		in.TemplateID = r.PostFormValue("template_id")
		in.SessionID = r.PostFormValue("session_id")
		if answers := r.PostFormValue("answers"); answers != "" {
			in.Answers = json.RawMessage(answers)
		}
	}

	h.show(w, r, PageMeta{Title: "Quiz result", CurrentPage: "quiz_result"}, func(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
		return h.API.SubmitQuiz(ctx, sess, in)
	})
}

type roleUpdateRequest struct {
	Role string `json:"role"`
}

// UpdateUserRole changes an account's role. Browsers return to the user list.
// POST /admin/users/{userID}/role (form) and PUT /api/admin/users/{userID}/role
// (JSON), admin only.
func (h *PageHandlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req roleUpdateRequest
	if isJSONBody(r) {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		req.Role = r.PostFormValue("role")
	}

	guard, ok := GuardFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "session_unavailable", Err: errNoSession})
		return
	}

	role, err := domainauth.ParseRole(req.Role)
	if err != nil {
		h.backendError(w, r, apperrors.ValidationField("role", "Valid role is required (student, tutor, admin)"))
		return
	}
	userID := domainauth.UserID(r.PathValue("userID"))
	payload, err := h.API.UpdateUserRole(r.Context(), guard, userID, role)
	if err != nil {
		h.backendError(w, r, err)
		return
	}

	h.logger().InfoContext(r.Context(), "user role updated", "user_id", userID, "role", role)
	if wantsJSON(r) {
		writeRawJSON(w, payload)
		return
	}
	HardRedirect(w, r, "/admin/users")
}

// show fetches a payload with the visitor's session and answers with it.
func (h *PageHandlers) show(w http.ResponseWriter, r *http.Request, meta PageMeta, fetch fetchFunc) {
	guard, ok := GuardFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "session_unavailable", Err: errNoSession})
		return
	}

	payload, err := fetch(r.Context(), guard)
	if err != nil {
		h.backendError(w, r, err)
		return
	}

	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	if wantsJSON(r) {
		writeRawJSON(w, payload)
		return
	}

	data := newPageData(r, h.Navigation, meta)
	data.Data = payload
	h.render(w, r, http.StatusOK, PageData, data)
}

// backendError answers a failed backend call. A 401 has already cleared the
// session, so the visitor is sent to log in again.
func (h *PageHandlers) backendError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	if code == apperrors.ErrCodeUnauthorized {
		if IsBrowserRequest(r) {
			HardRedirect(w, r, loginURL(h.Navigation.LoginPath, redirectPathForRequest(r)))
			return
		}
		WriteAppError(w, err)
		return
	}

	if code == "" || code == apperrors.ErrCodeInternal {
		h.logger().ErrorContext(r.Context(), "backend request failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger().InfoContext(r.Context(), "backend request rejected", "path", r.URL.Path, "error_code", code)
	}

	if wantsJSON(r) {
		WriteAppError(w, err)
		return
	}
	data := newPageData(r, h.Navigation, PageMeta{Title: http.StatusText(apperrors.HTTPStatus(code)), CurrentPage: PageError})
	data.Error = publicMessage(err)
	h.render(w, r, apperrors.HTTPStatus(code), PageError, data)
}

// writeRawJSON answers 200 with a backend payload as is.
func writeRawJSON(w http.ResponseWriter, payload json.RawMessage) {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	if err := h.Renderer.Render(w, status, page, data); err != nil {
		h.logger().ErrorContext(r.Context(), "render failed", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// currentUserID returns the id of the stored user, falling back to the
// token's subject claim for sessions stored without one.
func currentUserID(ctx context.Context, r *http.Request) domainauth.UserID {
	guard, ok := GuardFromContext(r.Context())
	if !ok {
		return ""
	}
	if u, ok := guard.User(ctx); ok && u.ID != "" {
		return u.ID
	}
	token, ok := guard.Token(ctx)
	if !ok {
		return ""
	}
	claims, err := domainauth.DecodeClaims(token)
	if err != nil {
		return ""
	}
	return domainauth.UserID(claims.Subject)
}
