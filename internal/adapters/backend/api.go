package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, in ports.Credentials) (ports.LoginResult, error) {
	var raw map[string]any
	body := map[string]string{"email": in.Email, "password": in.Password}
	if err := c.do(ctx, nil, http.MethodPost, "/auth/login", nil, body, &raw); err != nil {
		return ports.LoginResult{}, err
	}
	return c.extractLogin(raw)
}

// Signup creates an account and returns its session. The role defaults to student.
func (c *Client) Signup(ctx context.Context, in ports.SignupInput) (ports.LoginResult, error) {
	role := in.Role
	if role == "" {
		role = domainauth.RoleStudent
	}
	body := map[string]string{
		"email":    in.Email,
		"password": in.Password,
		"name":     in.Name,
		"role":     string(role),
	}
	var raw map[string]any
	if err := c.do(ctx, nil, http.MethodPost, "/auth/signup", nil, body, &raw); err != nil {
		return ports.LoginResult{}, err
	}
	return c.extractLogin(raw)
}

// ForgotPassword asks the backend to send a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.ValidationField("email", "Email is required")
	}
	return c.do(ctx, nil, http.MethodPost, "/auth/forgot-password", nil, map[string]string{"email": email}, nil)
}

// Profile returns the caller's profile.
func (c *Client) Profile(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/profile", nil, nil, &out)
	return out, err
}

// Templates lists quiz templates, optionally filtered by subject and course.
func (c *Client) Templates(ctx context.Context, sess ports.Session, subject, course string) (json.RawMessage, error) {
	q := url.Values{}
	if subject != "" {
		q.Set("subject", subject)
	}
	if course != "" {
		q.Set("course", course)
	}
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/templates", q, nil, &out)
	return out, err
}

// Template fetches one quiz template.
func (c *Client) Template(ctx context.Context, sess ports.Session, id string) (json.RawMessage, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationField("id", "Template id is required")
	}
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/templates/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// Quiz fetches the playable quiz generated from a template.
func (c *Client) Quiz(ctx context.Context, sess ports.Session, templateID string) (json.RawMessage, error) {
	if strings.TrimSpace(templateID) == "" {
		return nil, apperrors.ValidationField("id", "Template id is required")
	}
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/quiz/"+url.PathEscape(templateID), nil, nil, &out)
	return out, err
}

// UserReports lists the reports of one user.
func (c *Client) UserReports(ctx context.Context, sess ports.Session, userID domainauth.UserID) (json.RawMessage, error) {
	if userID == "" {
		return nil, apperrors.ValidationField("user_id", "User id is required")
	}
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/reports/user/"+url.PathEscape(string(userID)), nil, nil, &out)
	return out, err
}

// AllReports lists every report. The backend restricts it to admins and tutors.
func (c *Client) AllReports(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/reports/all", nil, nil, &out)
	return out, err
}

// Users lists platform accounts. Admin only.
func (c *Client) Users(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/admin/users", nil, nil, &out)
	return out, err
}

// SubmitQuiz sends a completed quiz for grading and returns the graded result.
func (c *Client) SubmitQuiz(ctx context.Context, sess ports.Session, in ports.QuizSubmission) (json.RawMessage, error) {
	in.TemplateID = strings.TrimSpace(in.TemplateID)
	if in.TemplateID == "" {
		return nil, apperrors.ValidationField("template_id", "Template ID is required")
	}
	answers := bytes.TrimSpace(in.Answers)
	if len(answers) == 0 {
		return nil, apperrors.ValidationField("answers", "Answers are required")
	}
	var list []json.RawMessage
	if err := json.Unmarshal(answers, &list); err != nil {
		return nil, apperrors.ValidationField("answers", "Answers must be a JSON array")
	}
	if len(list) == 0 {
		return nil, apperrors.ValidationField("answers", "Answers are required")
	}
	in.Answers = answers

	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodPost, "/quiz/submit", nil, in, &out)
	return out, err
}

// Results lists the graded quiz results of one user.
func (c *Client) Results(ctx context.Context, sess ports.Session, userID domainauth.UserID) (json.RawMessage, error) {
	if userID == "" {
		return nil, apperrors.ValidationField("user_id", "User id is required")
	}
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/quiz/results/"+url.PathEscape(string(userID)), nil, nil, &out)
	return out, err
}

// TemplateReports lists the reports submitted against one template.
func (c *Client) TemplateReports(ctx context.Context, sess ports.Session, templateID string) (json.RawMessage, error) {
	if strings.TrimSpace(templateID) == "" {
		return nil, apperrors.ValidationField("id", "Template id is required")
	}
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/reports/template/"+url.PathEscape(templateID), nil, nil, &out)
	return out, err
}

// UpdateUserRole changes the role of an account. Admin only.
func (c *Client) UpdateUserRole(ctx context.Context, sess ports.Session, userID domainauth.UserID, role domainauth.Role) (json.RawMessage, error) {
	if userID == "" {
		return nil, apperrors.ValidationField("user_id", "User id is required")
	}
	if !role.Valid() {
		return nil, apperrors.ValidationField("role", "Valid role is required (student, tutor, admin)")
	}
	body := map[string]string{"role": string(role)}
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodPut, "/admin/users/"+url.PathEscape(string(userID))+"/role", nil, body, &out)
	return out, err
}

// UsageLogs returns recent admin and user activity. Admin only.
func (c *Client) UsageLogs(ctx context.Context, sess ports.Session) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, sess, http.MethodGet, "/admin/logs", nil, nil, &out)
	return out, err
}
