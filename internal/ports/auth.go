package ports

// Package ports defines interfaces (hexagonal ports) for session and auth behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"encoding/json"
	"errors"

	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
)

// Storage keys of the two session entries. The user entry holds JSON.
const (
	StorageKeyToken = "token"
	StorageKeyUser  = "user"
)

// StorageArea is a string key-value store scoped to a single storage origin
// (one browser). It mirrors the browser's localStorage surface.
type StorageArea interface {
	// GetItem returns the value stored under key. A missing key is reported
	// with ok == false and a nil error.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes the given keys. Missing keys are not an error.
	RemoveItem(ctx context.Context, keys ...string) error
}

// AtomicWriter is implemented by storage areas that can write several entries
// so that either all or none become visible.
type AtomicWriter interface {
	SetItems(ctx context.Context, items map[string]string) error
}

// StorageBackend hands out storage areas by origin id.
type StorageBackend interface {
	Area(origin string) StorageArea
}

// ErrInvalidOrigin is returned by storage areas built for an empty origin.
var ErrInvalidOrigin = errors.New("storage origin is required")

// Credentials are the inputs of a password login.
type Credentials struct {
	Email    string
	Password string
}

// SignupInput carries the fields of a self-service account creation.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Role     domainauth.Role
}

// LoginResult is what the backend hands out on a successful login.
type LoginResult struct {
	Token string
	User  domainauth.User
}

// AuthBackend is the authentication surface of the quiz platform REST API.
type AuthBackend interface {
	Login(ctx context.Context, in Credentials) (LoginResult, error)
	Signup(ctx context.Context, in SignupInput) (LoginResult, error)
}

// ExpiredItemPurger is implemented by storage backends that keep expired
// entries around until they are swept.
type ExpiredItemPurger interface {
	// PurgeExpired removes up to batchSize expired entries and returns the count.
	PurgeExpired(ctx context.Context, batchSize int) (int64, error)
}

// Session is the view of a browser session that outbound API calls need:
// the bearer token to send, and a way to drop the session when the backend
// rejects it. service.SessionGuard implements it.
type Session interface {
	Token(ctx context.Context) (string, bool)
	Logout(ctx context.Context) error
}

// QuizSubmission is a completed quiz sent for grading. Answers is the JSON
// array of {question_index, answer_text} entries the backend grades.
type QuizSubmission struct {
	TemplateID string          `json:"template_id"`
	SessionID  string          `json:"session_id,omitempty"`
	Answers    json.RawMessage `json:"answers"`
}

// QuizAPI is the surface of the quiz platform REST API used by portal pages.
// Responses are passed through as raw JSON.
type QuizAPI interface {
	ForgotPassword(ctx context.Context, email string) error
	Profile(ctx context.Context, sess Session) (json.RawMessage, error)
	Templates(ctx context.Context, sess Session, subject, course string) (json.RawMessage, error)
	Template(ctx context.Context, sess Session, id string) (json.RawMessage, error)
	Quiz(ctx context.Context, sess Session, templateID string) (json.RawMessage, error)
	UserReports(ctx context.Context, sess Session, userID domainauth.UserID) (json.RawMessage, error)
	AllReports(ctx context.Context, sess Session) (json.RawMessage, error)
	Users(ctx context.Context, sess Session) (json.RawMessage, error)
	SubmitQuiz(ctx context.Context, sess Session, in QuizSubmission) (json.RawMessage, error)
	Results(ctx context.Context, sess Session, userID domainauth.UserID) (json.RawMessage, error)
	TemplateReports(ctx context.Context, sess Session, templateID string) (json.RawMessage, error)
	UpdateUserRole(ctx context.Context, sess Session, userID domainauth.UserID, role domainauth.Role) (json.RawMessage, error)
	UsageLogs(ctx context.Context, sess Session) (json.RawMessage, error)
}
