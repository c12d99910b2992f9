// Package backend is the HTTP client of the quiz platform REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/observability/metrics"
	"github.com/evalquiz/quiz-portal/internal/observability/statsd"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

// maxBodyBytes bounds how much of a backend response is read.
const maxBodyBytes = 4 << 20

// ErrNoToken is returned for authenticated calls made without a stored token.
var ErrNoToken = errors.New("no session token")

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL        string        // Required: API root
	Timeout        time.Duration // Optional: per-call timeout (default 10s)
	LoginTokenExpr string        // Optional: JMESPath for the token (default "token")
	LoginUserExpr  string        // Optional: JMESPath for the user (default "user")
	Transport      http.RoundTripper
	Logger         *slog.Logger
	Metrics        statsd.Sink
	// OnUnauthorized runs after a 401 cleared the session.
	OnUnauthorized func(ctx context.Context)
}

// Client talks to the quiz platform REST API on behalf of one portal instance.
// Calls that need a bearer token take the caller's ports.Session.
type Client struct {
	base           *url.URL
	timeout        time.Duration
	tokenExpr      string
	userExpr       string
	transport      http.RoundTripper
	logger         *slog.Logger
	metrics        statsd.Sink
	onUnauthorized func(ctx context.Context)
}

var (
	_ ports.AuthBackend = (*Client)(nil)
	_ ports.QuizAPI     = (*Client)(nil)
)

// NewClient validates opts and builds a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", opts.BaseURL)
	}

	c := &Client{
		base:           base,
		timeout:        opts.Timeout,
		tokenExpr:      opts.LoginTokenExpr,
		userExpr:       opts.LoginUserExpr,
		transport:      opts.Transport,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		onUnauthorized: opts.OnUnauthorized,
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if c.tokenExpr == "" {
		c.tokenExpr = "token"
	}
	if c.userExpr == "" {
		c.userExpr = "user"
	}
	for _, expr := range []string{c.tokenExpr, c.userExpr} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("invalid JMESPath %q: %w", expr, err)
		}
	}
	if c.transport == nil {
		c.transport = http.DefaultTransport
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "backend_client")
	return c, nil
}

// sessionTokenSource reads the bearer token from the session on every call.
type sessionTokenSource struct {
	ctx  context.Context
	sess ports.Session
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	tok, ok := s.sess.Token(s.ctx)
	if !ok {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

func (c *Client) httpClient(ctx context.Context, sess ports.Session) *http.Client {
	rt := c.transport
	if sess != nil {
		rt = &oauth2.Transport{Source: sessionTokenSource{ctx: ctx, sess: sess}, Base: c.transport}
	}
	return &http.Client{Transport: rt, Timeout: c.timeout}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request and decodes the JSON response into out (when non-nil).
// With a non-nil sess the call carries its bearer token, and a 401 or a
// missing token clears sess before the error is returned.
func (c *Client) do(ctx context.Context, sess ports.Session, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient(ctx, sess).Do(req)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			c.handleUnauthorized(ctx, sess, method, path)
			return apperrors.Wrap(ErrNoToken, apperrors.ErrCodeUnauthorized, "authentication required")
		}
		return c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "read backend response")
	}

	if resp.StatusCode == http.StatusUnauthorized && sess != nil {
		c.handleUnauthorized(ctx, sess, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.FromHTTPStatus(resp.StatusCode, backendMessage(raw, resp.Status))
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "decode backend response")
	}
	return nil
}

func (c *Client) handleUnauthorized(ctx context.Context, sess ports.Session, method, path string) {
	c.logger.InfoContext(ctx, "backend rejected session", "method", method, "path", path)
	metrics.EmitBackendUnauthorized(c.metrics)
	if err := sess.Logout(ctx); err != nil {
		c.logger.WarnContext(ctx, "clear session after 401 failed", "error", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

func (c *Client) transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "backend call canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "backend call timed out")
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "backend call timed out")
	}
	c.logger.WarnContext(ctx, "backend unreachable", "error", err)
	return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "backend unavailable")
}

// backendMessage pulls a human-readable message out of an error body.
func backendMessage(raw []byte, fallback string) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return fallback
}

// extractLogin picks the token and user out of a login or signup response.
func (c *Client) extractLogin(raw map[string]any) (ports.LoginResult, error) {
	tokVal, err := jmespath.Search(c.tokenExpr, raw)
	if err != nil {
		return ports.LoginResult{}, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "extract token")
	}
	tok, _ := tokVal.(string)
	if strings.TrimSpace(tok) == "" {
		return ports.LoginResult{}, apperrors.New(apperrors.ErrCodeUnavailable, "backend response carried no token")
	}

	userVal, err := jmespath.Search(c.userExpr, raw)
	if err != nil {
		return ports.LoginResult{}, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "extract user")
	}
	var user domainauth.User
	if userVal != nil {
		b, err := json.Marshal(userVal)
		if err != nil {
			return ports.LoginResult{}, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "encode user")
		}
		if err := json.Unmarshal(b, &user); err != nil {
			return ports.LoginResult{}, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "decode user")
		}
	}
	return ports.LoginResult{Token: tok, User: user}, nil
}
