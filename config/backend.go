package config

import (
	"strings"
	"time"
)

// BackendConfig points the portal at the quiz platform REST API.
type BackendConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:5000/api".
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:5000/api"`

	// Timeout bounds every backend call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// LoginTokenExpr is the JMESPath expression selecting the bearer token
	// from a login or signup response body.
	LoginTokenExpr string `env:"LOGIN_TOKEN_EXPR" envDefault:"token"`

	// LoginUserExpr is the JMESPath expression selecting the user record.
	LoginUserExpr string `env:"LOGIN_USER_EXPR" envDefault:"user"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if b.Timeout <= 0 {
		b.Timeout = 10 * time.Second
	}
	if strings.TrimSpace(b.LoginTokenExpr) == "" {
		b.LoginTokenExpr = "token"
	}
	if strings.TrimSpace(b.LoginUserExpr) == "" {
		b.LoginUserExpr = "user"
	}
}
