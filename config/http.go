package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for the storage origin and CSRF cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure marks portal cookies Secure. Forced off in dev mode by bootstrap.
	CookieSecure bool `env:"APP_COOKIE_SECURE" envDefault:"true"`

	// CompressionEnabled enables gzip compression for text responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	// Default is 6 (standard gzip default).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
}

// NavigationConfig holds the two redirect targets every guard agrees on.
type NavigationConfig struct {
	// LoginPath is where unauthenticated visitors and logouts land.
	LoginPath string `env:"LOGIN_PATH" envDefault:"/login"`

	// LandingPath is where authenticated users without the required role land.
	LandingPath string `env:"LANDING_PATH" envDefault:"/dashboard"`
}

// Sanitize forces both paths to be site-relative.
func (n *NavigationConfig) Sanitize() {
	n.LoginPath = relativePath(n.LoginPath, "/login")
	n.LandingPath = relativePath(n.LandingPath, "/dashboard")
}

func relativePath(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return fallback
	}
	return p
}
