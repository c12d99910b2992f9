package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "single service - sweeper",
			input:    "sweeper",
			expected: map[ServiceMode]bool{ServiceModeSweeper: true},
		},
		{
			name:  "services with spaces",
			input: " http , sweeper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeSweeper: true,
			},
		},
		{
			name:  "duplicate services",
			input: "http,http,sweeper",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeSweeper: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only spaces and commas",
			input:       " , , ",
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "http,reaper",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("expected %d services, got %d", len(tt.expected), len(result))
				return
			}

			for service, expected := range tt.expected {
				if result[service] != expected {
					t.Errorf("expected service %s to be %v, got %v", service, expected, result[service])
				}
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	tests := []struct {
		services    string
		wantHTTP    bool
		wantSweeper bool
	}{
		{services: "http", wantHTTP: true},
		{services: "sweeper", wantSweeper: true},
		{services: "http,sweeper", wantHTTP: true, wantSweeper: true},
		{services: "invalid-service"},
	}

	for _, tt := range tests {
		t.Run(tt.services, func(t *testing.T) {
			cfg := AppConfig{Services: tt.services}
			if cfg.IsHTTPServerEnabled() != tt.wantHTTP {
				t.Errorf("IsHTTPServerEnabled(): expected %v", tt.wantHTTP)
			}
			if cfg.IsSweeperEnabled() != tt.wantSweeper {
				t.Errorf("IsSweeperEnabled(): expected %v", tt.wantSweeper)
			}
		})
	}
}

func TestAppConfig_ParseDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg.Sanitize()

	if cfg.Navigation.LoginPath != "/login" || cfg.Navigation.LandingPath != "/dashboard" {
		t.Fatalf("unexpected navigation defaults: %+v", cfg.Navigation)
	}
	if cfg.Storage.Driver != StorageDriverMemory {
		t.Fatalf("expected memory driver by default, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Retention != 720*time.Hour {
		t.Fatalf("unexpected retention: %v", cfg.Storage.Retention)
	}
	if cfg.Backend.LoginTokenExpr != "token" || cfg.Backend.LoginUserExpr != "user" {
		t.Fatalf("unexpected backend expressions: %+v", cfg.Backend)
	}
	if !cfg.IsHTTPServerEnabled() || cfg.IsSweeperEnabled() {
		t.Fatalf("expected only http by default")
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("NAV_LOGIN_PATH", "/signin")
	t.Setenv("NAV_LANDING_PATH", "/home")
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("STORAGE_RETENTION", "1h")
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/api/")
	t.Setenv("BACKEND_LOGIN_TOKEN_EXPR", "data.accessToken")
	t.Setenv("DB_NAME", "portal")
	t.Setenv("REDIS_USE_CLUSTER", "true")
	t.Setenv("REDIS_CLUSTER_NODES", "a:7000,b:7000")
	t.Setenv("SERVICES", "http,sweeper")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg.Sanitize()

	if cfg.Navigation.LoginPath != "/signin" || cfg.Navigation.LandingPath != "/home" {
		t.Fatalf("unexpected navigation: %+v", cfg.Navigation)
	}
	if cfg.Storage.Driver != StorageDriverRedis {
		t.Fatalf("expected redis driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Retention != time.Hour {
		t.Fatalf("unexpected retention: %v", cfg.Storage.Retention)
	}
	if cfg.Backend.BaseURL != "https://api.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.LoginTokenExpr != "data.accessToken" {
		t.Fatalf("unexpected token expr: %q", cfg.Backend.LoginTokenExpr)
	}
	if cfg.Postgres.Name != "portal" {
		t.Fatalf("unexpected db name: %q", cfg.Postgres.Name)
	}
	if !cfg.Redis.UseCluster || len(cfg.Redis.ClusterNodes) != 2 {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
	if !cfg.IsSweeperEnabled() {
		t.Fatalf("expected sweeper enabled")
	}
}

func TestAppConfig_ParseRejectsUnknownStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "localstorage")

	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatalf("expected error for unknown storage driver")
	}
}

func TestNavigationConfig_Sanitize(t *testing.T) {
	cfg := NavigationConfig{LoginPath: "https://evil.example/login", LandingPath: "//evil.example"}
	cfg.Sanitize()
	if cfg.LoginPath != "/login" || cfg.LandingPath != "/dashboard" {
		t.Fatalf("expected absolute targets to fall back, got %+v", cfg)
	}

	cfg = NavigationConfig{LoginPath: " /auth/login ", LandingPath: "/quizzes"}
	cfg.Sanitize()
	if cfg.LoginPath != "/auth/login" || cfg.LandingPath != "/quizzes" {
		t.Fatalf("unexpected paths: %+v", cfg)
	}
}

func TestSweeperConfig_Sanitize(t *testing.T) {
	cfg := SweeperConfig{Interval: time.Second, BatchSize: 0}
	cfg.Sanitize()
	if cfg.Interval != time.Minute {
		t.Fatalf("expected interval clamped to 1m, got %v", cfg.Interval)
	}
	if cfg.BatchSize != 1 {
		t.Fatalf("expected batch size clamped to 1, got %d", cfg.BatchSize)
	}

	cfg = SweeperConfig{Interval: time.Hour, BatchSize: 50000}
	cfg.Sanitize()
	if cfg.BatchSize != 10000 {
		t.Fatalf("expected batch size clamped to 10000, got %d", cfg.BatchSize)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{CompressionLevel: 0}
	cfg.Sanitize()
	if cfg.CompressionLevel != 1 {
		t.Fatalf("expected level 1, got %d", cfg.CompressionLevel)
	}
	cfg = HTTPConfig{CompressionLevel: 12}
	cfg.Sanitize()
	if cfg.CompressionLevel != 9 {
		t.Fatalf("expected level 9, got %d", cfg.CompressionLevel)
	}
}

func TestDBConfig_DSN(t *testing.T) {
	cfg := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", Name: "quiz", SSLMode: "disable"}
	want := "postgres://u:p%40ss@db:5432/quiz?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}

func TestObservabilityConfig_SlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", " WARN ": "WARN", "error": "ERROR", "": "INFO", "loud": "INFO"} {
		cfg := ObservabilityConfig{LogLevel: in}
		cfg.Sanitize()
		if got := cfg.SlogLevel().String(); got != want {
			t.Fatalf("SlogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
