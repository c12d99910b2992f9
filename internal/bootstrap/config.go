package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/evalquiz/quiz-portal/config"
)

// InitLogger initializes the structured logger at info level and installs it
// as the slog default. Call SetLogLevel once configuration is loaded.
func InitLogger() *slog.Logger {
	return newLogger(os.Stdout, slog.LevelInfo)
}

//nolint:gochecknoglobals // shared by the default logger and SetLogLevel
var logLevel = new(slog.LevelVar)

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logLevel.Set(level)
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// SetLogLevel adjusts the level of loggers created by InitLogger.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if cfg.IsDev {
		cfg.HTTP.CookieSecure = false
	}
	return cfg, nil
}

// ValidateServiceConfig validates that at least one service is enabled and
// that the enabled services can run on the configured storage driver.
func ValidateServiceConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("service config is required")
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}

	if len(services) == 0 {
		return errors.New("no services enabled")
	}

	if services[config.ServiceModeSweeper] && cfg.Storage.Driver != config.StorageDriverPostgres {
		return fmt.Errorf("sweeper requires the postgres storage driver, got %q", cfg.Storage.Driver)
	}

	if cfg.Backend.BaseURL == "" && services[config.ServiceModeHTTP] {
		return errors.New("BACKEND_BASE_URL is required for the http service")
	}

	return nil
}

// GetEnabledServices returns a sorted list of enabled service names.
func GetEnabledServices(cfg *config.AppConfig) []string {
	if cfg == nil {
		return []string{}
	}
	services, err := cfg.GetEnabledServices()
	if err != nil {
		// Return empty list on error - validation will catch this
		return []string{}
	}

	enabledServices := make([]string, 0, len(services))
	for svc := range services {
		enabledServices = append(enabledServices, string(svc))
	}
	sort.Strings(enabledServices)

	return enabledServices
}
