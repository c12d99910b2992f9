package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/evalquiz/quiz-portal/config"
	"github.com/evalquiz/quiz-portal/internal/adapters/backend"
	"github.com/evalquiz/quiz-portal/internal/observability/statsd"
	"github.com/evalquiz/quiz-portal/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions *service.Sessions
	Backend  *backend.Client
	Auth     *service.AuthService
	// Sweeper is nil unless the sweeper service is enabled.
	Sweeper *service.StorageSweeper
	Storage Storage
	Metrics *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Infra  *Infrastructure
	Logger *slog.Logger
}

// buildMetrics returns a statsd client; a disabled client is returned when
// metrics are off or the agent cannot be reached.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		client, _ := statsd.NewClient(statsd.Config{Logger: logger})
		return client
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		client, _ = statsd.NewClient(statsd.Config{Logger: logger})
	}
	return client
}

// NewServices wires storage, the backend client and the session services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metricsSink := buildMetrics(logger, cfg.Observability.Metrics)

	storage, err := BuildStorage(cfg.Storage, deps.Infra, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build storage: %w", err)
	}

	sessions, err := service.NewSessions(service.SessionsOptions{
		Backend: storage.Backend,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build sessions: %w", err)
	}

	client, err := backend.NewClient(backend.ClientOptions{
		BaseURL:        cfg.Backend.BaseURL,
		Timeout:        cfg.Backend.Timeout,
		LoginTokenExpr: cfg.Backend.LoginTokenExpr,
		LoginUserExpr:  cfg.Backend.LoginUserExpr,
		Logger:         logger,
		Metrics:        metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build backend client: %w", err)
	}

	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Backend: client,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	container := ServiceContainer{
		Sessions: sessions,
		Backend:  client,
		Auth:     auth,
		Storage:  storage,
		Metrics:  metricsSink,
	}

	if cfg.IsSweeperEnabled() {
		if storage.Purger == nil {
			return ServiceContainer{}, fmt.Errorf("sweeper is not supported by the %q storage driver", cfg.Storage.Driver)
		}
		sweeper, sweepErr := service.NewStorageSweeper(service.StorageSweeperOptions{
			Purger:  storage.Purger,
			Config:  cfg.Sweeper,
			Logger:  logger,
			Metrics: metricsSink,
		})
		if sweepErr != nil {
			return ServiceContainer{}, fmt.Errorf("build sweeper: %w", sweepErr)
		}
		container.Sweeper = sweeper
	}

	return container, nil
}

// ServiceOrchestrationConfig contains dependencies for running services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts every enabled service and blocks until ctx
// is cancelled or one of them fails; the remaining services are then
// stopped gracefully.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	if enabled[config.ServiceModeSweeper] && cfg.Services.Sweeper == nil {
		return errors.New("sweeper service enabled but not built")
	}

	g, gctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		server, serverErr := NewHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
		if serverErr != nil {
			return serverErr
		}
		g.Go(func() error { return serveHTTP(gctx, server, logger) })
	}

	if enabled[config.ServiceModeSweeper] {
		sweeper := cfg.Services.Sweeper
		g.Go(func() error {
			logger.InfoContext(gctx, "starting storage sweeper",
				"interval", cfg.Config.Sweeper.Interval,
				"batch_size", cfg.Config.Sweeper.BatchSize)
			if runErr := sweeper.Run(gctx); runErr != nil {
				return fmt.Errorf("storage sweeper: %w", runErr)
			}
			logger.InfoContext(gctx, "storage sweeper stopped")
			return nil
		})
	}

	return g.Wait()
}

// serveHTTP runs server until ctx is done, then shuts it down.
func serveHTTP(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	return ShutdownHTTPServer(ShutdownConfig{
		Context: context.WithoutCancel(ctx),
		Server:  server,
		Logger:  logger,
	})
}
