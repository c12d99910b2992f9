package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/evalquiz/quiz-portal/config"
	"github.com/evalquiz/quiz-portal/internal/adapters/memstore"
	"github.com/evalquiz/quiz-portal/internal/adapters/postgres"
	redisstore "github.com/evalquiz/quiz-portal/internal/adapters/redis"
	httpx "github.com/evalquiz/quiz-portal/internal/http"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

// Infrastructure holds the connections opened for the configured storage
// driver. Fields for drivers that are not in use stay nil.
type Infrastructure struct {
	DB    *sql.DB
	Redis redis.UniversalClient
}

// OpenInfrastructure connects whatever the storage driver needs and applies
// migrations when the postgres driver is selected and migrations are enabled.
func OpenInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Infrastructure, error) {
	if cfg == nil {
		return nil, errors.New("app config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}
	infra := &Infrastructure{}

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := ConnectDB(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		infra.DB = db

		if !cfg.Postgres.RunMigrationsOnStart {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
			return infra, nil
		}
		if err := RunMigrations(ctx, db, logger); err != nil {
			return nil, errors.Join(err, infra.Close())
		}
	case config.StorageDriverRedis:
		client, err := ConnectRedis(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		infra.Redis = client
	case config.StorageDriverMemory:
		logger.WarnContext(ctx, "using in-memory session storage; sessions are lost on restart and not shared between instances")
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	return infra, nil
}

// Close releases every open connection.
func (i *Infrastructure) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Storage is the session storage selected by configuration.
type Storage struct {
	Backend ports.StorageBackend
	// Purger is set when the backend keeps expired entries until swept.
	Purger       ports.ExpiredItemPurger
	HealthChecks map[string]httpx.HealthCheck
}

// BuildStorage wires the storage backend for cfg.Driver on top of infra.
func BuildStorage(cfg config.StorageConfig, infra *Infrastructure, logger *slog.Logger) (Storage, error) {
	if infra == nil {
		infra = &Infrastructure{}
	}

	switch cfg.Driver {
	case config.StorageDriverPostgres:
		if infra.DB == nil {
			return Storage{}, errors.New("postgres storage requires a database connection")
		}
		backend := postgres.NewStorageBackend(infra.DB, postgres.StorageBackendOptions{
			Retention: cfg.Retention,
			Logger:    logger,
		})
		db := infra.DB
		return Storage{
			Backend:      backend,
			Purger:       backend,
			HealthChecks: map[string]httpx.HealthCheck{"postgres": db.PingContext},
		}, nil

	case config.StorageDriverRedis:
		if infra.Redis == nil {
			return Storage{}, errors.New("redis storage requires a redis connection")
		}
		client := infra.Redis
		return Storage{
			Backend: redisstore.NewStorageBackend(client, redisstore.StorageBackendOptions{
				Prefix:    cfg.KeyPrefix,
				Retention: cfg.Retention,
			}),
			HealthChecks: map[string]httpx.HealthCheck{
				"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
			},
		}, nil

	case config.StorageDriverMemory, "":
		return Storage{Backend: memstore.NewBackend()}, nil

	default:
		return Storage{}, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
