// Package postgres provides Postgres-backed storage areas for the quiz portal.
// Entries live in the storage_items table created by internal/migrate.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

var (
	_ ports.StorageBackend = (*StorageBackend)(nil)
	_ ports.StorageArea    = (*StorageArea)(nil)
	_ ports.AtomicWriter   = (*StorageArea)(nil)
)

// StorageBackend stores entries as (origin, key, value) rows. Writes stamp
// expires_at from the configured retention; expired rows read as absent and
// are removed by PurgeExpired.
type StorageBackend struct {
	db        *sql.DB
	retention time.Duration
	logger    *slog.Logger
}

// StorageBackendOptions configures a StorageBackend.
type StorageBackendOptions struct {
	// Retention is the lifetime stamped on every write; zero keeps rows forever.
	Retention time.Duration
	Logger    *slog.Logger
}

// NewStorageBackend creates a Postgres-backed storage backend.
func NewStorageBackend(db *sql.DB, opts StorageBackendOptions) *StorageBackend {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageBackend{
		db:        db,
		retention: opts.Retention,
		logger:    logger.With("component", "postgres_storage"),
	}
}

// Area returns the storage area for origin.
//
//nolint:ireturn // callers depend on the port, not the concrete area.
func (b *StorageBackend) Area(origin string) ports.StorageArea {
	return &StorageArea{backend: b, origin: origin}
}

// PurgeExpired deletes up to batchSize expired rows and reports how many
// were removed.
func (b *StorageBackend) PurgeExpired(ctx context.Context, batchSize int) (int64, error) {
	const query = `
		DELETE FROM storage_items
		WHERE ctid IN (
			SELECT ctid FROM storage_items
			WHERE expires_at IS NOT NULL AND expires_at <= now()
			LIMIT $1
		)`
	res, err := b.db.ExecContext(ctx, query, batchSize)
	if err != nil {
		return 0, fmt.Errorf("purge expired storage items: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired storage items: rows affected: %w", err)
	}
	return n, nil
}

// retentionSeconds is passed to make_interval; zero or less means no expiry.
func (b *StorageBackend) retentionSeconds() float64 {
	return b.retention.Seconds()
}

// StorageArea is one origin's view of a StorageBackend.
type StorageArea struct {
	backend *StorageBackend
	origin  string
}

const upsertItem = `
	INSERT INTO storage_items (origin, key, value, updated_at, expires_at)
	VALUES ($1, $2, $3, now(),
		CASE WHEN $4::double precision > 0 THEN now() + make_interval(secs => $4::double precision) END)
	ON CONFLICT (origin, key) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at,
		expires_at = EXCLUDED.expires_at`

func (a *StorageArea) GetItem(ctx context.Context, key string) (string, bool, error) {
	if a.origin == "" {
		return "", false, ports.ErrInvalidOrigin
	}
	const query = `
		SELECT value FROM storage_items
		WHERE origin = $1 AND key = $2
		  AND (expires_at IS NULL OR expires_at > now())`
	var v string
	err := a.backend.db.QueryRowContext(ctx, query, a.origin, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get storage item %q: %w", key, apperrors.MapDBError(err))
	}
	return v, true, nil
}

func (a *StorageArea) SetItem(ctx context.Context, key, value string) error {
	if a.origin == "" {
		return ports.ErrInvalidOrigin
	}
	if _, err := a.backend.db.ExecContext(ctx, upsertItem, a.origin, key, value, a.backend.retentionSeconds()); err != nil {
		return fmt.Errorf("set storage item %q: %w", key, apperrors.MapDBError(err))
	}
	return nil
}

// SetItems upserts every entry inside one transaction.
func (a *StorageArea) SetItems(ctx context.Context, items map[string]string) (err error) {
	if a.origin == "" {
		return ports.ErrInvalidOrigin
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := a.backend.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", apperrors.MapDBError(err))
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			a.backend.logger.ErrorContext(ctx, "failed to rollback transaction", "err", rbErr)
			err = errors.Join(err, rbErr)
		}
	}()

	secs := a.backend.retentionSeconds()
	for k, v := range items {
		if _, execErr := tx.ExecContext(ctx, upsertItem, a.origin, k, v, secs); execErr != nil {
			return fmt.Errorf("set storage item %q: %w", k, apperrors.MapDBError(execErr))
		}
	}
	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit storage items: %w", apperrors.MapDBError(commitErr))
	}
	return nil
}

func (a *StorageArea) RemoveItem(ctx context.Context, keys ...string) error {
	if a.origin == "" {
		return ports.ErrInvalidOrigin
	}
	if len(keys) == 0 {
		return nil
	}
	const query = `DELETE FROM storage_items WHERE origin = $1 AND key = ANY($2)`
	if _, err := a.backend.db.ExecContext(ctx, query, a.origin, keys); err != nil {
		return fmt.Errorf("remove storage items: %w", apperrors.MapDBError(err))
	}
	return nil
}
