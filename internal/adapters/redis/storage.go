package redis

// Package redis provides Redis-based storage areas for the quiz portal.

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

// DefaultKeyPrefix namespaces storage keys when no prefix is configured.
const DefaultKeyPrefix = "quizportal:storage:"

var (
	_ ports.StorageBackend = (*StorageBackend)(nil)
	_ ports.StorageArea    = (*StorageArea)(nil)
	_ ports.AtomicWriter   = (*StorageArea)(nil)
)

// StorageBackend stores each origin's entries as plain Redis strings under
// prefix + "{" + origin + "}:" + key. The braces are a cluster hash tag so
// every key of one origin lands in the same slot. Writes refresh the retention TTL so abandoned
// browser sessions eventually expire.
type StorageBackend struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// StorageBackendOptions configures a StorageBackend.
type StorageBackendOptions struct {
	// Prefix defaults to DefaultKeyPrefix.
	Prefix string
	// Retention is the TTL applied on every write; zero keeps entries forever.
	Retention time.Duration
}

// NewStorageBackend creates a Redis-backed storage backend.
func NewStorageBackend(client redis.UniversalClient, opts StorageBackendOptions) *StorageBackend {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &StorageBackend{client: client, prefix: prefix, retention: opts.Retention}
}

// Area returns the storage area for origin.
//
//nolint:ireturn // callers depend on the port, not the concrete area.
func (b *StorageBackend) Area(origin string) ports.StorageArea {
	return &StorageArea{backend: b, origin: origin}
}

// StorageArea is one origin's view of a StorageBackend.
type StorageArea struct {
	backend *StorageBackend
	origin  string
}

func (a *StorageArea) key(k string) string {
	return a.backend.prefix + "{" + a.origin + "}:" + k
}

func (a *StorageArea) GetItem(ctx context.Context, key string) (string, bool, error) {
	if a.origin == "" {
		return "", false, ports.ErrInvalidOrigin
	}
	v, err := a.backend.client.Get(ctx, a.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "redis get")
	}
	return v, true, nil
}

func (a *StorageArea) SetItem(ctx context.Context, key, value string) error {
	if a.origin == "" {
		return ports.ErrInvalidOrigin
	}
	if err := a.backend.client.Set(ctx, a.key(key), value, a.backend.retention).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "redis set")
	}
	return nil
}

// SetItems writes all entries in a single MULTI/EXEC transaction.
func (a *StorageArea) SetItems(ctx context.Context, items map[string]string) error {
	if a.origin == "" {
		return ports.ErrInvalidOrigin
	}
	if len(items) == 0 {
		return nil
	}
	_, err := a.backend.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range items {
			pipe.Set(ctx, a.key(k), v, a.backend.retention)
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "redis multi set")
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
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = a.key(k)
	}
	if err := a.backend.client.Del(ctx, full...).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "redis del")
	}
	return nil
}
