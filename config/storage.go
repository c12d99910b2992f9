package config

import (
	"fmt"
	"strings"
	"time"
)

// StorageDriver selects where per-origin session entries are kept.
type StorageDriver string

const (
	// StorageDriverMemory keeps entries in process memory (single instance, dev/test).
	StorageDriverMemory StorageDriver = "memory"
	// StorageDriverRedis keeps entries in Redis with a TTL.
	StorageDriverRedis StorageDriver = "redis"
	// StorageDriverPostgres keeps entries in the storage_items table.
	StorageDriverPostgres StorageDriver = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageDriver.
func (d *StorageDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis", "postgres":
		*d = StorageDriver(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageDriver: %q (valid options: memory, redis, postgres)", v)
	}
}

// StorageConfig controls the session storage backend.
type StorageConfig struct {
	// Driver chooses the backend implementation.
	Driver StorageDriver `env:"DRIVER" envDefault:"memory"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"quizportal:storage:"`

	// Retention bounds how long an untouched origin keeps its entries.
	// Zero keeps entries until they are removed.
	Retention time.Duration `env:"RETENTION" envDefault:"720h"` // 30 days
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize() {
	if s.Driver == "" {
		s.Driver = StorageDriverMemory
	}
	if s.Retention < 0 {
		s.Retention = 0
	}
	s.KeyPrefix = strings.TrimSpace(s.KeyPrefix)
}
