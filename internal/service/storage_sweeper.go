package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evalquiz/quiz-portal/config"
	"github.com/evalquiz/quiz-portal/internal/observability/metrics"
	"github.com/evalquiz/quiz-portal/internal/observability/statsd"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

// StorageSweeperOptions groups dependencies for StorageSweeper.
type StorageSweeperOptions struct {
	Purger  ports.ExpiredItemPurger // Required: storage backend that keeps expired rows
	Config  config.SweeperConfig    // Required: sweeper configuration
	Logger  *slog.Logger            // Optional: structured logger
	Metrics statsd.Sink             // Optional: metrics sink (StatsD-compatible)
}

// StorageSweeper deletes storage entries whose retention has lapsed.
// Reads already ignore expired entries; sweeping only reclaims space.
type StorageSweeper struct {
	purger  ports.ExpiredItemPurger
	config  config.SweeperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewStorageSweeper constructs a new StorageSweeper.
func NewStorageSweeper(opts StorageSweeperOptions) (*StorageSweeper, error) {
	if opts.Purger == nil {
		return nil, errors.New("ExpiredItemPurger is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "storage_sweeper")
		logger.Debug("StorageSweeper initialized",
			"interval", opts.Config.Interval,
			"batch_size", opts.Config.BatchSize,
		)
	}

	return &StorageSweeper{
		purger:  opts.Purger,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *StorageSweeper) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting storage sweeper", "interval", s.config.Interval)
	}

	// Spread instances that start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.sweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter sleeps a random delay up to 10% of the interval.
func (s *StorageSweeper) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *StorageSweeper) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "storage sweeper stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logSweepError(err, "sweep")
			}
		}
	}
}

// sweep purges expired entries batch by batch until a batch comes back empty.
func (s *StorageSweeper) sweep(ctx context.Context) error {
	start := time.Now()
	total, err := s.purgeAll(ctx)
	metrics.EmitSweep(s.metrics, total, time.Since(start), suppressContextCancellation(err))

	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "swept expired storage entries", "count", total)
	}
	if err != nil {
		if isContextCancellation(err) {
			return err
		}
		return fmt.Errorf("sweep expired entries: %w", err)
	}
	return nil
}

func (s *StorageSweeper) purgeAll(ctx context.Context) (int64, error) {
	var total int64
	for {
		count, err := s.purger.PurgeExpired(ctx, s.config.BatchSize)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			return total, nil
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}

func (s *StorageSweeper) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
