package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalquiz/quiz-portal/config"
)

// fakePurger hands out the configured batch counts in order, then zero.
type fakePurger struct {
	mu         sync.Mutex
	batches    []int64
	err        error
	calls      int
	batchSizes []int
}

func (f *fakePurger) PurgeExpired(_ context.Context, batchSize int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batchSizes = append(f.batchSizes, batchSize)
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func (f *fakePurger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sweepSink struct {
	mu     sync.Mutex
	counts map[string]int64
	tags   map[string]map[string]string
}

func (s *sweepSink) Count(name string, value int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string]int64{}
		s.tags = map[string]map[string]string{}
	}
	s.counts[name] += value
	s.tags[name] = tags
}

func (s *sweepSink) Timing(string, time.Duration, map[string]string) {}

func TestNewStorageSweeper(t *testing.T) {
	t.Run("creates sweeper with valid options", func(t *testing.T) {
		svc, err := NewStorageSweeper(StorageSweeperOptions{
			Purger: &fakePurger{},
			Config: config.SweeperConfig{Interval: time.Minute, BatchSize: 100},
			Logger: slog.Default(),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("returns error when purger is nil", func(t *testing.T) {
		_, err := NewStorageSweeper(StorageSweeperOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ExpiredItemPurger is required")
	})
}

func TestStorageSweeper_sweep(t *testing.T) {
	t.Run("drains batches until empty", func(t *testing.T) {
		purger := &fakePurger{batches: []int64{100, 100, 7}}
		sink := &sweepSink{}
		svc, err := NewStorageSweeper(StorageSweeperOptions{
			Purger:  purger,
			Config:  config.SweeperConfig{Interval: time.Minute, BatchSize: 100},
			Metrics: sink,
		})
		require.NoError(t, err)

		require.NoError(t, svc.sweep(context.Background()))
		assert.Equal(t, 4, purger.calls)
		assert.Equal(t, []int{100, 100, 100, 100}, purger.batchSizes)
		assert.Equal(t, int64(207), sink.counts["storage.swept_items"])
		assert.Equal(t, "success", sink.tags["storage.sweep"]["result"])
	})

	t.Run("reports noop when nothing expired", func(t *testing.T) {
		sink := &sweepSink{}
		svc, _ := NewStorageSweeper(StorageSweeperOptions{
			Purger:  &fakePurger{},
			Config:  config.SweeperConfig{Interval: time.Minute, BatchSize: 10},
			Metrics: sink,
		})

		require.NoError(t, svc.sweep(context.Background()))
		assert.Equal(t, "noop", sink.tags["storage.sweep"]["result"])
		assert.Zero(t, sink.counts["storage.swept_items"])
	})

	t.Run("wraps purge errors", func(t *testing.T) {
		sink := &sweepSink{}
		svc, _ := NewStorageSweeper(StorageSweeperOptions{
			Purger:  &fakePurger{err: errors.New("boom")},
			Config:  config.SweeperConfig{Interval: time.Minute, BatchSize: 10},
			Metrics: sink,
		})

		err := svc.sweep(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sweep expired entries")
		assert.Equal(t, "error", sink.tags["storage.sweep"]["result"])
	})

	t.Run("stops between batches when cancelled", func(t *testing.T) {
		purger := &fakePurger{batches: []int64{5, 5, 5}}
		svc, _ := NewStorageSweeper(StorageSweeperOptions{
			Purger: purger,
			Config: config.SweeperConfig{Interval: time.Minute, BatchSize: 5},
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := svc.sweep(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, purger.calls)
	})
}

func TestStorageSweeper_Run(t *testing.T) {
	t.Run("stops on context cancellation", func(t *testing.T) {
		purger := &fakePurger{}
		svc, _ := NewStorageSweeper(StorageSweeperOptions{
			Purger: purger,
			Config: config.SweeperConfig{Interval: 100 * time.Millisecond, BatchSize: 10},
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- svc.Run(ctx)
		}()

		time.Sleep(150 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(1 * time.Second):
			t.Fatal("Run did not stop after context cancellation")
		}
		assert.GreaterOrEqual(t, purger.callCount(), 1)
	})

	t.Run("continues running despite sweep errors", func(t *testing.T) {
		purger := &fakePurger{err: errors.New("db down")}
		svc, _ := NewStorageSweeper(StorageSweeperOptions{
			Purger: purger,
			Config: config.SweeperConfig{Interval: 50 * time.Millisecond, BatchSize: 10},
			Logger: slog.Default(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		err := svc.Run(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.GreaterOrEqual(t, purger.callCount(), 2)
	})
}
