package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	domain "github.com/anushka-codergirl/workoutwise/internal/domain/storage"
)

// Janitor deletes objects in the background. The response path never waits on
// it; Wait is for shutdown and tests.
type Janitor struct {
	store   domain.Store
	logger  *slog.Logger
	timeout time.Duration

	wg      sync.WaitGroup
	removed atomic.Uint64
	failed  atomic.Uint64
}

func NewJanitor(store domain.Store, logger *slog.Logger, timeout time.Duration) *Janitor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{store: store, logger: logger, timeout: timeout}
}

// Sweep schedules removal of key and returns immediately.
func (j *Janitor) Sweep(key string) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		if err := j.store.Remove(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
			j.failed.Add(1)
			j.logger.Warn("cleanup failed", "key", key, "error", err)
			return
		}
		j.removed.Add(1)
		j.logger.Debug("cleaned up", "key", key)
	}()
}

// PurgeAll empties the given areas. Used at startup so leftovers of a crashed
// process don't outlive it.
func (j *Janitor) PurgeAll(ctx context.Context, areas ...string) error {
	var errs []error
	for _, area := range areas {
		n, err := j.store.Purge(ctx, area)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n > 0 {
			j.logger.Info("purged stale files", "area", area, "count", n)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until every scheduled sweep has finished.
func (j *Janitor) Wait() {
	j.wg.Wait()
}

// Stats returns counters for the metrics endpoint.
func (j *Janitor) Stats() map[string]any {
	return map[string]any{
		"removed": j.removed.Load(),
		"failed":  j.failed.Load(),
	}
}
