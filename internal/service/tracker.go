package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const defaultTrackTimeout = 2 * time.Second

// Tracker runs signal writes off the request path on a bounded goroutine
// pool. When the pool is saturated the task is dropped.
type Tracker struct {
	pool    *ants.Pool
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewTracker creates a Tracker running at most size tasks at once.
func NewTracker(size int, logger *slog.Logger) (*Tracker, error) {
	if size <= 0 {
		size = 64
	}
	t := &Tracker{logger: logger, timeout: defaultTrackTimeout}
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error("tracking task panicked", slog.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create tracker pool: %w", err)
	}
	t.pool = pool
	return t, nil
}

// Go schedules fn. It never blocks and never reports an error to the caller;
// fn gets a context detached from ctx's cancellation.
func (t *Tracker) Go(ctx context.Context, kind string, fn func(context.Context) error) {
	detached := context.WithoutCancel(ctx)

	t.wg.Add(1)
	err := t.pool.Submit(func() {
		defer t.wg.Done()

		tctx, cancel := context.WithTimeout(detached, t.timeout)
		defer cancel()

		if err := fn(tctx); err != nil {
			trackingFailures.WithLabelValues(kind).Inc()
			t.logger.WarnContext(tctx, "signal tracking failed",
				slog.String("kind", kind),
				slog.String("error", err.Error()),
			)
		}
	})
	if err != nil {
		t.wg.Done()
		trackingDropped.WithLabelValues(kind).Inc()
		t.logger.WarnContext(ctx, "signal tracking dropped",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
}

// Wait blocks until all scheduled tasks have finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Close waits up to timeout for running tasks and releases the pool.
func (t *Tracker) Close(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.logger.Warn("tracker closed with tasks still running")
	}
	if err := t.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("release tracker pool: %w", err)
	}
	return nil
}
