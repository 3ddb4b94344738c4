package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// tasks runs fire-and-forget work. Callers never wait for it, but every
// outcome is logged and Close can wait for stragglers so a short-lived
// process does not exit with requests still in flight.
type tasks struct {
	logger *slog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// Go runs fn in the background on a context detached from the caller's
// cancellation.
func (t *tasks) Go(ctx context.Context, name string, fn func(context.Context) error) {
	id := uuid.NewString()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.logger.Warn("store closed, background task dropped", "task", name, "task_id", id)
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer t.wg.Done()
		start := time.Now()
		if err := fn(ctx); err != nil {
			t.logger.Warn("background task failed",
				"task", name,
				"task_id", id,
				"elapsed", time.Since(start),
				"error", err,
			)
			return
		}
		t.logger.Debug("background task done", "task", name, "task_id", id, "elapsed", time.Since(start))
	}()
}

// Wait blocks until every started task finished or ctx is done. No task
// can start once Wait has been called.
func (t *tasks) Wait(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
