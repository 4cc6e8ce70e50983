// Package supervisor owns the service lifecycle around the render path:
// pool warm-up at startup, the periodic cache eviction sweep, and ordered
// graceful shutdown.
package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trail-map-service/internal/cache"
	"trail-map-service/internal/render"
)

// Supervisor runs background duties and tears components down in reverse
// registration order at shutdown.
type Supervisor struct {
	log     *slog.Logger
	timeout time.Duration

	mu    sync.Mutex
	hooks []hook

	stopSweep chan struct{}
	sweepDone chan struct{}
	stopOnce  sync.Once
}

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// New creates a supervisor whose whole shutdown sequence is bounded by
// timeout.
func New(log *slog.Logger, timeout time.Duration) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		log:       log.With("component", "supervisor"),
		timeout:   timeout,
		stopSweep: make(chan struct{}),
	}
}

// Register adds a shutdown hook. Hooks run in reverse order, so register
// outer layers (HTTP server) before inner ones (session pool).
func (s *Supervisor) Register(name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook{name: name, fn: fn})
}

// WarmUp pre-spawns one render session. Spawn failure is logged, not
// fatal: the pool retries on first demand.
func (s *Supervisor) WarmUp(ctx context.Context, pool *render.Pool) {
	if err := pool.WarmUp(ctx); err != nil {
		s.log.Warn("pool warm-up failed", "error", err)
		return
	}
	s.log.Info("pool warmed up")
}

// StartSweeper runs the cache's periodic eviction sweep until Shutdown.
func (s *Supervisor) StartSweeper(store *cache.Store, interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	s.sweepDone = make(chan struct{})
	s.mu.Unlock()
	done := s.sweepDone
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				store.Sweep()
			case <-s.stopSweep:
				return
			}
		}
	}()
}

// Shutdown stops the sweeper and runs every hook in reverse order under the
// shutdown budget. All hooks run even when one fails; the first error wins.
func (s *Supervisor) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.stopOnce.Do(func() { close(s.stopSweep) })
	s.mu.Lock()
	done := s.sweepDone
	hooks := make([]hook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()
	if done != nil {
		<-done
	}

	var firstErr error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		s.log.Info("shutting down", "name", h.name)
		if err := h.fn(ctx); err != nil {
			s.log.Error("shutdown hook failed", "name", h.name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
