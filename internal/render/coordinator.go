package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"trail-map-service/internal/cache"
	"trail-map-service/internal/route"
)

// Coordinator turns concurrent requests for the same fingerprint into a
// single render job and drives that job's attempt loop against the session
// pool, writing successful artifacts through to the cache.
type Coordinator struct {
	pool  *Pool
	store *cache.Store
	log   *slog.Logger

	attempts       int
	attemptTimeout time.Duration

	jobs singleflight.Group
}

// CoordinatorConfig configures the retry budget.
type CoordinatorConfig struct {
	// Attempts is the total number of render attempts per job, each with
	// a fresh session.
	Attempts int
	// AttemptTimeout bounds one submit-and-await-ready cycle.
	AttemptTimeout time.Duration
	Logger         *slog.Logger
}

// NewCoordinator wires the coordinator to its pool and cache.
func NewCoordinator(pool *Pool, store *cache.Store, cfg CoordinatorConfig) *Coordinator {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Coordinator{
		pool:           pool,
		store:          store,
		log:            cfg.Logger.With("component", "coordinator"),
		attempts:       cfg.Attempts,
		attemptTimeout: cfg.AttemptTimeout,
	}
}

// Render returns the artifact for a fingerprint, coalescing with any job
// already running for it. Every waiter of one job observes the identical
// outcome. A caller whose context expires while waiting gets its context
// error, but the job itself keeps running on a detached context and still
// populates the cache for later requests.
func (c *Coordinator) Render(ctx context.Context, fingerprint string, req *route.Request) (*cache.Artifact, error) {
	ch := c.jobs.DoChan(fingerprint, func() (any, error) {
		return c.run(fingerprint, req)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*cache.Artifact), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for render job: %w", ctx.Err())
	}
}

// run is the body of one render job. It owns the attempt loop: acquire a
// session, submit, await ready under the per-attempt deadline, release the
// session healthy or broken. The job key is dropped from the in-flight
// table the moment run returns, so a later request for the same
// fingerprint starts a fresh job instead of observing a terminal one.
func (c *Coordinator) run(fingerprint string, req *route.Request) (*cache.Artifact, error) {
	// Re-check the cache under the job lock: the waiter that created this
	// job may have raced a previous job's write-through.
	if a, ok := c.store.Get(fingerprint); ok {
		return a, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		a, err := c.attempt(req)
		if err == nil {
			a.Fingerprint = fingerprint
			c.store.Put(a)
			c.log.Debug("render succeeded",
				"fingerprint", fingerprint, "attempt", attempt, "bytes", a.Size())
			return a, nil
		}
		lastErr = err
		c.log.Warn("render attempt failed",
			"fingerprint", fingerprint, "attempt", attempt, "error", err)
	}
	c.log.Error("render job failed",
		"fingerprint", fingerprint, "attempts", c.attempts, "error", lastErr)
	return nil, lastErr
}

func (c *Coordinator) attempt(req *route.Request) (*cache.Artifact, error) {
	// Detached from any single waiter: a timed-out waiter must not cancel
	// the job for everyone else.
	ctx, cancel := context.WithTimeout(context.Background(), c.attemptTimeout)
	defer cancel()

	s, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.Submit(ctx, req); err != nil {
		c.pool.Release(s, false)
		return nil, classify(ctx, err)
	}
	img, err := s.AwaitReady(ctx)
	if err != nil {
		c.pool.Release(s, false)
		return nil, classify(ctx, err)
	}
	if len(img) == 0 {
		c.pool.Release(s, false)
		return nil, fmt.Errorf("%w: empty capture", ErrSessionCrashed)
	}

	c.pool.Release(s, true)
	return &cache.Artifact{
		Bytes:       img,
		ContentType: c.pool.engine.ContentType(),
		CreatedAt:   time.Now(),
	}, nil
}

// classify maps a raw session error onto the render taxonomy: a blown
// per-attempt deadline is a render timeout, anything else from the engine
// counts as a crashed session.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrRenderTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrSessionCrashed, err)
}
