package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Pool owns a bounded set of reusable rendering sessions. Capacity is
// modeled as permits: every live session holds one, and a broken session's
// permit flows back so total capacity never shrinks permanently.
type Pool struct {
	engine         Engine
	log            *slog.Logger
	size           int
	acquireTimeout time.Duration
	spawnTimeout   time.Duration

	idle    chan Session
	permits chan struct{}

	closed    chan struct{}
	closeOnce sync.Once

	drainMu   sync.Mutex
	undrained int

	spawnFailures atomic.Int32
}

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Size is the maximum number of concurrently live sessions.
	Size int
	// AcquireTimeout bounds how long Acquire waits for capacity.
	AcquireTimeout time.Duration
	// SpawnTimeout bounds a single session spawn.
	SpawnTimeout time.Duration
	Logger       *slog.Logger
}

// NewPool creates a pool. Sessions are spawned lazily on first demand;
// WarmUp can pre-spawn one to hide the cold-start latency of the first
// request.
func NewPool(engine Engine, cfg PoolConfig) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 2
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 5 * time.Second
	}
	if cfg.SpawnTimeout <= 0 {
		cfg.SpawnTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	p := &Pool{
		engine:         engine,
		log:            cfg.Logger.With("component", "pool"),
		size:           cfg.Size,
		acquireTimeout: cfg.AcquireTimeout,
		spawnTimeout:   cfg.SpawnTimeout,
		idle:           make(chan Session, cfg.Size),
		permits:        make(chan struct{}, cfg.Size),
		closed:         make(chan struct{}),
		undrained:      cfg.Size,
	}
	for i := 0; i < cfg.Size; i++ {
		p.permits <- struct{}{}
	}
	return p
}

// Acquire returns an idle session, spawning a new one while the pool is
// under capacity. It fails with ErrPoolExhausted when neither happens
// within the acquire timeout.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	select {
	case <-p.closed:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case s := <-p.idle:
		return s, nil
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	select {
	case s := <-p.idle:
		return s, nil
	case <-p.permits:
		s, err := p.spawn(ctx)
		if err != nil {
			p.permits <- struct{}{}
			return nil, err
		}
		return s, nil
	case <-p.closed:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: no session within %s", ErrPoolExhausted, p.acquireTimeout)
	}
}

// Release returns a session after a render. A healthy session goes back to
// idle for reuse; a broken one is terminated and replaced asynchronously so
// the releasing caller never waits on a spawn.
func (p *Pool) Release(s Session, healthy bool) {
	select {
	case <-p.closed:
		p.terminate(s)
		p.permits <- struct{}{}
		return
	default:
	}

	if healthy {
		p.idle <- s
		return
	}

	p.log.Warn("discarding broken session")
	p.terminate(s)
	go p.respawn()
}

// WarmUp pre-spawns a single session so the first request does not pay the
// full spawn latency. Failure is non-fatal: capacity stays intact and the
// next Acquire retries.
func (p *Pool) WarmUp(ctx context.Context) error {
	select {
	case <-p.permits:
	default:
		return nil
	}
	s, err := p.spawn(ctx)
	if err != nil {
		p.permits <- struct{}{}
		return err
	}
	p.idle <- s
	return nil
}

// Healthy reports whether the pool can still serve: it has not been closed
// and session spawning is not persistently failing.
func (p *Pool) Healthy() bool {
	select {
	case <-p.closed:
		return false
	default:
	}
	return int(p.spawnFailures.Load()) < p.size
}

// Close drains the pool: no new sessions are issued, in-flight sessions are
// waited for, and every remaining session is terminated. All capacity is
// accounted for before returning, so no engine process outlives the pool.
// Safe to call more than once; a timed-out drain can be resumed.
func (p *Pool) Close(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.closed) })
	p.drainMu.Lock()
	defer p.drainMu.Unlock()
	for p.undrained > 0 {
		select {
		case <-p.permits:
		case s := <-p.idle:
			p.terminate(s)
		case <-ctx.Done():
			return fmt.Errorf("pool drain: %w", ctx.Err())
		}
		p.undrained--
	}
	p.log.Info("pool drained")
	return nil
}

func (p *Pool) spawn(ctx context.Context) (Session, error) {
	s, err := p.engine.NewSession(ctx)
	if err != nil {
		p.spawnFailures.Add(1)
		return nil, fmt.Errorf("%w: spawn: %v", ErrSessionCrashed, err)
	}
	p.spawnFailures.Store(0)
	return s, nil
}

// respawn replaces a discarded session in the background. On spawn failure
// the permit flows back so a later Acquire can retry the spawn itself.
func (p *Pool) respawn() {
	select {
	case <-p.closed:
		p.permits <- struct{}{}
		return
	default:
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.spawnTimeout)
	defer cancel()
	s, err := p.spawn(ctx)
	if err != nil {
		p.log.Warn("session respawn failed", "error", err)
		p.permits <- struct{}{}
		return
	}
	p.idle <- s
}

func (p *Pool) terminate(s Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		p.log.Warn("session terminate failed", "error", err)
	}
}
