package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"trail-map-service/internal/route"
)

// fakeEngine instruments the engine contract for pool and coordinator
// tests: it counts spawns and renders and tracks the high-water mark of
// concurrently rendering sessions.
type fakeEngine struct {
	spawned atomic.Int32
	closed  atomic.Int32
	renders atomic.Int32

	spawnErr    error
	renderErr   error
	failFirst   int32
	renderDelay time.Duration
	image       []byte

	mu        sync.Mutex
	rendering int
	maxActive int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{image: []byte("png-bytes")}
}

func (e *fakeEngine) ContentType() string { return "image/png" }

func (e *fakeEngine) NewSession(ctx context.Context) (Session, error) {
	if e.spawnErr != nil {
		return nil, e.spawnErr
	}
	e.spawned.Add(1)
	return &fakeSession{engine: e}, nil
}

func (e *fakeEngine) enter() {
	e.mu.Lock()
	e.rendering++
	if e.rendering > e.maxActive {
		e.maxActive = e.rendering
	}
	e.mu.Unlock()
}

func (e *fakeEngine) leave() {
	e.mu.Lock()
	e.rendering--
	e.mu.Unlock()
}

func (e *fakeEngine) maxConcurrent() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxActive
}

type fakeSession struct {
	engine *fakeEngine
	req    *route.Request
}

func (s *fakeSession) Submit(ctx context.Context, req *route.Request) error {
	s.req = req
	return nil
}

func (s *fakeSession) AwaitReady(ctx context.Context) ([]byte, error) {
	if s.req == nil {
		return nil, errors.New("await before submit")
	}
	s.req = nil
	e := s.engine
	n := e.renders.Add(1)
	e.enter()
	defer e.leave()

	if e.renderDelay > 0 {
		select {
		case <-time.After(e.renderDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= e.failFirst {
		return nil, errors.New("render surface crashed")
	}
	if e.renderErr != nil {
		return nil, e.renderErr
	}
	return e.image, nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.engine.closed.Add(1)
	return nil
}

func quietPool(e Engine, size int, acquireTimeout time.Duration) *Pool {
	return NewPool(e, PoolConfig{
		Size:           size,
		AcquireTimeout: acquireTimeout,
	})
}
