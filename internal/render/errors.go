package render

import "errors"

// Infrastructure failures. All of these are retried internally up to the
// configured attempt budget before a job resolves as failed; none of them
// is caused by the caller.
var (
	// ErrPoolExhausted means no session became available within the
	// acquire deadline.
	ErrPoolExhausted = errors.New("render: session pool exhausted")

	// ErrRenderTimeout means a session never signalled render-ready
	// within the per-attempt deadline.
	ErrRenderTimeout = errors.New("render: render timed out")

	// ErrSessionCrashed means the rendering engine process behind a
	// session died or errored mid-render.
	ErrSessionCrashed = errors.New("render: session crashed")

	// ErrPoolClosed is returned once shutdown draining has begun.
	ErrPoolClosed = errors.New("render: pool closed")
)
