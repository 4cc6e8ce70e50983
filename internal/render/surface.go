package render

import (
	"context"

	"trail-map-service/internal/route"
)

// Engine spawns sessions against a concrete rendering backend. Spawning may
// be expensive (seconds for a browser tab behind a cold allocator), which is
// why sessions are pooled rather than created per request.
type Engine interface {
	// NewSession spawns one live rendering session.
	NewSession(ctx context.Context) (Session, error)

	// ContentType is the MIME type of the images this engine produces.
	ContentType() string
}

// Session is a handle to one live rendering-engine instance. A session is
// single-tenant: it serves one render at a time and is never shared outside
// the in-flight render that acquired it. A healthy session is reused across
// renders via the pool.
type Session interface {
	// Submit hands the request's data to the rendering surface and starts
	// the render.
	Submit(ctx context.Context, req *route.Request) error

	// AwaitReady blocks until the surface signals render-ready, then
	// captures and returns the image bytes. The caller bounds the wait
	// through ctx.
	AwaitReady(ctx context.Context) ([]byte, error)

	// Close terminates the underlying engine instance.
	Close(ctx context.Context) error
}
