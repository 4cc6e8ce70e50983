// Package httpapi is the HTTP front door: it parses render requests,
// consults the cache, falls back to the coordinator, and serves image
// bytes. Orchestration only, no rendering logic.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trail-map-service/internal/cache"
	"trail-map-service/internal/render"
)

// Deps are the shared components the front door orchestrates. They are
// injected so tests can build isolated instances per case.
type Deps struct {
	Store       *cache.Store
	Coordinator *render.Coordinator
	Pool        *render.Pool
	Logger      *slog.Logger
}

// NewRouter wires the routes and middleware.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handler{
		store:       d.Store,
		coordinator: d.Coordinator,
		pool:        d.Pool,
		log:         d.Logger.With("component", "httpapi"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.log))

	r.Get("/map", h.Map)
	r.Get("/healthcheck", h.Healthcheck)
	return r
}

// requestLogger logs one line per response. Healthcheck probes arrive every
// few seconds and are pushed down to debug to keep the log readable.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if r.URL.Path == "/healthcheck" {
				level = slog.LevelDebug
			}
			log.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}
