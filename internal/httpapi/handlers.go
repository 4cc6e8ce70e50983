package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"trail-map-service/internal/cache"
	"trail-map-service/internal/render"
	"trail-map-service/internal/route"
)

type handler struct {
	store       *cache.Store
	coordinator *render.Coordinator
	pool        *render.Pool
	log         *slog.Logger
}

// Map serves GET /map: decode the request, fingerprint it, serve from cache
// when possible, otherwise render through the coordinator.
func (h *handler) Map(w http.ResponseWriter, r *http.Request) {
	req, err := route.ParseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fingerprint := render.Fingerprint(req)

	if a, ok := h.store.Get(fingerprint); ok {
		h.writeArtifact(w, a)
		return
	}

	a, err := h.coordinator.Render(r.Context(), fingerprint, req)
	if err != nil {
		h.writeRenderError(w, fingerprint, err)
		return
	}
	h.writeArtifact(w, a)
}

// Healthcheck serves GET /healthcheck: 200 while the pool can still serve.
func (h *handler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	if !h.pool.Healthy() {
		http.Error(w, "render pool unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("Ok"))
}

func (h *handler) writeArtifact(w http.ResponseWriter, a *cache.Artifact) {
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Bytes)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("filename=%q", a.Fingerprint+".png"))
	w.Header().Set("ETag", `"`+a.Fingerprint+`"`)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Last-Modified", a.CreatedAt.UTC().Format(http.TimeFormat))
	if _, err := w.Write(a.Bytes); err != nil {
		h.log.Warn("writing image response", "error", err)
	}
}

// writeRenderError maps the render taxonomy onto status codes: deadline
// problems become 504, everything else from the engine becomes 502. The
// fingerprint is logged instead of the request payload.
func (h *handler) writeRenderError(w http.ResponseWriter, fingerprint string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, render.ErrPoolExhausted),
		errors.Is(err, render.ErrRenderTimeout),
		errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, render.ErrPoolClosed):
		status = http.StatusServiceUnavailable
	}
	h.log.Error("render failed", "fingerprint", fingerprint, "status", status, "error", err)
	http.Error(w, "map render failed", status)
}
