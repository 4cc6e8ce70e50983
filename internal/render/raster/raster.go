// Package raster renders map images natively with fogleman/gg. It backs
// the same engine interface as the browser renderer, for deployments
// without a browser and for exercising the full pipeline in tests.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"trail-map-service/internal/render"
	"trail-map-service/internal/route"
)

// Engine produces PNG images in-process. Sessions are cheap here, but keep
// the single-tenant contract so the pool semantics stay identical across
// backends.
type Engine struct {
	width  int
	height int
}

// Config sizes the rendered image.
type Config struct {
	Width  int
	Height int
}

// NewEngine creates a raster engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Width <= 0 {
		cfg.Width = 1600
	}
	if cfg.Height <= 0 {
		cfg.Height = 1600
	}
	return &Engine{width: cfg.Width, height: cfg.Height}
}

// ContentType implements render.Engine.
func (e *Engine) ContentType() string {
	return "image/png"
}

// NewSession implements render.Engine.
func (e *Engine) NewSession(ctx context.Context) (render.Session, error) {
	return &session{engine: e}, nil
}

type session struct {
	engine *Engine

	mu  sync.Mutex
	req *route.Request
}

func (s *session) Submit(ctx context.Context, req *route.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.req = req
	return nil
}

func (s *session) AwaitReady(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	req := s.req
	s.req = nil
	s.mu.Unlock()
	if req == nil {
		return nil, fmt.Errorf("no submitted request")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.engine.draw(req)
}

func (s *session) Close(ctx context.Context) error {
	return nil
}

func (e *Engine) draw(req *route.Request) ([]byte, error) {
	w, h := float64(e.width), float64(e.height)
	dc := gg.NewContext(e.width, e.height)

	dc.SetRGB255(0xf2, 0xef, 0xe9)
	dc.Clear()

	center := route.MedianCenter(req.Points)
	xs, ys := project(req.Points, center)

	minX, maxX := minMax(xs)
	minY, maxY := minMax(ys)
	spanX := math.Max(maxX-minX, 1e-6)
	spanY := math.Max(maxY-minY, 1e-6)
	pad := 0.12 * math.Min(w, h)
	scale := math.Min((w-2*pad)/spanX, (h-2*pad)/spanY)
	toX := func(x float64) float64 { return (w-spanX*scale)/2 + (x-minX)*scale }
	toY := func(y float64) float64 { return (h-spanY*scale)/2 + (y-minY)*scale }

	dc.SetRGB255(0xd9, 0x4f, 0x2b)
	dc.SetLineWidth(math.Max(4, w/320))
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	for i := range xs {
		if i == 0 {
			dc.MoveTo(toX(xs[i]), toY(ys[i]))
			continue
		}
		dc.LineTo(toX(xs[i]), toY(ys[i]))
	}
	dc.Stroke()

	r := math.Max(7, w/200)
	dc.SetRGB255(0x2b, 0x8a, 0x3e)
	dc.DrawCircle(toX(xs[0]), toY(ys[0]), r)
	dc.Fill()
	dc.SetRGB255(0x1c, 0x1c, 0x1c)
	dc.DrawCircle(toX(xs[len(xs)-1]), toY(ys[len(ys)-1]), r)
	dc.Fill()

	e.drawOverlay(dc, req)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Engine) drawOverlay(dc *gg.Context, req *route.Request) {
	stats := req.StatLines()
	if req.Title == nil && len(stats) == 0 {
		return
	}
	dc.SetFontFace(basicfont.Face7x13)

	const left, top, lineHeight = 24.0, 24.0, 18.0
	y := top + lineHeight
	dc.SetRGB255(0x1a, 0x1a, 0x1a)
	if req.Title != nil {
		dc.DrawString(*req.Title, left, y)
		y += lineHeight * 1.5
	}
	for _, line := range stats {
		dc.DrawString(fmt.Sprintf("%s: %s", line.Label, line.Value), left, y)
		y += lineHeight
	}
}

// project maps points to planar offsets around the median center, with the
// usual cos-latitude compression of longitude. Y grows downward to match
// image coordinates.
func project(points []route.Point, center route.Point) (xs, ys []float64) {
	k := math.Cos(center.Lat * math.Pi / 180)
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i] = (p.Lon - center.Lon) * k
		ys[i] = center.Lat - p.Lat
	}
	return xs, ys
}

func minMax(vs []float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
