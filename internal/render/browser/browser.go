// Package browser renders map images by driving a headless browser through
// chromedp: each session owns one tab, pages are self-contained documents
// delivered as base64 data URLs, and the screenshot is taken once the page
// flags itself ready.
package browser

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/chromedp/chromedp"

	"trail-map-service/internal/render"
	"trail-map-service/internal/route"
)

//go:embed templates/*
var templateFS embed.FS

// readySelector matches only after the page script has finished drawing.
const readySelector = `#map-ready[data-done="1"]`

// Engine spawns tab-backed sessions against one shared headless browser
// process. Creating the engine starts the browser; Close tears it down.
type Engine struct {
	allocCancel context.CancelFunc
	browser     context.Context
	cancel      context.CancelFunc
	tpl         *template.Template
	width       int
	height      int
	log         *slog.Logger
}

// Config sizes the rendering viewport.
type Config struct {
	Width  int
	Height int
	Logger *slog.Logger
}

// NewEngine launches the shared browser process.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Width <= 0 {
		cfg.Width = 1600
	}
	if cfg.Height <= 0 {
		cfg.Height = 1600
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	tpl, err := template.ParseFS(templateFS, "templates/map.html")
	if err != nil {
		return nil, fmt.Errorf("parsing map template: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.Width, cfg.Height),
	)
	browser, cancel := chromedp.NewContext(allocCtx)
	// Force the browser process up front so session spawn failures show
	// up here rather than on the first request.
	if err := chromedp.Run(browser); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	e := &Engine{
		allocCancel: allocCancel,
		browser:     browser,
		cancel:      cancel,
		tpl:         tpl,
		width:       cfg.Width,
		height:      cfg.Height,
		log:         cfg.Logger.With("component", "browser"),
	}
	e.log.Info("browser started", "viewport_width", cfg.Width, "viewport_height", cfg.Height)
	return e, nil
}

// ContentType implements render.Engine; chromedp screenshots are PNG.
func (e *Engine) ContentType() string {
	return "image/png"
}

// NewSession opens a dedicated tab. Tabs are cheap relative to browser
// processes but still stateful: one tab serves one render at a time and is
// reused while healthy.
func (e *Engine) NewSession(ctx context.Context) (render.Session, error) {
	tab, cancel := chromedp.NewContext(e.browser)
	// Materialize the tab now; NewContext alone defers creation to the
	// first Run.
	runCtx, runCancel := deadlineFrom(ctx, tab)
	defer runCancel()
	if err := chromedp.Run(runCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("opening tab: %w", err)
	}
	return &session{engine: e, tab: tab, cancel: cancel}, nil
}

// Close terminates the shared browser process and every remaining tab.
func (e *Engine) Close() error {
	e.cancel()
	e.allocCancel()
	return nil
}

type session struct {
	engine *Engine
	tab    context.Context
	cancel context.CancelFunc
}

// Submit builds the self-contained map page for the request and navigates
// the tab to it.
func (s *session) Submit(ctx context.Context, req *route.Request) error {
	page, err := s.engine.renderPage(req)
	if err != nil {
		return err
	}
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString(page)

	runCtx, cancel := deadlineFrom(ctx, s.tab)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Navigate(dataURL)); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

// AwaitReady waits for the page's ready flag and captures the screenshot.
func (s *session) AwaitReady(ctx context.Context) ([]byte, error) {
	runCtx, cancel := deadlineFrom(ctx, s.tab)
	defer cancel()

	var img []byte
	err := chromedp.Run(runCtx,
		chromedp.WaitReady(readySelector, chromedp.ByQuery),
		chromedp.EmulateViewport(int64(s.engine.width), int64(s.engine.height)),
		chromedp.CaptureScreenshot(&img),
	)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return img, nil
}

// Close discards the tab. The shared browser process stays up.
func (s *session) Close(ctx context.Context) error {
	s.cancel()
	return nil
}

type pageData struct {
	Points template.JS
	Lat    float64
	Lon    float64
	Title  string
	Stats  []route.StatLine
	Width  int
	Height int
}

func (e *Engine) renderPage(req *route.Request) ([]byte, error) {
	coords := make([][2]float64, len(req.Points))
	for i, p := range req.Points {
		coords[i] = [2]float64{p.Lat, p.Lon}
	}
	pointsJSON, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("encoding points: %w", err)
	}
	center := route.MedianCenter(req.Points)

	data := pageData{
		Points: template.JS(pointsJSON),
		Lat:    center.Lat,
		Lon:    center.Lon,
		Stats:  req.StatLines(),
		Width:  e.width,
		Height: e.height,
	}
	if req.Title != nil {
		data.Title = *req.Title
	}

	var buf bytes.Buffer
	if err := e.tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing map template: %w", err)
	}
	return buf.Bytes(), nil
}

// deadlineFrom derives a run context from the tab while honoring the
// caller's deadline, so a hung page load cannot outlive the attempt budget.
func deadlineFrom(ctx context.Context, tab context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(tab, deadline)
	}
	return context.WithCancel(tab)
}
