// Command mapservice serves rendered trail-map images: an encoded polyline
// plus optional ride statistics in, a cached PNG out.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"trail-map-service/internal/cache"
	"trail-map-service/internal/config"
	"trail-map-service/internal/httpapi"
	"trail-map-service/internal/render"
	"trail-map-service/internal/render/browser"
	"trail-map-service/internal/render/raster"
	"trail-map-service/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	sup := supervisor.New(log, cfg.ShutdownTimeout)

	engine, err := newEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closer, ok := engine.(interface{ Close() error }); ok {
		sup.Register("render engine", func(context.Context) error { return closer.Close() })
	}

	pool := render.NewPool(engine, render.PoolConfig{
		Size:           cfg.PoolSize,
		AcquireTimeout: cfg.AcquireTimeout,
		SpawnTimeout:   cfg.SpawnTimeout,
		Logger:         log,
	})
	sup.Register("session pool", pool.Close)
	sup.WarmUp(ctx, pool)

	store := cache.New(cache.Config{
		CapacityBytes: cfg.CacheCapacityBytes,
		MaxEntries:    cfg.CacheMaxEntries,
		MaxAge:        cfg.CacheMaxAge,
		Logger:        log,
	})
	sup.StartSweeper(store, cfg.SweepInterval)

	coordinator := render.NewCoordinator(pool, store, render.CoordinatorConfig{
		Attempts:       cfg.RenderAttempts,
		AttemptTimeout: cfg.RenderTimeout,
		Logger:         log,
	})

	server := &http.Server{
		Addr: net.JoinHostPort("", cfg.HTTPPort),
		Handler: httpapi.NewRouter(httpapi.Deps{
			Store:       store,
			Coordinator: coordinator,
			Pool:        pool,
			Logger:      log,
		}),
	}
	sup.Register("http server", server.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "port", cfg.HTTPPort, "backend", cfg.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		sup.Shutdown()
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
		return sup.Shutdown()
	}
}

func newEngine(ctx context.Context, cfg *config.Config, log *slog.Logger) (render.Engine, error) {
	if cfg.Backend == config.BackendRaster {
		return raster.NewEngine(raster.Config{
			Width:  cfg.ViewportWidth,
			Height: cfg.ViewportHeight,
		}), nil
	}
	return browser.NewEngine(ctx, browser.Config{
		Width:  cfg.ViewportWidth,
		Height: cfg.ViewportHeight,
		Logger: log,
	})
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("service", "mapservice")
}
