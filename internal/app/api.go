package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/infrastructure/upstream"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/scheduler"
	"github.com/jaennil/guide_helper/backend/tilecache/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/config"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/telemetry"
)

const shutdownTimeout = 30 * time.Second

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger.Level)
	defer l.Sync()

	l.Info("starting tile cache service", "storage", cfg.Storage.Backend, "styles", cfg.StyleNames())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithLogger(ctx, l)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	for _, s := range cfg.Styles {
		if s.NeedsToken() && s.Token == "" {
			l.Warn("style needs an access token but none is configured, its tiles will fail", "style", s.Name)
		}
	}

	store, closeStore, err := newTileCache(ctx, cfg, l)
	if err != nil {
		l.Fatal("failed to initialize tile cache", "error", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			l.Error("failed to close tile cache", "error", err)
		}
	}()

	router, err := upstream.NewRouter(cfg.Styles, cfg.Upstream.Shards)
	if err != nil {
		l.Fatal("failed to build upstream router", "error", err)
	}
	client := upstream.NewClient(cfg.Upstream, l)

	if cfg.Upstream.Offline {
		l.Warn("upstream fetching disabled, serving cached tiles only")
	}

	tiles := usecase.NewTileCacheUseCase(store, router, client, usecase.FetchOptions{
		Offline:        cfg.Upstream.Offline,
		HighlightFresh: cfg.Debug.HighlightFresh,
		SingleFlight:   cfg.Cache.SingleFlight,
	}, l)

	var precacher handler.PrecacheScheduler
	if cfg.Precache.Enabled && !cfg.Upstream.Offline {
		p := usecase.NewPrecacher(tiles, router, router.Styles(), usecase.PrecacheConfig{
			Workers:    cfg.Precache.Workers,
			QueueSize:  cfg.Precache.QueueSize,
			MaxPending: cfg.Precache.MaxPending,
			Depth:      cfg.Precache.Depth,
			MaxZoom:    cfg.Precache.MaxZoom,
		}, l.With("component", "precache"))
		defer p.Close()
		precacher = p
	}

	bulk := usecase.NewBulkPrecacheUseCase(tiles, router, cfg.Precache.BulkMaxZoom, l)

	sweeps := scheduler.New(bulk, scheduler.Config{
		Schedule: cfg.Precache.Schedule,
		Styles:   cfg.Precache.ScheduleStyles,
		Zoom:     cfg.Precache.ScheduleZoom,
	}, l.With("component", "scheduler"))
	if err := sweeps.Start(ctx); err != nil {
		l.Fatal("failed to start precache scheduler", "error", err)
	}
	defer sweeps.Stop()
	if next := sweeps.NextRun(); next != nil {
		l.Info("next scheduled precache sweep", "at", next.Format(time.RFC3339))
	}

	styles := make([]handler.StyleInfo, 0, len(cfg.Styles))
	for _, s := range cfg.Styles {
		styles = append(styles, handler.StyleInfo{Name: s.Name, Attribution: s.Attribution})
	}

	h := handler.NewHandler(tiles, precacher, bulk, styles)
	engine := v1.NewRouter(h, l, v1.RouterConfig{
		TelemetryEnabled: cfg.Telemetry.Enabled,
		ServiceName:      cfg.Telemetry.ServiceName,
	})

	server := http_server.NewServer(ctx, cfg.HTTP.Server, engine)

	go func() {
		l.Info("starting http server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("http server failed", "error", err)
		}
	}()

	<-ctx.Done()

	l.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", "error", err)
	}

	l.Info("server stopped")
}
