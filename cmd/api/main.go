package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/transitlabs/wayplan/internal/adapters/estimate"
	"github.com/transitlabs/wayplan/internal/adapters/googlemaps"
	"github.com/transitlabs/wayplan/internal/adapters/http"
	natsadapter "github.com/transitlabs/wayplan/internal/adapters/nats"
	"github.com/transitlabs/wayplan/internal/adapters/valkey"
	"github.com/transitlabs/wayplan/internal/cache"
	"github.com/transitlabs/wayplan/internal/core/ports"
	"github.com/transitlabs/wayplan/internal/core/usecases"
	"github.com/transitlabs/wayplan/internal/monitor"
	"github.com/transitlabs/wayplan/internal/pkg/config"
	"github.com/transitlabs/wayplan/internal/pkg/logging"
	"github.com/transitlabs/wayplan/internal/pkg/ratelimit"
	"github.com/transitlabs/wayplan/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("wayplan-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Monitoring
	mon := monitor.New(0)

	// In-memory cache layers
	geoCache := cache.NewGeocodingCache(
		time.Duration(cfg.Cache.GeocodeTTLSeconds)*time.Second,
		cfg.Cache.GeocodeMaxEntries,
		cache.DefaultCleanupEvery,
	)
	defer geoCache.Stop()
	transitCache := cache.NewTransitCache(
		time.Duration(cfg.Cache.TransitTTLSeconds)*time.Second,
		cfg.Cache.TransitMaxEntries,
		cache.DefaultCleanupEvery,
	)
	defer transitCache.Stop()

	// Shared cache (optional)
	var shared ports.CacheService
	var vk *valkey.Cache
	if cfg.Valkey.Enabled {
		vk, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			shared = vk
			defer vk.Close()
		}
	}

	// Map backend
	limiter := ratelimit.New(cfg.Maps.RatePerSecond, cfg.Maps.DailyQuota)
	var base ports.MapProvider
	if cfg.Maps.APIKey == "" {
		slog.Warn("maps.api_key not set, using deterministic estimate provider")
		base = estimate.New()
	} else {
		base, err = googlemaps.New(googlemaps.Config{
			APIKey:  cfg.Maps.APIKey,
			BaseURL: cfg.Maps.BaseURL,
		}, limiter, mon)
		if err != nil {
			log.Fatalf("maps client: %v", err)
		}
	}
	provider := cache.NewProvider(base, geoCache, transitCache, shared, mon)

	// NATS (optional)
	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			events = pub
			defer pub.Close()
		}
	}

	// Use cases
	planSvc := usecases.NewPlanService(provider, mon, events, slog.Default())

	deps := &http.Dependencies{
		Plans:        planSvc,
		Monitor:      mon,
		GeoCache:     geoCache,
		TransitCache: transitCache,
		Limiter:      limiter,
		Cache:        vk,
	}

	// Raw NATS connection for WebSocket relay
	if cfg.NATS.Enabled {
		nc, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			deps.NATS = nc
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024, // 256 KB max request body
		AppName:      "WayPlan API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
