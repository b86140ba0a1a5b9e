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

	"github.com/samirrijal/diadiem/internal/adapters/http"
	natsadapter "github.com/samirrijal/diadiem/internal/adapters/nats"
	"github.com/samirrijal/diadiem/internal/adapters/postgres"
	"github.com/samirrijal/diadiem/internal/adapters/sqlite"
	"github.com/samirrijal/diadiem/internal/adapters/valkey"
	"github.com/samirrijal/diadiem/internal/core/ports"
	"github.com/samirrijal/diadiem/internal/core/schedule"
	"github.com/samirrijal/diadiem/internal/core/usecases"
	"github.com/samirrijal/diadiem/internal/pkg/config"
	"github.com/samirrijal/diadiem/internal/pkg/logging"
	"github.com/samirrijal/diadiem/internal/pkg/metrics"
	"github.com/samirrijal/diadiem/internal/pkg/telemetry"
)

// store is the provider backend selected by database.driver.
type store interface {
	ports.BusinessProvider
	ports.ViewCounter
}

func main() {
	cfg, err := config.Load("diadiem-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

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

	deps := &http.Dependencies{}

	// Database
	var repo store
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := sqlite.Seed(ctx, db); err != nil {
			log.Fatalf("seed: %v", err)
		}
		repo = sqlite.NewBusinessRepo(db)
		deps.DB = db
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewBusinessRepo(db)
		deps.DB = db
		go reportPoolStats(ctx, db)
	}

	// Cache and recently viewed
	var cacheSvc ports.CacheService
	var kv ports.KeyValueStore
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, search cache and recently viewed disabled", "error", err)
	} else {
		defer cache.Close()
		cacheSvc, kv = cache, cache
		deps.Cache = cache
	}
	search := usecases.NewSearchService(repo, cacheSvc, cfg.Search.CacheTTLS)

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
		deps.NATS = pub
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "diadiem-api")
	if err != nil {
		slog.Warn("nats subscriber unavailable, cached pages expire by TTL", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeBusinessUpdated(ctx, search.Invalidate); err != nil {
			slog.Warn("subscribe business updates", "error", err)
		}
	}

	// Use cases
	ev := schedule.NewEvaluator(cfg.Search.Timezone)
	deps.Directory = usecases.NewDirectoryService(search, events, ev, cfg.Search.Locale, cfg.Search.PageSize)
	if kv != nil {
		deps.Recent = usecases.NewRecentService(kv, search, repo)
	}
	deps.Explore = usecases.ExploreConfig{
		PageSize:    cfg.Search.PageSize,
		Debounce:    cfg.Search.Debounce(),
		StallAfter:  cfg.Search.StallAfter(),
		OpenRefresh: cfg.Search.OpenRefresh(),
		Locale:      cfg.Search.Locale,
		Schedule:    ev,
		Events:      events,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Diadiem API",
	})

	http.SetupRoutes(app, deps, http.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		RateLimit:    cfg.Server.RateLimit,
	})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "driver", cfg.Database.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
