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

	"areascope/internal/adapters/file"
	"areascope/internal/adapters/http"
	"areascope/internal/adapters/mapsync"
	natsadapter "areascope/internal/adapters/nats"
	"areascope/internal/adapters/nominatim"
	"areascope/internal/adapters/postgres"
	"areascope/internal/adapters/valkey"
	"areascope/internal/core/ports"
	"areascope/internal/core/usecases"
	"areascope/internal/pkg/config"
	"areascope/internal/pkg/logging"
	"areascope/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("areascope-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("areascope-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Valkey backs both the durable area slot and the geocode cache.
	var (
		store ports.AreaStore
		cache *valkey.Cache
	)
	switch cfg.Storage.Backend {
	case "valkey":
		vk, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer vk.Close()
		store = valkey.NewAreaStore(vk, cfg.Storage.Key)
		cache = valkey.NewCache(vk)
	case "file":
		store = file.NewAreaStore(cfg.Storage.Path)
	default:
		log.Fatalf("unknown storage backend %q", cfg.Storage.Backend)
	}

	// NATS carries render commands and events to connected map clients.
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats ws conn: %v", err)
	}
	defer natsConn.Close()

	// Optional history database
	var (
		db      *postgres.DB
		history *postgres.AreaHistoryRepo
	)
	if cfg.Database.Enabled {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			slog.Warn("history database unavailable", "error", err)
		} else {
			defer db.Close()
			history = postgres.NewAreaHistoryRepo(db)
			if err := history.EnsureSchema(ctx); err != nil {
				slog.Warn("history schema", "error", err)
			}
		}
	}

	// Core services
	areaSvc := usecases.NewAreaService(store)
	noticeSvc := usecases.NewNoticeService(usecases.DefaultNoticeTTL)
	sessionSvc := usecases.NewSessionService(areaSvc, noticeSvc)

	mapAdapter := mapsync.New(publisher)
	mapAdapter.SetAreas(areaSvc)

	areaSvc.SetRenderer(mapAdapter)
	areaSvc.SetPublisher(publisher)
	areaSvc.SetModeObserver(sessionSvc)
	sessionSvc.SetPublisher(publisher)
	noticeSvc.SetPublisher(publisher)

	geocoder := nominatim.New(
		cfg.Geocoder.BaseURL,
		cfg.Geocoder.UserAgent,
		time.Duration(cfg.Geocoder.Timeout)*time.Second,
	)
	locateSvc := usecases.NewLocateService(geocoder, mapAdapter, noticeSvc, sessionSvc)
	if cache != nil {
		locateSvc.SetCache(cache)
	}

	gestures := mapsync.NewGestureHandler(areaSvc, sessionSvc)
	gestures.SetView(mapAdapter)
	gestures.SetNotices(noticeSvc)

	// Hydrate the area list from the durable slot.
	areaSvc.Load(ctx)

	deps := &http.Dependencies{
		Areas:    areaSvc,
		Sessions: sessionSvc,
		Notices:  noticeSvc,
		Locate:   locateSvc,
		Map:      mapAdapter,
		Gestures: gestures,
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
		MapCfg:   cfg.Map,
	}
	if history != nil {
		deps.History = history
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Areascope API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Session-Id",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Backend)
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
