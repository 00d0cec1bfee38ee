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
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/wanderlust/internal/adapters/agentclient"
	"github.com/samirrijal/wanderlust/internal/adapters/auth"
	"github.com/samirrijal/wanderlust/internal/adapters/http"
	natsadapter "github.com/samirrijal/wanderlust/internal/adapters/nats"
	"github.com/samirrijal/wanderlust/internal/adapters/postgres"
	"github.com/samirrijal/wanderlust/internal/adapters/valkey"
	"github.com/samirrijal/wanderlust/internal/core/ports"
	"github.com/samirrijal/wanderlust/internal/core/usecases"
	"github.com/samirrijal/wanderlust/internal/pkg/config"
	"github.com/samirrijal/wanderlust/internal/pkg/logging"
	"github.com/samirrijal/wanderlust/internal/pkg/metrics"
	"github.com/samirrijal/wanderlust/internal/pkg/telemetry"
	"github.com/samirrijal/wanderlust/internal/workflows"
)

func main() {
	cfg, err := config.Load("wanderlust-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateAuth(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Response generator
	var generator ports.ResponseGenerator
	switch cfg.Generator.Mode {
	case config.GeneratorRemote:
		generator = agentclient.New(cfg.Generator.RemoteURL, cfg.Generator.RemoteToken, cfg.Generator.Timeout)
		slog.Info("using remote generator", "url", cfg.Generator.RemoteURL)
	default:
		generator = usecases.NewRuleGenerator()
	}

	// Repos
	tripRepo := postgres.NewTripRepo(db)
	messageRepo := postgres.NewMessageRepo(db)

	// Exchanges go through the Temporal saga when enabled, otherwise one transaction.
	var recorder ports.ExchangeRecorder = postgres.NewExchangeRepo(db)
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    slog.Default(),
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		defer tc.Close()
		recorder = workflows.NewRecorder(tc, cfg.Temporal.TaskQueue)
	}

	// Use cases
	tripSvc := usecases.NewTripService(tripRepo, messageRepo, cache)
	agentSvc := usecases.NewAgentService(generator, tripSvc, recorder, publisher)
	sessionSvc := usecases.NewSessionService(generator, publisher, cache, usecases.SessionConfig{
		ReplyDelay:  cfg.Session.ReplyDelay(),
		Timeout:     cfg.Session.GenerationTimeout,
		SnapshotTTL: cfg.Session.SnapshotTTL,
		MaxSessions: cfg.Session.MaxSessions,
	})

	// Drop cached trips changed by any instance
	if nc != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			hostname, _ := os.Hostname()
			durable := "trip-cache-" + hostname
			err := sub.SubscribeTripUpdates(ctx, durable, func(ctx context.Context, u *natsadapter.TripUpdate) error {
				tripSvc.Forget(ctx, u.TripID)
				return nil
			})
			if err != nil {
				slog.Warn("trip update subscription failed", "error", err)
			}
		}
	}

	deps := &http.Dependencies{
		Sessions: sessionSvc,
		Agent:    agentSvc,
		Trips:    tripSvc,
		Identity: auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Wanderlust API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "generator", cfg.Generator.Mode)
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

	slog.Info("server stopped", "open_sessions", sessionSvc.Count())
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
