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
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/arnav/internal/adapters/http"
	natsadapter "github.com/samirrijal/arnav/internal/adapters/nats"
	temporaladapter "github.com/samirrijal/arnav/internal/adapters/temporal"
	"github.com/samirrijal/arnav/internal/app"
	"github.com/samirrijal/arnav/internal/pkg/config"
	"github.com/samirrijal/arnav/internal/pkg/logging"
	"github.com/samirrijal/arnav/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("arnav-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, "arnav-api")

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

	// Catalog, cache and core services
	svc, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("services: %v", err)
	}
	defer svc.Close()
	go svc.ReportPoolStats(ctx, 15*time.Second)

	deps := &http.Dependencies{
		Catalog:            svc.Catalog,
		Queues:             svc.Queues,
		Navigation:         svc.Navigation,
		DefaultDestination: cfg.Navigation.DefaultDestination,
		AutoAdvance:        cfg.Navigation.AutoAdvance,
		RequestTimeout:     time.Duration(cfg.Server.RequestTimeout) * time.Second,
		RateLimit:          cfg.Server.RateLimit,
	}
	// Assign interfaces only when set so nil stays "not configured".
	if svc.DB != nil {
		deps.DB = svc.DB
	}
	if svc.Cache != nil {
		deps.Cache = svc.Cache
	}

	// NATS
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			deps.Publisher = pub
			deps.NATS = pub.Conn()
		}
	}

	// Temporal
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable", "error", err)
		} else {
			runner := temporaladapter.NewTourRunner(tc, cfg.Temporal.TaskQueue, time.Duration(cfg.Temporal.LegTimeout)*time.Minute)
			defer runner.Close()
			deps.Tours = runner
			deps.Temporal = runner
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024, // sensor readings and tours are small
		AppName:      "AR Navigation API",
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "catalog", cfg.Catalog.Backend)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
