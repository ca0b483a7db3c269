// Command navigator hosts navigation sessions fed by device readings on NATS
// and publishes each computed state back to the device.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/arnav/internal/adapters/nats"
	"github.com/samirrijal/arnav/internal/app"
	"github.com/samirrijal/arnav/internal/core/usecases"
	"github.com/samirrijal/arnav/internal/pkg/config"
	"github.com/samirrijal/arnav/internal/pkg/logging"
	"github.com/samirrijal/arnav/internal/pkg/telemetry"
)

const (
	idleTimeout   = 10 * time.Minute
	pruneInterval = time.Minute
)

func main() {
	cfg, err := config.Load("arnav-navigator")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, "arnav-navigator")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	svc, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("services: %v", err)
	}
	defer svc.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()
	sub := natsadapter.NewSubscriberConn(pub.Conn())
	defer sub.Close()

	hub := usecases.NewSessionHub(svc.Navigation, pub, cfg.Navigation.AutoAdvance, cfg.Navigation.DefaultDestination)

	if err := sub.SubscribeLocations(ctx, hub.HandleLocation); err != nil {
		log.Fatalf("subscribe locations: %v", err)
	}
	if err := sub.SubscribeOrientations(ctx, hub.HandleOrientation); err != nil {
		log.Fatalf("subscribe orientations: %v", err)
	}
	if err := sub.SubscribeTargets(ctx, hub.Retarget); err != nil {
		log.Fatalf("subscribe targets: %v", err)
	}

	slog.Info("navigator started", "nats", cfg.NATS.URL, "default_destination", cfg.Navigation.DefaultDestination, "auto_advance", cfg.Navigation.AutoAdvance)

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if n := hub.Prune(idleTimeout); n > 0 {
				slog.Info("pruned idle sessions", "closed", n, "open", hub.Len())
			}
		case sig := <-quit:
			slog.Info("received signal, shutting down navigator", "signal", sig.String())
			return
		}
	}
}
