package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/arnav/internal/adapters/nats"
	"github.com/samirrijal/arnav/internal/app"
	"github.com/samirrijal/arnav/internal/pkg/config"
	"github.com/samirrijal/arnav/internal/pkg/logging"
	"github.com/samirrijal/arnav/internal/workflows"
)

func main() {
	cfg, err := config.Load("arnav-tourworker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, "arnav-tourworker")

	ctx := context.Background()
	svc, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("services: %v", err)
	}
	defer svc.Close()

	acts := &workflows.TourActivities{
		Navigation: svc.Navigation,
		Queues:     svc.Queues,
	}
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, targets will only be logged", "error", err)
		} else {
			defer pub.Close()
			acts.Publisher = pub
		}
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.TourWorkflow)
	w.RegisterActivity(acts)

	slog.Info("tour worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
