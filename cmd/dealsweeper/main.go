package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/diadiem/internal/adapters/nats"
	"github.com/samirrijal/diadiem/internal/adapters/postgres"
	"github.com/samirrijal/diadiem/internal/adapters/sqlite"
	"github.com/samirrijal/diadiem/internal/core/ports"
	"github.com/samirrijal/diadiem/internal/core/usecases"
	"github.com/samirrijal/diadiem/internal/pkg/config"
	"github.com/samirrijal/diadiem/internal/pkg/logging"
	"github.com/samirrijal/diadiem/internal/pkg/telemetry"
	"github.com/samirrijal/diadiem/internal/workflows"
)

// dealsweeper runs the Temporal worker that owns the deal lifecycle cron.
// "dealsweeper once" applies due transitions a single time without Temporal.
func main() {
	cfg, err := config.Load("diadiem-dealsweeper")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

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

	deals, closeDB, err := openDeals(ctx, cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer closeDB()

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, deal changes will not be announced", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}
	svc := usecases.NewDealService(deals, events)

	if len(os.Args) > 1 && os.Args[1] == "once" {
		res, err := svc.Sweep(ctx)
		if err != nil {
			log.Fatalf("sweep: %v", err)
		}
		slog.Info("sweep done", "applied", res.Applied, "businesses", res.Businesses)
		return
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.DealLifecycleWorkflow)
	w.RegisterActivity(&workflows.DealActivities{Deals: svc})

	// Starting an already running cron workflow returns the existing run.
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:           workflows.WorkflowID,
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cfg.Temporal.Cron,
	}, workflows.DealLifecycleWorkflow)
	if err != nil {
		log.Fatalf("start deal lifecycle schedule: %v", err)
	}
	slog.Info("deal lifecycle scheduled", "workflow_id", run.GetID(), "cron", cfg.Temporal.Cron)

	slog.Info("deal sweeper worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func openDeals(ctx context.Context, cfg *config.Config) (ports.DealRepository, func(), error) {
	if cfg.Database.Driver == "sqlite" {
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewDealRepo(db), func() { db.Close() }, nil
	}
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewDealRepo(db), db.Close, nil
}
