package main

import (
	"context"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/wanderlust/internal/adapters/postgres"
	"github.com/samirrijal/wanderlust/internal/pkg/config"
	"github.com/samirrijal/wanderlust/internal/pkg/logging"
	"github.com/samirrijal/wanderlust/internal/workflows"
)

func main() {
	cfg, err := config.Load("wanderlust-recorder")
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Server.LogLevel, cfg.Server.LogFormat)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		slog.Error("database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		slog.Error("temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RecordExchangeWorkflow)
	w.RegisterActivity(&workflows.ExchangeActivities{
		Messages: postgres.NewMessageRepo(db),
		Trips:    postgres.NewTripRepo(db),
	})

	slog.Info("recorder worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		slog.Error("worker", "error", err)
		os.Exit(1)
	}
}
