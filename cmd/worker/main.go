package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/staffdesk/internal/attachment"
	"github.com/nikhilbhutani/staffdesk/internal/config"
	"github.com/nikhilbhutani/staffdesk/internal/database"
	"github.com/nikhilbhutani/staffdesk/internal/queue"
	"github.com/nikhilbhutani/staffdesk/internal/queue/workers"
	"github.com/nikhilbhutani/staffdesk/internal/storage"
	"github.com/nikhilbhutani/staffdesk/internal/webhook"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	store := storage.NewSupabaseStorage(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.Bucket)
	files := attachment.NewService(store, nil, 0)
	attachmentWorker := workers.NewAttachmentWorker(files)
	webhookWorker := workers.NewWebhookWorker(webhook.NewDeliverer(db))

	registry.Register(queue.TypeAttachmentDelete, attachmentWorker.ProcessTask)
	registry.Register(queue.TypeWebhookDeliver, webhookWorker.ProcessTask)

	slog.Info("starting worker", "concurrency", cfg.Worker.Concurrency, "tasks", registry.Types())
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
