package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/app"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/budgets"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/itemgroups"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/consol"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/cache"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/db"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/shared"
	"github.com/Paulodev-web/OrcaRede-sub001/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	materialsService := materials.NewService(materials.NewRepository(pool), auditLogger)
	itemGroupsService := itemgroups.NewService(itemgroups.NewRepository(pool))
	budgetsService := budgets.NewService(budgets.NewRepository(pool), materialsService, auditLogger, logger)
	consolService := consol.NewService(budgetsService, itemGroupsService, materialsService, redisClient, cfg.ConsolCacheTTL, logger)

	verifyJob := jobs.NewImportVerifyJob(materialsService, logger)
	warmupJob := jobs.NewConsolWarmupJob(consolService, logger)

	warmupTask, err := jobs.NewConsolWarmupTask("")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskImportVerify, Handler: verifyJob.Handle},
			{Type: jobs.TaskConsolWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
