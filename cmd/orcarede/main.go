package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/app"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/attachments"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/auth"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/budgets"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/itemgroups"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/posttypes"
	catalogshared "github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/shared"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/utilities"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/consol"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/importer"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/observability"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/cache"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/db"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/storage"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/rbac"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/shared"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/users"
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

	if err := db.Migrate(cfg.PGDSN, cfg.MigrationsDir); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionSecret, cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	var store *storage.Store
	if !cfg.StorageDisabled {
		store, err = storage.New(ctx, cfg.StorageBucket, cfg.StorageProject)
		if err != nil {
			logger.Warn("object storage unavailable", slog.Any("error", err))
			store = nil
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					logger.Warn("storage close", slog.Any("error", err))
				}
			}()
		}
	}

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)

	rbacService := rbac.NewService(pool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	materialsRepo := materials.NewRepository(pool)
	materialsService := materials.NewService(materialsRepo, auditLogger)

	postTypesService := posttypes.NewService(posttypes.NewRepository(pool))
	utilitiesService := utilities.NewService(utilities.NewRepository(pool))
	itemGroupsService := itemgroups.NewService(itemgroups.NewRepository(pool))

	budgetsRepo := budgets.NewRepository(pool)
	budgetsService := budgets.NewService(budgetsRepo, materialsService, auditLogger, logger)

	consolService := consol.NewService(budgetsService, itemGroupsService, materialsService, redisClient, cfg.ConsolCacheTTL, logger)

	pipeline := importer.NewPipeline(materialsService, cfg.ImportBatchSize, logger, metrics)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	warmCatalogs(ctx, logger, materialsService, postTypesService, utilitiesService)

	var archive importer.WorkbookArchive
	var objectStore attachments.ObjectStore
	if store != nil {
		archive = store
		objectStore = store
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        auth.NewHandler(logger, usersService, sessionManager),
		UsersHandler:       users.NewHandler(logger, usersService),
		RBACHandler:        rbac.NewHandler(logger, rbacService, rbacMiddleware),
		MaterialsHandler:   materials.NewHandler(logger, materialsService),
		PostTypesHandler:   posttypes.NewHandler(logger, postTypesService),
		UtilitiesHandler:   utilities.NewHandler(logger, utilitiesService),
		ItemGroupsHandler:  itemgroups.NewHandler(logger, itemGroupsService),
		BudgetsHandler:     budgets.NewHandler(logger, budgetsService),
		ConsolHandler:      consol.NewHandler(logger, consolService),
		ImportHandler:      importer.NewHandler(logger, pipeline, archive, jobsClient),
		AttachmentsHandler: attachments.NewHandler(logger, attachments.NewRepository(pool), objectStore),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// warmCatalogs prefetches the reference catalogs concurrently. One
// failure fails the whole group; startup continues either way since the
// warmup only primes connections and caches.
func warmCatalogs(ctx context.Context, logger *slog.Logger, materialsSvc *materials.Service, postTypesSvc *posttypes.Service, utilitiesSvc *utilities.Service) {
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(warmCtx)
	g.Go(func() error {
		_, err := materialsSvc.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		_, _, err := postTypesSvc.List(gctx, catalogshared.ListFilters{Page: 1, Limit: 1})
		return err
	})
	g.Go(func() error {
		_, _, err := utilitiesSvc.List(gctx, catalogshared.ListFilters{Page: 1, Limit: 1})
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Warn("catalog warmup failed", slog.Any("error", err))
		return
	}
	logger.Info("catalog warmup done")
}
