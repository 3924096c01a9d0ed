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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-books/meridian-books/internal/accounts"
	"github.com/meridian-books/meridian-books/internal/app"
	"github.com/meridian-books/meridian-books/internal/auth"
	"github.com/meridian-books/meridian-books/internal/journal"
	"github.com/meridian-books/meridian-books/internal/org"
	"github.com/meridian-books/meridian-books/internal/partners"
	"github.com/meridian-books/meridian-books/internal/periods"
	"github.com/meridian-books/meridian-books/internal/reports"
	"github.com/meridian-books/meridian-books/internal/shared"
	"github.com/meridian-books/meridian-books/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(dbpool)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, logger)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	orgRepo := org.NewRepository(dbpool)
	orgService := org.NewService(orgRepo)
	orgHandler := org.NewHandler(logger, orgService)

	accountRepo := accounts.NewRepository(dbpool)
	accountService := accounts.NewService(accountRepo, orgService, auditLogger)
	accountHandler := accounts.NewHandler(logger, accountService)

	partnerRepo := partners.NewRepository(dbpool)
	partnerService := partners.NewService(partnerRepo, orgService, auditLogger)
	partnerHandler := partners.NewHandler(logger, partnerService)

	periodRepo := periods.NewRepository(dbpool)
	periodService := periods.NewService(periodRepo, orgService, auditLogger)
	periodHandler := periods.NewHandler(logger, periodService)

	journalRepo := journal.NewRepository(dbpool)
	journalService := journal.NewService(journalRepo, orgService, auditLogger, jobClient)
	journalHandler := journal.NewHandler(logger, journalService)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportRepo := reports.NewRepository(dbpool)
	reportService := reports.NewService(reportRepo, orgService, periodRepo, reportCache)
	reportHandler := reports.NewHandler(logger, reportService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		AuthHandler:    authHandler,
		OrgHandler:     orgHandler,
		AccountHandler: accountHandler,
		PartnerHandler: partnerHandler,
		PeriodHandler:  periodHandler,
		JournalHandler: journalHandler,
		ReportHandler:  reportHandler,
		JobHandler:     jobHandler,
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
