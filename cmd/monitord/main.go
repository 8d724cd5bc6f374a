package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/microlend/backend/internal/config"
	"github.com/microlend/backend/internal/db"
	"github.com/microlend/backend/internal/jobs"
	"github.com/microlend/backend/internal/locks"
	"github.com/microlend/backend/internal/notify"
	"github.com/microlend/backend/internal/observability"
	postgresrepo "github.com/microlend/backend/internal/repository/postgres"
	"github.com/microlend/backend/internal/server"
	"github.com/microlend/backend/internal/ws"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	var locker jobs.Locker
	if cfg.RedisAddr != "" {
		redisClient, err := db.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to connect redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		locker = locks.NewJobLock(redisClient, "microlend:jobs")
	}

	metrics := observability.NewJobMetrics()
	notifier := notify.NewLogNotifier(logger)

	loanRepo := postgresrepo.NewLoanRepository(pool)
	borrowerRepo := postgresrepo.NewBorrowerRepository(pool)
	branchRepo := postgresrepo.NewBranchRepository(pool)
	outboxRepo := postgresrepo.NewOutboxRepository(pool)

	monitor := jobs.NewMonitor(loanRepo, borrowerRepo, branchRepo, notifier, logger)

	scheduler, err := jobs.NewScheduler([]jobs.Job{
		{Name: "inactive_loans", RunAt: cfg.InactiveRunAt, Run: monitor.CheckInactiveLoans},
		{Name: "branch_reports", RunAt: cfg.ReportRunAt, Run: monitor.SendDailyBranchReports},
		{Name: "upcoming_maturities", RunAt: cfg.MaturityRunAt, Run: monitor.CheckUpcomingMaturities},
		{Name: "late_payments", RunAt: cfg.LatePaymentRunAt, Run: monitor.CheckLatePayments},
		{Name: "nearing_completion", RunAt: cfg.NearingRunAt, Run: monitor.CheckLoansNearingCompletion},
	}, locker, metrics, logger, cfg.JobTimeout, cfg.JobLockTTL)
	if err != nil {
		logger.Error("invalid job schedule", "err", err)
		os.Exit(1)
	}

	hub := ws.NewHub()
	worker := jobs.NewDispatchWorker(outboxRepo, notifier, hub, metrics, logger, cfg.DispatchMaxAttempts)

	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:    pool,
		WSHandler: ws.NewHandler(hub),
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("ops server starting", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go scheduler.Run(sigCtx)

	interval := cfg.DispatchPollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("dispatch worker started", "interval", interval.String(), "batch_size", cfg.DispatchBatchSize)
	for {
		select {
		case <-sigCtx.Done():
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = httpServer.Shutdown(shutdownCtx)
			shutdownCancel()
			logger.Info("monitord stopped")
			return
		case <-ticker.C:
			runCtx, runCancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := worker.RunOnce(runCtx, cfg.DispatchBatchSize)
			runCancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("dispatch run failed", "err", err)
			}
		}
	}
}
