package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/postgres"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/config"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/logger"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/scheduler"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := postgres.RunMigrations(migrateCtx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)
	depositRepo := postgres.NewDepositRepository(db)
	txnRepo := postgres.NewTransactionRepository(db)
	snapRepo := postgres.NewSnapshotRepository(db)

	clock := services.SystemClock{}
	codeGen := services.NewCodeGenerator(clock)
	ledger := services.NewLedgerService(txnRepo, accountRepo, depositRepo, codeGen, clock)
	profit := services.NewProfitService(txnRepo, accountRepo, depositRepo, snapRepo, codeGen, clock)

	sched := scheduler.New(accountRepo, depositRepo, txnRepo, profit, ledger, clock, cfg.SchedulerInterval, cfg.SchedulerBatchSize)
	sched.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		logger.Info("metrics listener started", logger.Fields{
			"addr": cfg.MetricsAddr,
		})
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", err, nil)
		}
	}()

	<-ctx.Done()

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics listener shutdown failed", err, nil)
	}

	logger.Info("server stopped", nil)
}
