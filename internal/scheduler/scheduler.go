package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/logger"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/metrics"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/service_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/usecase/services"
)

// Scheduler drives the periodic ledger housekeeping: daily balance snapshots,
// due profit accruals, and the release of scheduled transactions. A failure
// on one entity is logged and counted, never allowed to starve the rest of
// the batch.
type Scheduler struct {
	accountRepo repo_interfaces.AccountRepository
	depositRepo repo_interfaces.DepositRepository
	txnRepo     repo_interfaces.TransactionRepository
	profit      service_interfaces.ProfitService
	ledger      service_interfaces.LedgerService
	clock       services.Clock

	interval  time.Duration
	batchSize int

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func New(
	accountRepo repo_interfaces.AccountRepository,
	depositRepo repo_interfaces.DepositRepository,
	txnRepo repo_interfaces.TransactionRepository,
	profit service_interfaces.ProfitService,
	ledger service_interfaces.LedgerService,
	clock services.Clock,
	interval time.Duration,
	batchSize int,
) *Scheduler {
	return &Scheduler{
		accountRepo: accountRepo,
		depositRepo: depositRepo,
		txnRepo:     txnRepo,
		profit:      profit,
		ledger:      ledger,
		clock:       clock,
		interval:    interval,
		batchSize:   batchSize,
		done:        make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logger.Info("scheduler started", logger.Fields{
			"interval":  s.interval.String(),
			"batchSize": s.batchSize,
		})

		for {
			select {
			case <-ctx.Done():
				logger.Info("scheduler stopped", nil)
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		<-s.done
	})
}

// RunOnce executes a single tick. Snapshots go first so a same-tick accrual
// sees today's balance in its window.
func (s *Scheduler) RunOnce(ctx context.Context) {
	metrics.SchedulerTicks.Inc()

	s.snapshotBalances(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.accrueAccounts(gctx)
		return nil
	})
	g.Go(func() error {
		s.accrueDeposits(gctx)
		return nil
	})
	_ = g.Wait()

	s.releaseScheduled(ctx)
}

func (s *Scheduler) snapshotBalances(ctx context.Context) {
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		logger.Error("scheduler list accounts failed", err, nil)
		metrics.TaskFailures.WithLabelValues("snapshot_accounts").Inc()
		return
	}
	for _, account := range accounts {
		created, err := s.profit.SnapshotAccountToday(ctx, account.ID)
		if err != nil {
			logger.Error("scheduler account snapshot failed", err, logger.Fields{
				"accountId": account.ID,
			})
			metrics.TaskFailures.WithLabelValues("snapshot_accounts").Inc()
			continue
		}
		if created {
			metrics.SnapshotsCreated.Inc()
		}
	}

	deposits, err := s.depositRepo.List(ctx)
	if err != nil {
		logger.Error("scheduler list deposits failed", err, nil)
		metrics.TaskFailures.WithLabelValues("snapshot_deposits").Inc()
		return
	}
	for _, deposit := range deposits {
		created, err := s.profit.SnapshotDepositToday(ctx, deposit.ID)
		if err != nil {
			logger.Error("scheduler deposit snapshot failed", err, logger.Fields{
				"depositId": deposit.ID,
			})
			metrics.TaskFailures.WithLabelValues("snapshot_deposits").Inc()
			continue
		}
		if created {
			metrics.SnapshotsCreated.Inc()
		}
	}
}

func (s *Scheduler) accrueAccounts(ctx context.Context) {
	due, err := s.accountRepo.ListProfitDue(ctx, s.clock.Now(), s.batchSize)
	if err != nil {
		logger.Error("scheduler list profit-due accounts failed", err, nil)
		metrics.TaskFailures.WithLabelValues("accrue_accounts").Inc()
		return
	}
	for _, account := range due {
		txnID, err := s.profit.AccrueAccountIfDue(ctx, account.ID)
		if err != nil {
			logger.Error("scheduler account accrual failed", err, logger.Fields{
				"accountId": account.ID,
			})
			metrics.TaskFailures.WithLabelValues("accrue_accounts").Inc()
			continue
		}
		if txnID != "" {
			metrics.ProfitAccruals.Inc()
		}
	}
}

func (s *Scheduler) accrueDeposits(ctx context.Context) {
	due, err := s.depositRepo.ListProfitDue(ctx, s.clock.Now(), s.batchSize)
	if err != nil {
		logger.Error("scheduler list profit-due deposits failed", err, nil)
		metrics.TaskFailures.WithLabelValues("accrue_deposits").Inc()
		return
	}
	for _, deposit := range due {
		txnID, err := s.profit.AccrueDepositIfDue(ctx, deposit.ID)
		if err != nil {
			logger.Error("scheduler deposit accrual failed", err, logger.Fields{
				"depositId": deposit.ID,
			})
			metrics.TaskFailures.WithLabelValues("accrue_deposits").Inc()
			continue
		}
		if txnID != "" {
			metrics.ProfitAccruals.Inc()
		}
	}
}

func (s *Scheduler) releaseScheduled(ctx context.Context) {
	due, err := s.txnRepo.ListScheduledDue(ctx, s.clock.Now(), s.batchSize)
	if err != nil {
		logger.Error("scheduler list scheduled transactions failed", err, nil)
		metrics.TaskFailures.WithLabelValues("release_scheduled").Inc()
		return
	}
	for _, txn := range due {
		if err := s.ledger.Apply(ctx, txn.ID); err != nil {
			logger.Error("scheduler scheduled apply failed", err, logger.Fields{
				"transactionId":   txn.ID,
				"transactionCode": txn.TransactionCode,
			})
			metrics.TaskFailures.WithLabelValues("release_scheduled").Inc()
			continue
		}
		metrics.ScheduledApplies.Inc()
	}
}
