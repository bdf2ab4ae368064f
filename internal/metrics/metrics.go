package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SchedulerTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_scheduler_ticks_total",
		Help: "Number of scheduler ticks executed.",
	})

	SnapshotsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_snapshots_created_total",
		Help: "Number of daily balance snapshots written.",
	})

	ProfitAccruals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_profit_accruals_total",
		Help: "Number of profit transactions created by the accrual engine.",
	})

	ScheduledApplies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_scheduled_applies_total",
		Help: "Number of scheduled transactions released by the scheduler.",
	})

	TaskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_task_failures_total",
		Help: "Per-entity failures inside scheduler tasks, by task name.",
	}, []string{"task"})
)
