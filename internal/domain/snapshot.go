package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SnapshotEntityKind string

const (
	SnapshotEntityAccount SnapshotEntityKind = "account"
	SnapshotEntityDeposit SnapshotEntityKind = "deposit"
)

// ProfitEntityRef identifies the account or deposit a profit accrual belongs
// to, so the accrual can be guarded on that entity's last accrual timestamp.
type ProfitEntityRef struct {
	Kind SnapshotEntityKind
	ID   string
}

// DailyBalanceSnapshot anchors the profit-window reconstruction. It is
// produced at most once per entity per calendar day and is immutable after
// creation; it is never the source of truth for the current balance.
type DailyBalanceSnapshot struct {
	ID           string
	EntityKind   SnapshotEntityKind
	EntityID     string
	SnapshotDate time.Time
	Balance      decimal.Decimal
	CreatedAt    time.Time
}
