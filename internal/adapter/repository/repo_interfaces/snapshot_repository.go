package repo_interfaces

import (
	"context"
	"time"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

type SnapshotRepository interface {
	// CreateIfAbsent inserts the snapshot unless one already exists for the
	// same entity and date; created reports whether a row was written.
	CreateIfAbsent(ctx context.Context, snap domain.DailyBalanceSnapshot) (bool, error)
	// LatestAtOrBefore returns the carry-forward anchor for a profit
	// window, or commons.ErrRecordNotFound when no snapshot is old enough.
	LatestAtOrBefore(ctx context.Context, kind domain.SnapshotEntityKind, entityID string, date time.Time) (domain.DailyBalanceSnapshot, error)
	// ListInWindow returns snapshots with after < snapshot_date <= until,
	// ordered by date ascending.
	ListInWindow(ctx context.Context, kind domain.SnapshotEntityKind, entityID string, after, until time.Time) ([]domain.DailyBalanceSnapshot, error)
}
