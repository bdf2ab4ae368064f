package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

var _ repo_interfaces.SnapshotRepository = (*SnapshotRepository)(nil)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) CreateIfAbsent(ctx context.Context, snap domain.DailyBalanceSnapshot) (bool, error) {
	const query = `
INSERT INTO daily_balance_snapshots (entity_kind, entity_id, snapshot_date, balance)
VALUES ($1, $2, $3, $4)
ON CONFLICT (entity_kind, entity_id, snapshot_date) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, snap.EntityKind, snap.EntityID, snap.SnapshotDate, snap.Balance)
	if err != nil {
		return false, fmt.Errorf("create balance snapshot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("snapshot rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *SnapshotRepository) LatestAtOrBefore(ctx context.Context, kind domain.SnapshotEntityKind, entityID string, date time.Time) (domain.DailyBalanceSnapshot, error) {
	const query = `
SELECT id, entity_kind, entity_id, snapshot_date, balance, created_at
FROM daily_balance_snapshots
WHERE entity_kind = $1 AND entity_id = $2 AND snapshot_date <= $3
ORDER BY snapshot_date DESC
LIMIT 1`

	var snap domain.DailyBalanceSnapshot
	if err := r.db.QueryRowContext(ctx, query, kind, entityID, date).Scan(
		&snap.ID,
		&snap.EntityKind,
		&snap.EntityID,
		&snap.SnapshotDate,
		&snap.Balance,
		&snap.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DailyBalanceSnapshot{}, commons.ErrRecordNotFound
		}
		return domain.DailyBalanceSnapshot{}, fmt.Errorf("load anchor snapshot: %w", err)
	}
	return snap, nil
}

func (r *SnapshotRepository) ListInWindow(ctx context.Context, kind domain.SnapshotEntityKind, entityID string, after, until time.Time) ([]domain.DailyBalanceSnapshot, error) {
	const query = `
SELECT id, entity_kind, entity_id, snapshot_date, balance, created_at
FROM daily_balance_snapshots
WHERE entity_kind = $1 AND entity_id = $2 AND snapshot_date > $3 AND snapshot_date <= $4
ORDER BY snapshot_date ASC`

	rows, err := r.db.QueryContext(ctx, query, kind, entityID, after, until)
	if err != nil {
		return nil, fmt.Errorf("list window snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DailyBalanceSnapshot, 0)
	for rows.Next() {
		var snap domain.DailyBalanceSnapshot
		if err := rows.Scan(
			&snap.ID,
			&snap.EntityKind,
			&snap.EntityID,
			&snap.SnapshotDate,
			&snap.Balance,
			&snap.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}
