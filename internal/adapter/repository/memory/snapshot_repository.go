package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SepehrModirsanei/Rahap-sub000/internal/adapter/repository/repo_interfaces"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/commons"
	"github.com/SepehrModirsanei/Rahap-sub000/internal/domain"
)

var _ repo_interfaces.SnapshotRepository = (*SnapshotRepository)(nil)

type SnapshotRepository struct {
	store *Store
}

func NewSnapshotRepository(store *Store) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

func (r *SnapshotRepository) CreateIfAbsent(_ context.Context, snap domain.DailyBalanceSnapshot) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := snapshotKey(snap.EntityKind, snap.EntityID, snap.SnapshotDate)
	if _, ok := r.store.snapshots[key]; ok {
		return false, nil
	}

	if snap.ID == "" {
		snap.ID = newID()
	}
	snap.SnapshotDate = dateOnly(snap.SnapshotDate)
	snap.CreatedAt = time.Now().UTC()
	r.store.snapshots[key] = snap
	return true, nil
}

func (r *SnapshotRepository) LatestAtOrBefore(_ context.Context, kind domain.SnapshotEntityKind, entityID string, date time.Time) (domain.DailyBalanceSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cutoff := dateOnly(date)
	var latest domain.DailyBalanceSnapshot
	found := false
	for _, snap := range r.store.snapshots {
		if snap.EntityKind != kind || snap.EntityID != entityID {
			continue
		}
		if snap.SnapshotDate.After(cutoff) {
			continue
		}
		if !found || snap.SnapshotDate.After(latest.SnapshotDate) {
			latest = snap
			found = true
		}
	}
	if !found {
		return domain.DailyBalanceSnapshot{}, commons.ErrRecordNotFound
	}
	return latest, nil
}

func (r *SnapshotRepository) ListInWindow(_ context.Context, kind domain.SnapshotEntityKind, entityID string, after, until time.Time) ([]domain.DailyBalanceSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	start := dateOnly(after)
	end := dateOnly(until)
	out := make([]domain.DailyBalanceSnapshot, 0)
	for _, snap := range r.store.snapshots {
		if snap.EntityKind != kind || snap.EntityID != entityID {
			continue
		}
		if snap.SnapshotDate.After(start) && !snap.SnapshotDate.After(end) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SnapshotDate.Before(out[j].SnapshotDate)
	})
	return out, nil
}
