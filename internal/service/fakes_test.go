package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"anoa.com/eduachieve/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the conditional-write semantics of
// the real GORM repositories so the services' idempotency paths are
// exercised for real.

type memPointsRepo struct {
	mu   sync.Mutex
	seq  uint
	rows []model.PointsTransaction

	// failAppendIfAbsent makes the next N AppendIfAbsent calls fail, to
	// simulate a crash between the achievement insert and its credit.
	failAppendIfAbsent int
}

func newMemPointsRepo() *memPointsRepo {
	return &memPointsRepo{}
}

func (r *memPointsRepo) Append(ctx context.Context, tx *model.PointsTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	tx.ID = r.seq
	r.rows = append(r.rows, *tx)
	return nil
}

func (r *memPointsRepo) AppendIfAbsent(ctx context.Context, tx *model.PointsTransaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAppendIfAbsent > 0 {
		r.failAppendIfAbsent--
		return false, errors.New("store unavailable")
	}
	for _, existing := range r.rows {
		if existing.UserID == tx.UserID &&
			existing.ReferenceID != nil && tx.ReferenceID != nil &&
			*existing.ReferenceID == *tx.ReferenceID &&
			existing.ReferenceTable != nil && tx.ReferenceTable != nil &&
			*existing.ReferenceTable == *tx.ReferenceTable {
			return false, nil
		}
	}
	r.seq++
	tx.ID = r.seq
	r.rows = append(r.rows, *tx)
	return true, nil
}

func (r *memPointsRepo) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, tx := range r.rows {
		if tx.UserID == userID {
			total += tx.Amount
		}
	}
	return total, nil
}

func (r *memPointsRepo) SumByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, tx := range r.rows {
		if tx.UserID == userID && !tx.CreatedAt.Before(since) {
			total += tx.Amount
		}
	}
	return total, nil
}

func (r *memPointsRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.PointsTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PointsTransaction
	for _, tx := range r.rows {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPointsRepo) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, tx := range r.rows {
		if !seen[tx.UserID] {
			seen[tx.UserID] = true
			ids = append(ids, tx.UserID)
		}
	}
	return ids, nil
}

type memAchievementRepo struct {
	mu   sync.Mutex
	seq  uint
	rows map[string]model.Achievement // userID:badgeID
}

func newMemAchievementRepo() *memAchievementRepo {
	return &memAchievementRepo{rows: make(map[string]model.Achievement)}
}

func achKey(userID uuid.UUID, badgeID string) string {
	return userID.String() + ":" + badgeID
}

func (r *memAchievementRepo) InsertIfAbsent(ctx context.Context, a *model.Achievement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := achKey(a.UserID, a.BadgeID)
	if _, exists := r.rows[key]; exists {
		return false, nil
	}
	r.seq++
	a.ID = r.seq
	r.rows[key] = *a
	return true, nil
}

func (r *memAchievementRepo) Exists(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.rows[achKey(userID, badgeID)]
	return exists, nil
}

func (r *memAchievementRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Achievement
	for _, a := range r.rows {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EarnedAt.Before(out[j].EarnedAt) })
	return out, nil
}

func (r *memAchievementRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	list, _ := r.ListByUser(ctx, userID)
	return int64(len(list)), nil
}

type memLeaderboardRepo struct {
	mu         sync.Mutex
	partitions map[string]map[uuid.UUID]*model.LeaderboardEntry
}

func newMemLeaderboardRepo() *memLeaderboardRepo {
	return &memLeaderboardRepo{partitions: make(map[string]map[uuid.UUID]*model.LeaderboardEntry)}
}

func (r *memLeaderboardRepo) UpsertScore(ctx context.Context, entry *model.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := entry.PartitionKey()
	part, ok := r.partitions[key]
	if !ok {
		part = make(map[uuid.UUID]*model.LeaderboardEntry)
		r.partitions[key] = part
	}
	if existing, ok := part[entry.UserID]; ok {
		// Same semantics as the SQL repo: updated_at only moves on a real
		// score change, because it is the tie-break key.
		if existing.Score != entry.Score {
			existing.Score = entry.Score
			existing.UpdatedAt = entry.UpdatedAt
		}
		return nil
	}
	cp := *entry
	part[entry.UserID] = &cp
	return nil
}

func (r *memLeaderboardRepo) ListPartition(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string) ([]model.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	part := r.partitions[model.PartitionKey(scope, scopeRef, period, periodKey)]
	var out []model.LeaderboardEntry
	for _, e := range part {
		out = append(out, *e)
	}
	return out, nil
}

func (r *memLeaderboardRepo) UpdateRanks(ctx context.Context, entries []model.LeaderboardEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		part := r.partitions[e.PartitionKey()]
		if part == nil {
			continue
		}
		if existing, ok := part[e.UserID]; ok {
			existing.Rank = e.Rank
		}
	}
	return nil
}

func (r *memLeaderboardRepo) Top(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string, limit int) ([]model.LeaderboardEntry, error) {
	entries, _ := r.ListPartition(ctx, scope, scopeRef, period, periodKey)
	var ranked []model.LeaderboardEntry
	for _, e := range entries {
		if e.Rank > 0 {
			ranked = append(ranked, e)
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (r *memLeaderboardRepo) Get(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string, userID uuid.UUID) (*model.LeaderboardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	part := r.partitions[model.PartitionKey(scope, scopeRef, period, periodKey)]
	if part != nil {
		if e, ok := part[userID]; ok {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLeaderboardRepo) DistinctScopeRefs(ctx context.Context, scope model.Scope) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var refs []string
	for _, part := range r.partitions {
		for _, e := range part {
			if e.Scope == scope && !seen[e.ScopeRef] {
				seen[e.ScopeRef] = true
				refs = append(refs, e.ScopeRef)
			}
		}
	}
	return refs, nil
}
