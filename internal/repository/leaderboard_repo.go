package repository

import (
	"context"

	"anoa.com/eduachieve/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeaderboardRepository interface {
	// UpsertScore writes the cached score for one user in one partition.
	// updated_at moves only when the score actually changes, because it is
	// the tie-break key (earliest update wins ties).
	UpsertScore(ctx context.Context, entry *model.LeaderboardEntry) error
	ListPartition(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string) ([]model.LeaderboardEntry, error)
	// UpdateRanks persists a freshly computed rank assignment for a
	// partition in a single transaction.
	UpdateRanks(ctx context.Context, entries []model.LeaderboardEntry) error
	Top(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string, limit int) ([]model.LeaderboardEntry, error)
	Get(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string, userID uuid.UUID) (*model.LeaderboardEntry, error)
	DistinctScopeRefs(ctx context.Context, scope model.Scope) ([]string, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) UpsertScore(ctx context.Context, entry *model.LeaderboardEntry) error {
	// Conditional update first: touch updated_at only on a real score change.
	res := r.db.WithContext(ctx).Model(&model.LeaderboardEntry{}).
		Where("scope = ? AND scope_ref = ? AND period = ? AND period_key = ? AND user_id = ? AND score <> ?",
			entry.Scope, entry.ScopeRef, entry.Period, entry.PeriodKey, entry.UserID, entry.Score).
		Updates(map[string]interface{}{
			"score":      entry.Score,
			"updated_at": entry.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Either the row doesn't exist yet or the score is unchanged.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "scope"}, {Name: "scope_ref"}, {Name: "period"},
			{Name: "period_key"}, {Name: "user_id"},
		},
		DoNothing: true,
	}).Create(entry).Error
}

func (r *leaderboardRepository) ListPartition(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Where("scope = ? AND scope_ref = ? AND period = ? AND period_key = ?",
			scope, scopeRef, period, periodKey).
		Find(&entries).Error
	return entries, err
}

func (r *leaderboardRepository) UpdateRanks(ctx context.Context, entries []model.LeaderboardEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range entries {
			e := &entries[i]
			if err := tx.Model(&model.LeaderboardEntry{}).
				Where("scope = ? AND scope_ref = ? AND period = ? AND period_key = ? AND user_id = ?",
					e.Scope, e.ScopeRef, e.Period, e.PeriodKey, e.UserID).
				Update("rank", e.Rank).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *leaderboardRepository) Top(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string, limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := r.db.WithContext(ctx).Preload("User").Preload("User.Role").
		Where("scope = ? AND scope_ref = ? AND period = ? AND period_key = ? AND rank > 0",
			scope, scopeRef, period, periodKey).
		Order("rank ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *leaderboardRepository) Get(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string, userID uuid.UUID) (*model.LeaderboardEntry, error) {
	var entry model.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Where("scope = ? AND scope_ref = ? AND period = ? AND period_key = ? AND user_id = ?",
			scope, scopeRef, period, periodKey, userID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *leaderboardRepository) DistinctScopeRefs(ctx context.Context, scope model.Scope) ([]string, error) {
	var refs []string
	err := r.db.WithContext(ctx).Model(&model.LeaderboardEntry{}).
		Where("scope = ?", scope).
		Distinct("scope_ref").
		Pluck("scope_ref", &refs).Error
	return refs, err
}
