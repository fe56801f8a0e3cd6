package repository

import (
	"context"

	"anoa.com/eduachieve/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository interface {
	// InsertIfAbsent is the atomic check-then-award: a conditional insert
	// against the unique (user_id, badge_id) index. Returns whether the row
	// was written by this call.
	InsertIfAbsent(ctx context.Context, a *model.Achievement) (bool, error)
	Exists(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Achievement, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) InsertIfAbsent(ctx context.Context, a *model.Achievement) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *achievementRepository) Exists(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Achievement{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	return count > 0, err
}

func (r *achievementRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&achievements).Error
	return achievements, err
}

func (r *achievementRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Achievement{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
