package repository

import (
	"context"
	"time"

	"anoa.com/eduachieve/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PointsRepository interface {
	Append(ctx context.Context, tx *model.PointsTransaction) error
	// AppendIfAbsent inserts a badge-credit transaction unless one already
	// exists for the same (user, reference) key. Returns whether a row was
	// actually written.
	AppendIfAbsent(ctx context.Context, tx *model.PointsTransaction) (bool, error)
	SumByUser(ctx context.Context, userID uuid.UUID) (int, error)
	SumByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.PointsTransaction, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) Append(ctx context.Context, tx *model.PointsTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *pointsRepository) AppendIfAbsent(ctx context.Context, tx *model.PointsTransaction) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "reference_id"}, {Name: "reference_table"},
		},
		DoNothing: true,
	}).Create(tx)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *pointsRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.PointsTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

func (r *pointsRepository) SumByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.PointsTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Scan(&total).Error
	return total, err
}

func (r *pointsRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.PointsTransaction, error) {
	var txs []model.PointsTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

func (r *pointsRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.PointsTransaction{}).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}
