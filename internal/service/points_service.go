package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"anoa.com/eduachieve/internal/model"
	"anoa.com/eduachieve/internal/repository"
	"anoa.com/eduachieve/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const badgeCreditTable = "achievements"

// PointsService is the append-only ledger. The ledger is the source of
// truth for every score; everything downstream (leaderboards, summaries)
// is derived from it and can be rebuilt from it.
type PointsService interface {
	Grant(ctx context.Context, userID uuid.UUID, amount int, source, description string) (uint, error)
	// CreditBadge appends the rarity-valued transaction for a badge award.
	// Keyed by (userID, badgeID): re-running it after a partial failure is
	// a no-op, so a badge can never be paid twice.
	CreditBadge(ctx context.Context, userID uuid.UUID, badgeID string, amount int, source string) (bool, error)
	TotalFor(ctx context.Context, userID uuid.UUID) (int, error)
	TotalInPeriod(ctx context.Context, userID uuid.UUID, period model.Period) (int, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.PointsTransaction, error)
	UserIDs(ctx context.Context) ([]uuid.UUID, error)
}

type pointsService struct {
	repo     repository.PointsRepository
	rdb      *redis.Client
	cacheTTL time.Duration
	now      func() time.Time
}

func NewPointsService(repo repository.PointsRepository, rdb *redis.Client, cacheTTL time.Duration) PointsService {
	return &pointsService{
		repo:     repo,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *pointsService) Grant(ctx context.Context, userID uuid.UUID, amount int, source, description string) (uint, error) {
	if amount == 0 {
		return 0, apperror.ErrInvalidAmount
	}

	tx := &model.PointsTransaction{
		UserID:      userID,
		Amount:      amount,
		Source:      source,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Append(ctx, tx); err != nil {
		return 0, err
	}

	s.invalidateTotal(ctx, userID)
	return tx.ID, nil
}

func (s *pointsService) CreditBadge(ctx context.Context, userID uuid.UUID, badgeID string, amount int, source string) (bool, error) {
	if amount == 0 {
		return false, apperror.ErrInvalidAmount
	}

	refTable := badgeCreditTable
	refID := badgeID
	tx := &model.PointsTransaction{
		UserID:         userID,
		Amount:         amount,
		Source:         source,
		Description:    fmt.Sprintf("Badge %s", badgeID),
		ReferenceID:    &refID,
		ReferenceTable: &refTable,
		CreatedAt:      s.now().UTC(),
	}

	credited, err := s.repo.AppendIfAbsent(ctx, tx)
	if err != nil {
		return false, err
	}
	if credited {
		s.invalidateTotal(ctx, userID)
	}
	return credited, nil
}

func (s *pointsService) TotalFor(ctx context.Context, userID uuid.UUID) (int, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, totalCacheKey(userID)).Result(); err == nil {
			if total, convErr := strconv.Atoi(cached); convErr == nil {
				return total, nil
			}
		}
	}

	total, err := s.repo.SumByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, totalCacheKey(userID), strconv.Itoa(total), s.cacheTTL).Err(); err != nil {
			log.Printf("Failed to cache point total for user %s: %v", userID, err)
		}
	}
	return total, nil
}

func (s *pointsService) TotalInPeriod(ctx context.Context, userID uuid.UUID, period model.Period) (int, error) {
	if period == model.PeriodAllTime {
		return s.TotalFor(ctx, userID)
	}
	start := model.PeriodStartAt(period, s.now())
	return s.repo.SumByUserSince(ctx, userID, start)
}

func (s *pointsService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.PointsTransaction, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *pointsService) UserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ListUserIDs(ctx)
}

func (s *pointsService) invalidateTotal(ctx context.Context, userID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, totalCacheKey(userID)).Err(); err != nil {
		log.Printf("Failed to invalidate point total cache for user %s: %v", userID, err)
	}
}

func totalCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("points_total:%s", userID.String())
}
