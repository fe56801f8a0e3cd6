package service

import (
	"context"
	"errors"

	"anoa.com/eduachieve/internal/catalog"
	"anoa.com/eduachieve/internal/dto"
	"anoa.com/eduachieve/internal/model"
	"anoa.com/eduachieve/internal/repository"
	"anoa.com/eduachieve/pkg/apperror"
	"github.com/google/uuid"
)

// ReportService is the read-only facade used by progress pages and reports.
// A fan-out over the ledger, achievements, and leaderboards; no state of
// its own.
type ReportService interface {
	Summary(ctx context.Context, userID uuid.UUID) (*dto.SummaryResponse, error)
}

type reportService struct {
	cat          *catalog.Catalog
	achievements repository.AchievementRepository
	points       PointsService
	leaderboard  LeaderboardService
}

func NewReportService(cat *catalog.Catalog, achievements repository.AchievementRepository, points PointsService, leaderboard LeaderboardService) ReportService {
	return &reportService{
		cat:          cat,
		achievements: achievements,
		points:       points,
		leaderboard:  leaderboard,
	}
}

func (s *reportService) Summary(ctx context.Context, userID uuid.UUID) (*dto.SummaryResponse, error) {
	earned, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	badges := make([]dto.AwardedBadge, 0, len(earned))
	for _, a := range earned {
		def, ok := s.cat.Find(a.BadgeID)
		if !ok {
			// Badge removed from the catalog; the achievement row stays
			// but there is nothing to decorate it with.
			continue
		}
		badges = append(badges, dto.AwardedBadge{
			BadgeID:  def.BadgeID,
			Name:     def.Name,
			Category: def.Category,
			Rarity:   def.Rarity,
			Points:   def.Rarity.Points(),
			EarnedAt: a.EarnedAt,
		})
	}

	total, err := s.points.TotalFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranks := make([]dto.RankResponse, 0, len(model.Periods))
	for _, period := range model.Periods {
		rank, score, err := s.leaderboard.RankOf(ctx, userID, model.ScopeGlobal, "", period)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				continue // no entry yet for this period
			}
			return nil, err
		}
		ranks = append(ranks, dto.RankResponse{
			Scope:  string(model.ScopeGlobal),
			Period: string(period),
			Rank:   rank,
			Score:  score,
		})
	}

	return &dto.SummaryResponse{
		UserID:       userID.String(),
		TotalPoints:  total,
		Achievements: badges,
		Ranks:        ranks,
	}, nil
}
