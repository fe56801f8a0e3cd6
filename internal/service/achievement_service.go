package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"anoa.com/eduachieve/internal/catalog"
	"anoa.com/eduachieve/internal/dto"
	"anoa.com/eduachieve/internal/model"
	"anoa.com/eduachieve/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AchievementService consumes activity events, awards badges exactly once,
// and credits the ledger. It is the only writer of Achievement rows.
type AchievementService interface {
	Evaluate(ctx context.Context, userID uuid.UUID, eventType string, payload map[string]interface{}, stats *catalog.UserStats) ([]dto.AwardedBadge, error)
}

type achievementService struct {
	cat          *catalog.Catalog
	achievements repository.AchievementRepository
	points       PointsService
	leaderboard  LeaderboardService
	rdb          *redis.Client

	// awardLocks serializes award attempts per (userID, badgeID). The
	// unique index on achievements is the real guard; the lock just keeps
	// two handlers on the same process from both paying the insert race.
	awardLocks sync.Map
}

func NewAchievementService(cat *catalog.Catalog, achievements repository.AchievementRepository, points PointsService, leaderboard LeaderboardService, rdb *redis.Client) AchievementService {
	return &achievementService{
		cat:          cat,
		achievements: achievements,
		points:       points,
		leaderboard:  leaderboard,
		rdb:          rdb,
	}
}

func (s *achievementService) Evaluate(ctx context.Context, userID uuid.UUID, eventType string, payload map[string]interface{}, stats *catalog.UserStats) ([]dto.AwardedBadge, error) {
	if stats == nil {
		stats = &catalog.UserStats{}
	}

	var awarded []dto.AwardedBadge
	creditedAny := false

	for _, def := range s.cat.TriggeredBy(eventType) {
		if !def.Condition(stats) {
			continue
		}

		newlyAwarded, credited, err := s.award(ctx, userID, def)
		if err != nil {
			// A badge that failed to persist grants nothing; the caller
			// may retry the whole event safely.
			return awarded, err
		}
		creditedAny = creditedAny || credited
		if newlyAwarded != nil {
			awarded = append(awarded, *newlyAwarded)
		}
	}

	if creditedAny {
		// Score changed; let the leaderboard catch up. Non-fatal: the
		// ledger rows are durable and a rebuild can always recover ranks.
		courseRef := courseRefFrom(payload)
		if err := s.leaderboard.RefreshUser(ctx, userID, courseRef); err != nil {
			log.Printf("Leaderboard refresh failed for user %s: %v", userID, err)
		}
	}

	if len(awarded) > 0 {
		s.publishAwards(ctx, userID, awarded)
	}
	return awarded, nil
}

// award performs the atomic check-then-award for one badge, then credits the
// ledger. Both steps are keyed by (userID, badgeID), so a retry after any
// partial failure either completes the missing half or no-ops.
func (s *achievementService) award(ctx context.Context, userID uuid.UUID, def catalog.BadgeDefinition) (*dto.AwardedBadge, bool, error) {
	key := userID.String() + ":" + def.BadgeID
	muIface, _ := s.awardLocks.LoadOrStore(key, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	earnedAt := time.Now().UTC()
	inserted, err := s.achievements.InsertIfAbsent(ctx, &model.Achievement{
		UserID:   userID,
		BadgeID:  def.BadgeID,
		EarnedAt: earnedAt,
	})
	if err != nil {
		return nil, false, err
	}

	// Even when the achievement already existed this call must run: it
	// repairs a credit lost to a crash between the two writes.
	source := "badge_" + string(def.Rarity)
	credited, err := s.points.CreditBadge(ctx, userID, def.BadgeID, def.Rarity.Points(), source)
	if err != nil {
		return nil, false, err
	}

	if !inserted {
		// Duplicate award: benign no-op, not an error.
		return nil, credited, nil
	}
	return &dto.AwardedBadge{
		BadgeID:  def.BadgeID,
		Name:     def.Name,
		Category: def.Category,
		Rarity:   def.Rarity,
		Points:   def.Rarity.Points(),
		EarnedAt: earnedAt,
	}, credited, nil
}

func (s *achievementService) publishAwards(ctx context.Context, userID uuid.UUID, awarded []dto.AwardedBadge) {
	if s.rdb == nil {
		return
	}

	channel := fmt.Sprintf("user_achievements:%s", userID.String())
	for _, badge := range awarded {
		payload, err := json.Marshal(badge)
		if err != nil {
			continue
		}
		if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
			log.Printf("Failed to publish achievement %s for user %s: %v", badge.BadgeID, userID, err)
		}
	}
}

func courseRefFrom(payload map[string]interface{}) string {
	if payload == nil {
		return ""
	}
	if ref, ok := payload["course_id"].(string); ok {
		return ref
	}
	return ""
}
