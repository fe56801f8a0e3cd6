package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"anoa.com/eduachieve/internal/dto"
	"anoa.com/eduachieve/internal/model"
	"anoa.com/eduachieve/internal/repository"
	"anoa.com/eduachieve/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeaderboardService maintains the ranked views derived from the ledger.
// Ranks are a cache: briefly stale between a score change and the next
// recomputation pass, and always rebuildable from the ledger.
type LeaderboardService interface {
	OnScoreChange(ctx context.Context, userID uuid.UUID, scope model.Scope, scopeRef string, period model.Period, newScore int) error
	// RefreshUser pushes the user's current ledger totals into every
	// partition they belong to (global always, course when courseRef set).
	RefreshUser(ctx context.Context, userID uuid.UUID, courseRef string) error
	RankOf(ctx context.Context, userID uuid.UUID, scope model.Scope, scopeRef string, period model.Period) (rank int, score int, err error)
	Top(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, limit int) ([]dto.LeaderboardRow, error)
	// Rebuild re-derives every partition from the points ledger. Canonical
	// recovery path after any detected drift.
	Rebuild(ctx context.Context) error
}

type leaderboardService struct {
	repo   repository.LeaderboardRepository
	ledger PointsService
	now    func() time.Time

	mu        sync.Mutex
	partLocks map[string]*sync.Mutex
}

func NewLeaderboardService(repo repository.LeaderboardRepository, ledger PointsService) LeaderboardService {
	return &leaderboardService{
		repo:      repo,
		ledger:    ledger,
		now:       time.Now,
		partLocks: make(map[string]*sync.Mutex),
	}
}

// partitionLock returns the mutex serializing recomputation of one
// partition. Different partitions recompute in parallel.
func (s *leaderboardService) partitionLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.partLocks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.partLocks[key] = l
	return l
}

func (s *leaderboardService) OnScoreChange(ctx context.Context, userID uuid.UUID, scope model.Scope, scopeRef string, period model.Period, newScore int) error {
	periodKey := model.PeriodKeyAt(period, s.now())
	lock := s.partitionLock(model.PartitionKey(scope, scopeRef, period, periodKey))
	lock.Lock()
	defer lock.Unlock()

	entry := &model.LeaderboardEntry{
		Scope:     scope,
		ScopeRef:  scopeRef,
		Period:    period,
		PeriodKey: periodKey,
		UserID:    userID,
		Score:     newScore,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.repo.UpsertScore(ctx, entry); err != nil {
		return err
	}

	// The score itself is durable now; a failed rank pass only leaves the
	// cached ranks stale until the next score change or rebuild.
	if err := s.recomputeLocked(ctx, scope, scopeRef, period, periodKey); err != nil {
		log.Printf("Rank recomputation failed for partition %s: %v",
			model.PartitionKey(scope, scopeRef, period, periodKey), err)
	}
	return nil
}

// recomputeLocked re-sorts the whole partition and reassigns ranks 1..N.
// Deliberately not incremental: partitions are thousands of rows at most,
// and a full pass keeps the permutation invariant trivially true. Caller
// must hold the partition lock.
func (s *leaderboardService) recomputeLocked(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, periodKey string) error {
	entries, err := s.repo.ListPartition(ctx, scope, scopeRef, period, periodKey)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	sortPartition(entries)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return s.repo.UpdateRanks(ctx, entries)
}

// sortPartition orders by descending score; ties go to the entry whose score
// changed earliest, then user ID for full determinism.
func sortPartition(entries []model.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].UpdatedAt.Equal(entries[j].UpdatedAt) {
			return entries[i].UpdatedAt.Before(entries[j].UpdatedAt)
		}
		return entries[i].UserID.String() < entries[j].UserID.String()
	})
}

func (s *leaderboardService) RefreshUser(ctx context.Context, userID uuid.UUID, courseRef string) error {
	for _, period := range model.Periods {
		score, err := s.ledger.TotalInPeriod(ctx, userID, period)
		if err != nil {
			return err
		}

		if err := s.OnScoreChange(ctx, userID, model.ScopeGlobal, "", period, score); err != nil {
			log.Printf("Failed to update global %s leaderboard for user %s: %v", period, userID, err)
		}
		if courseRef != "" {
			if err := s.OnScoreChange(ctx, userID, model.ScopeCourse, courseRef, period, score); err != nil {
				log.Printf("Failed to update course %s %s leaderboard for user %s: %v", courseRef, period, userID, err)
			}
		}
	}
	return nil
}

func (s *leaderboardService) RankOf(ctx context.Context, userID uuid.UUID, scope model.Scope, scopeRef string, period model.Period) (int, int, error) {
	periodKey := model.PeriodKeyAt(period, s.now())
	entry, err := s.repo.Get(ctx, scope, scopeRef, period, periodKey, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, apperror.ErrNotFound
		}
		return 0, 0, err
	}
	return entry.Rank, entry.Score, nil
}

func (s *leaderboardService) Top(ctx context.Context, scope model.Scope, scopeRef string, period model.Period, limit int) ([]dto.LeaderboardRow, error) {
	periodKey := model.PeriodKeyAt(period, s.now())
	entries, err := s.repo.Top(ctx, scope, scopeRef, period, periodKey, limit)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.LeaderboardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, dto.LeaderboardRow{
			Rank:      e.Rank,
			UserID:    e.UserID.String(),
			Username:  e.User.Username,
			AvatarURL: e.User.AvatarURL,
			Score:     e.Score,
			UpdatedAt: e.UpdatedAt,
		})
	}
	return rows, nil
}

func (s *leaderboardService) Rebuild(ctx context.Context) error {
	userIDs, err := s.ledger.UserIDs(ctx)
	if err != nil {
		return err
	}

	// Global partitions: every user with ledger history.
	for _, period := range model.Periods {
		periodKey := model.PeriodKeyAt(period, s.now())
		lock := s.partitionLock(model.PartitionKey(model.ScopeGlobal, "", period, periodKey))
		lock.Lock()

		var failed error
		for _, userID := range userIDs {
			score, err := s.ledger.TotalInPeriod(ctx, userID, period)
			if err != nil {
				failed = err
				break
			}
			entry := &model.LeaderboardEntry{
				Scope:     model.ScopeGlobal,
				Period:    period,
				PeriodKey: periodKey,
				UserID:    userID,
				Score:     score,
				UpdatedAt: s.now().UTC(),
			}
			if err := s.repo.UpsertScore(ctx, entry); err != nil {
				failed = err
				break
			}
		}
		if failed == nil {
			failed = s.recomputeLocked(ctx, model.ScopeGlobal, "", period, periodKey)
		}
		lock.Unlock()
		if failed != nil {
			return failed
		}
	}

	// Course partitions: membership is whoever already has an entry there;
	// the ledger does not record course rosters.
	refs, err := s.repo.DistinctScopeRefs(ctx, model.ScopeCourse)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		for _, period := range model.Periods {
			periodKey := model.PeriodKeyAt(period, s.now())
			lock := s.partitionLock(model.PartitionKey(model.ScopeCourse, ref, period, periodKey))
			lock.Lock()

			entries, err := s.repo.ListPartition(ctx, model.ScopeCourse, ref, period, periodKey)
			if err == nil {
				for i := range entries {
					score, serr := s.ledger.TotalInPeriod(ctx, entries[i].UserID, period)
					if serr != nil {
						err = serr
						break
					}
					entries[i].Score = score
					entries[i].UpdatedAt = s.now().UTC()
					if uerr := s.repo.UpsertScore(ctx, &entries[i]); uerr != nil {
						err = uerr
						break
					}
				}
			}
			if err == nil {
				err = s.recomputeLocked(ctx, model.ScopeCourse, ref, period, periodKey)
			}
			lock.Unlock()
			if err != nil {
				return err
			}
		}
	}
	return nil
}
