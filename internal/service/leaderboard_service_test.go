package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anoa.com/eduachieve/internal/model"
	"anoa.com/eduachieve/pkg/apperror"
	"github.com/google/uuid"
)

// fakeClock hands out strictly increasing timestamps so update order is
// deterministic in tie-break tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestLeaderboard(repo *memLeaderboardRepo, ledger PointsService) *leaderboardService {
	return &leaderboardService{
		repo:      repo,
		ledger:    ledger,
		now:       newFakeClock().Now,
		partLocks: make(map[string]*sync.Mutex),
	}
}

func TestOnScoreChange_TieBrokenByEarlierUpdate(t *testing.T) {
	repo := newMemLeaderboardRepo()
	svc := newTestLeaderboard(repo, nil)
	ctx := context.Background()

	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()

	// u2 reaches 120 before u1 does; u3 trails at 90.
	for _, change := range []struct {
		user  uuid.UUID
		score int
	}{
		{u2, 120},
		{u1, 120},
		{u3, 90},
	} {
		if err := svc.OnScoreChange(ctx, change.user, model.ScopeGlobal, "", model.PeriodAllTime, change.score); err != nil {
			t.Fatalf("OnScoreChange: %v", err)
		}
	}

	wantRanks := map[uuid.UUID]int{u2: 1, u1: 2, u3: 3}
	for user, want := range wantRanks {
		rank, _, err := svc.RankOf(ctx, user, model.ScopeGlobal, "", model.PeriodAllTime)
		if err != nil {
			t.Fatalf("RankOf: %v", err)
		}
		if rank != want {
			t.Errorf("rank of %s = %d, want %d", user, rank, want)
		}
	}
}

func TestOnScoreChange_RanksAreContiguousPermutation(t *testing.T) {
	repo := newMemLeaderboardRepo()
	svc := newTestLeaderboard(repo, nil)
	ctx := context.Background()

	const n = 20
	users := make([]uuid.UUID, n)
	for i := range users {
		users[i] = uuid.New()
		if err := svc.OnScoreChange(ctx, users[i], model.ScopeGlobal, "", model.PeriodAllTime, (i*37)%100); err != nil {
			t.Fatalf("OnScoreChange: %v", err)
		}
	}
	// Move a few users around to force re-sorting.
	for i := 0; i < n; i += 3 {
		if err := svc.OnScoreChange(ctx, users[i], model.ScopeGlobal, "", model.PeriodAllTime, 200+i); err != nil {
			t.Fatalf("OnScoreChange update: %v", err)
		}
	}

	periodKey := model.PeriodKeyAt(model.PeriodAllTime, time.Now())
	entries, err := repo.ListPartition(ctx, model.ScopeGlobal, "", model.PeriodAllTime, periodKey)
	if err != nil {
		t.Fatalf("ListPartition: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("partition has %d entries, want %d", len(entries), n)
	}

	seen := make(map[int]bool)
	scoreByRank := make(map[int]int)
	for _, e := range entries {
		if e.Rank < 1 || e.Rank > n {
			t.Errorf("rank %d outside 1..%d", e.Rank, n)
		}
		if seen[e.Rank] {
			t.Errorf("duplicate rank %d", e.Rank)
		}
		seen[e.Rank] = true
		scoreByRank[e.Rank] = e.Score
	}
	for rank := 1; rank < n; rank++ {
		if scoreByRank[rank] < scoreByRank[rank+1] {
			t.Errorf("rank %d score %d below rank %d score %d", rank, scoreByRank[rank], rank+1, scoreByRank[rank+1])
		}
	}
}

func TestOnScoreChange_PartitionsAreIndependent(t *testing.T) {
	repo := newMemLeaderboardRepo()
	svc := newTestLeaderboard(repo, nil)
	ctx := context.Background()
	userID := uuid.New()

	if err := svc.OnScoreChange(ctx, userID, model.ScopeGlobal, "", model.PeriodAllTime, 100); err != nil {
		t.Fatalf("all-time: %v", err)
	}
	if err := svc.OnScoreChange(ctx, userID, model.ScopeGlobal, "", model.PeriodWeekly, 30); err != nil {
		t.Fatalf("weekly: %v", err)
	}

	_, score, err := svc.RankOf(ctx, userID, model.ScopeGlobal, "", model.PeriodAllTime)
	if err != nil {
		t.Fatalf("RankOf all-time: %v", err)
	}
	if score != 100 {
		t.Errorf("all-time score = %d, want 100", score)
	}

	_, score, err = svc.RankOf(ctx, userID, model.ScopeGlobal, "", model.PeriodWeekly)
	if err != nil {
		t.Fatalf("RankOf weekly: %v", err)
	}
	if score != 30 {
		t.Errorf("weekly score = %d, want 30", score)
	}

	if _, _, err := svc.RankOf(ctx, userID, model.ScopeGlobal, "", model.PeriodMonthly); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("monthly RankOf error = %v, want ErrNotFound", err)
	}
}

func TestRankOf_UnknownUser(t *testing.T) {
	svc := newTestLeaderboard(newMemLeaderboardRepo(), nil)

	_, _, err := svc.RankOf(context.Background(), uuid.New(), model.ScopeGlobal, "", model.PeriodAllTime)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("RankOf error = %v, want ErrNotFound", err)
	}
}

func TestTop_OrderedAndLimited(t *testing.T) {
	repo := newMemLeaderboardRepo()
	svc := newTestLeaderboard(repo, nil)
	ctx := context.Background()

	scores := []int{50, 200, 120, 90, 10}
	for _, score := range scores {
		if err := svc.OnScoreChange(ctx, uuid.New(), model.ScopeGlobal, "", model.PeriodAllTime, score); err != nil {
			t.Fatalf("OnScoreChange: %v", err)
		}
	}

	rows, err := svc.Top(ctx, model.ScopeGlobal, "", model.PeriodAllTime, 3)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Top returned %d rows, want 3", len(rows))
	}
	wantScores := []int{200, 120, 90}
	for i, row := range rows {
		if row.Rank != i+1 {
			t.Errorf("row %d rank = %d, want %d", i, row.Rank, i+1)
		}
		if row.Score != wantScores[i] {
			t.Errorf("row %d score = %d, want %d", i, row.Score, wantScores[i])
		}
	}
}

func TestRebuild_MatchesIncrementalRanks(t *testing.T) {
	pointsRepo := newMemPointsRepo()
	ledger := &pointsService{repo: pointsRepo, now: time.Now}
	repo := newMemLeaderboardRepo()
	svc := newTestLeaderboard(repo, ledger)
	ctx := context.Background()

	users := make([]uuid.UUID, 5)
	for i := range users {
		users[i] = uuid.New()
		if _, err := ledger.Grant(ctx, users[i], (i+1)*17, "quiz_pass", ""); err != nil {
			t.Fatalf("Grant: %v", err)
		}
		if err := svc.RefreshUser(ctx, users[i], ""); err != nil {
			t.Fatalf("RefreshUser: %v", err)
		}
	}

	incremental := make(map[uuid.UUID]int)
	for _, u := range users {
		rank, _, err := svc.RankOf(ctx, u, model.ScopeGlobal, "", model.PeriodAllTime)
		if err != nil {
			t.Fatalf("RankOf before rebuild: %v", err)
		}
		incremental[u] = rank
	}

	// Corrupt the cached ranks, then rebuild from the ledger.
	periodKey := model.PeriodKeyAt(model.PeriodAllTime, time.Now())
	entries, _ := repo.ListPartition(ctx, model.ScopeGlobal, "", model.PeriodAllTime, periodKey)
	for i := range entries {
		entries[i].Rank = 0
	}
	if err := repo.UpdateRanks(ctx, entries); err != nil {
		t.Fatalf("corrupting ranks: %v", err)
	}

	if err := svc.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	for _, u := range users {
		rank, _, err := svc.RankOf(ctx, u, model.ScopeGlobal, "", model.PeriodAllTime)
		if err != nil {
			t.Fatalf("RankOf after rebuild: %v", err)
		}
		if rank != incremental[u] {
			t.Errorf("rebuilt rank of %s = %d, incremental was %d", u, rank, incremental[u])
		}
	}
}

func TestConcurrentPartitionRecomputations(t *testing.T) {
	repo := newMemLeaderboardRepo()
	svc := newTestLeaderboard(repo, nil)
	clockBase := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, period := range model.Periods {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(p model.Period, score int) {
				defer wg.Done()
				if err := svc.OnScoreChange(ctx, uuid.New(), model.ScopeGlobal, "", p, score); err != nil {
					t.Errorf("OnScoreChange(%s): %v", p, err)
				}
			}(period, i*10)
		}
	}
	wg.Wait()

	for _, period := range model.Periods {
		periodKey := model.PeriodKeyAt(period, clockBase)
		entries, err := repo.ListPartition(ctx, model.ScopeGlobal, "", period, periodKey)
		if err != nil {
			t.Fatalf("ListPartition(%s): %v", period, err)
		}
		seen := make(map[int]bool)
		for _, e := range entries {
			if e.Rank < 1 || e.Rank > len(entries) || seen[e.Rank] {
				t.Errorf("%s partition has invalid rank set", period)
				break
			}
			seen[e.Rank] = true
		}
	}
}
