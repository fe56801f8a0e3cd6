package service

import (
	"context"
	"testing"

	"anoa.com/eduachieve/internal/catalog"
	"github.com/google/uuid"
)

func TestSummary_FansOutAchievementsPointsAndRanks(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	userID := uuid.New()

	if _, err := f.engine.Evaluate(ctx, userID, catalog.EventLessonComplete, nil, &catalog.UserStats{LessonsCompleted: 1}); err != nil {
		t.Fatalf("Evaluate lesson: %v", err)
	}
	if _, err := f.engine.Evaluate(ctx, userID, catalog.EventStreakUpdated, nil, &catalog.UserStats{CurrentStreak: 7}); err != nil {
		t.Fatalf("Evaluate streak: %v", err)
	}

	report := NewReportService(catalog.New(), f.achRepo, f.points, f.leaderboard)
	summary, err := report.Summary(ctx, userID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if summary.TotalPoints != 20 {
		t.Errorf("TotalPoints = %d, want 20", summary.TotalPoints)
	}
	if len(summary.Achievements) != 2 {
		t.Fatalf("Achievements = %d, want 2", len(summary.Achievements))
	}
	for _, badge := range summary.Achievements {
		if badge.Name == "" || badge.Points == 0 {
			t.Errorf("badge %s not decorated from catalog: %+v", badge.BadgeID, badge)
		}
	}
	if len(summary.Ranks) == 0 {
		t.Fatal("summary has no ranks")
	}
	for _, rank := range summary.Ranks {
		if rank.Rank != 1 {
			t.Errorf("rank in %s = %d, want 1 (only user)", rank.Period, rank.Rank)
		}
	}
}

func TestSummary_EmptyUser(t *testing.T) {
	f := newEngineFixture()
	report := NewReportService(catalog.New(), f.achRepo, f.points, f.leaderboard)

	summary, err := report.Summary(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalPoints != 0 || len(summary.Achievements) != 0 || len(summary.Ranks) != 0 {
		t.Errorf("empty user summary not empty: %+v", summary)
	}
}
