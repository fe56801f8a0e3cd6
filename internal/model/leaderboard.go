package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeCourse Scope = "course"
)

type Period string

const (
	PeriodAllTime Period = "all_time"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

var Periods = []Period{PeriodAllTime, PeriodWeekly, PeriodMonthly}

// LeaderboardEntry is a derived cache row. One partition is the set of rows
// sharing (scope, scope_ref, period, period_key); within it ranks are a
// contiguous 1..N permutation after each recomputation. The whole table can
// be rebuilt from points_transactions at any time.
type LeaderboardEntry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Scope     Scope     `gorm:"size:20;uniqueIndex:idx_partition_user,priority:1;not null" json:"scope"`
	ScopeRef  string    `gorm:"size:64;uniqueIndex:idx_partition_user,priority:2" json:"scope_ref,omitempty"` // course ID, empty for global
	Period    Period    `gorm:"size:20;uniqueIndex:idx_partition_user,priority:3;not null" json:"period"`
	PeriodKey string    `gorm:"size:20;uniqueIndex:idx_partition_user,priority:4;not null" json:"period_key"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_partition_user,priority:5;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Score     int       `gorm:"not null" json:"score"`
	Rank      int       `gorm:"not null;default:0" json:"rank"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard_entries"
}

// PartitionKey identifies one ranked partition, used for per-partition locks.
func (e *LeaderboardEntry) PartitionKey() string {
	return PartitionKey(e.Scope, e.ScopeRef, e.Period, e.PeriodKey)
}

func PartitionKey(scope Scope, scopeRef string, period Period, periodKey string) string {
	return fmt.Sprintf("%s:%s:%s:%s", scope, scopeRef, period, periodKey)
}

// PeriodKeyAt maps a wall-clock instant to the period key its points belong
// to. Convention: UTC, ISO-8601 weeks (Monday start). All writers must agree
// on this, so it lives here rather than in any service.
func PeriodKeyAt(period Period, t time.Time) string {
	t = t.UTC()
	switch period {
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case PeriodMonthly:
		return t.Format("2006-01")
	default:
		return "all"
	}
}

// PeriodStartAt returns the UTC start of the period containing t. The
// all-time period starts at the zero time so ledger sums cover everything.
func PeriodStartAt(period Period, t time.Time) time.Time {
	t = t.UTC()
	switch period {
	case PeriodWeekly:
		day := t.Truncate(24 * time.Hour)
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday
		}
		return day.AddDate(0, 0, -(weekday - 1))
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

// ValidScope and ValidPeriod guard query parameters before they reach a repository.
func ValidScope(s Scope) bool {
	return s == ScopeGlobal || s == ScopeCourse
}

func ValidPeriod(p Period) bool {
	return p == PeriodAllTime || p == PeriodWeekly || p == PeriodMonthly
}
