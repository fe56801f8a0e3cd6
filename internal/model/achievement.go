package model

import (
	"time"

	"github.com/google/uuid"
)

// Achievement records a badge a user has earned. The unique (user_id,
// badge_id) index is what makes the award exactly-once: concurrent award
// attempts race on an insert-if-absent against this index.
type Achievement struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_badge,priority:1;not null" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`
	BadgeID  string    `gorm:"size:64;uniqueIndex:idx_user_badge,priority:2;not null" json:"badge_id"`
	EarnedAt time.Time `gorm:"index;not null" json:"earned_at"`
}
