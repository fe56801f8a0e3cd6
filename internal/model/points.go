package model

import (
	"time"

	"github.com/google/uuid"
)

// PointsTransaction is the append-only ledger row. Rows are never updated or
// deleted; corrections are compensating transactions with a negative amount.
// A user's score is always SUM(amount) over their rows.
type PointsTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index:idx_user_date,priority:1;uniqueIndex:idx_badge_credit,priority:1;not null" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	Amount      int       `gorm:"not null" json:"amount"`
	Source      string    `gorm:"size:50;not null" json:"source"` // 'badge_epic', 'quiz_pass', 'admin_grant'
	Description string    `gorm:"type:text" json:"description"`

	// Set only for badge credits: reference_table='achievements',
	// reference_id=badge ID. The unique index makes a badge credit
	// insert-if-absent, so a retried award can never double-credit.
	ReferenceID    *string `gorm:"size:64;uniqueIndex:idx_badge_credit,priority:2" json:"reference_id,omitempty"`
	ReferenceTable *string `gorm:"size:50;uniqueIndex:idx_badge_credit,priority:3" json:"reference_table,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_user_date,priority:2;index:idx_date" json:"created_at"`
}

func (PointsTransaction) TableName() string {
	return "points_transactions"
}
