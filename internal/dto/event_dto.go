package dto

import (
	"time"

	"anoa.com/eduachieve/internal/catalog"
)

// ActivityEventRequest carries one activity event plus the caller-supplied
// stats snapshot. The engine trusts these aggregates; it does not own the
// progress domain.
type ActivityEventRequest struct {
	Type    string                 `json:"type" binding:"required,oneof=lesson_complete course_complete quiz_scored code_submitted streak_updated"`
	Payload map[string]interface{} `json:"payload"`
	Stats   catalog.UserStats      `json:"stats"`
}

// AwardedBadge is the notification-facing view of a freshly earned badge.
type AwardedBadge struct {
	BadgeID  string           `json:"badge_id"`
	Name     string           `json:"name"`
	Category catalog.Category `json:"category"`
	Rarity   catalog.Rarity   `json:"rarity"`
	Points   int              `json:"points"`
	EarnedAt time.Time        `json:"earned_at"`
}

type GrantPointsRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	Amount      int    `json:"amount" binding:"required"`
	Source      string `json:"source" binding:"required,max=50"`
	Description string `json:"description" binding:"max=500"`
}
