package dto

// SummaryResponse is the reporting facade payload for dashboards: a fan-out
// of achievements, ledger total, and ranks. No state of its own.
type SummaryResponse struct {
	UserID       string         `json:"user_id"`
	TotalPoints  int            `json:"total_points"`
	Achievements []AwardedBadge `json:"achievements"`
	Ranks        []RankResponse `json:"ranks"`
}
