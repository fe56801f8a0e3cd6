package dto

import "time"

// LeaderboardRow is one ranked entry as served to display pages.
type LeaderboardRow struct {
	Rank      int       `json:"rank"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RankResponse answers "where am I" for one partition.
type RankResponse struct {
	Scope    string `json:"scope"`
	CourseID string `json:"course_id,omitempty"`
	Period   string `json:"period"`
	Rank     int    `json:"rank"`
	Score    int    `json:"score"`
}
