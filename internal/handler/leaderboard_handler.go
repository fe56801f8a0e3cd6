package handler

import (
	"net/http"

	"anoa.com/eduachieve/internal/model"
	"anoa.com/eduachieve/internal/service"
	"anoa.com/eduachieve/pkg/apperror"
	"anoa.com/eduachieve/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	leaderboard service.LeaderboardService
}

func NewLeaderboardHandler(leaderboard service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

func parsePartitionQuery(c *gin.Context) (model.Scope, string, model.Period, error) {
	scope := model.Scope(c.DefaultQuery("scope", string(model.ScopeGlobal)))
	period := model.Period(c.DefaultQuery("period", string(model.PeriodAllTime)))
	courseID := c.Query("course_id")

	if !model.ValidScope(scope) || !model.ValidPeriod(period) {
		return "", "", "", apperror.ErrBadRequest
	}
	if scope == model.ScopeCourse && courseID == "" {
		return "", "", "", apperror.ErrBadRequest
	}
	if scope == model.ScopeGlobal {
		courseID = ""
	}
	return scope, courseID, period, nil
}

// GetTop serves the ranked list for one partition, for display pages.
func (h *LeaderboardHandler) GetTop(c *gin.Context) {
	scope, courseID, period, err := parsePartitionQuery(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	limit := parseIntQuery(c, "limit", 10)
	if limit > 100 {
		limit = 100
	}

	rows, err := h.leaderboard.Top(c.Request.Context(), scope, courseID, period, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetMyRank answers "where am I" for the authenticated user.
func (h *LeaderboardHandler) GetMyRank(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	scope, courseID, period, err := parsePartitionQuery(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	rank, score, err := h.leaderboard.RankOf(c.Request.Context(), userID, scope, courseID, period)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scope":  scope,
		"period": period,
		"rank":   rank,
		"score":  score,
	})
}

// Rebuild re-derives every partition from the ledger. Admin-only recovery
// path after detected drift.
func (h *LeaderboardHandler) Rebuild(c *gin.Context) {
	if err := h.leaderboard.Rebuild(c.Request.Context()); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Leaderboard berhasil dibangun ulang"})
}
