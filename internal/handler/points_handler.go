package handler

import (
	"net/http"
	"strconv"

	"anoa.com/eduachieve/internal/dto"
	"anoa.com/eduachieve/internal/service"
	"anoa.com/eduachieve/pkg/response"
	"anoa.com/eduachieve/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PointsHandler struct {
	points      service.PointsService
	leaderboard service.LeaderboardService
}

func NewPointsHandler(points service.PointsService, leaderboard service.LeaderboardService) *PointsHandler {
	return &PointsHandler{points: points, leaderboard: leaderboard}
}

// GrantPoints is the admin-only direct grant. Negative amounts are the
// compensation mechanism; zero is rejected before any write.
func (h *PointsHandler) GrantPoints(c *gin.Context) {
	var req dto.GrantPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID pengguna tidak valid"})
		return
	}

	txID, err := h.points.Grant(c.Request.Context(), userID, req.Amount, req.Source, req.Description)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.leaderboard.RefreshUser(c.Request.Context(), userID, ""); err != nil {
		// Grant is durable; only the cached ranks lag behind.
		response.ResponseError(c, err)
		return
	}

	total, err := h.points.TotalFor(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction_id": txID,
		"total_points":   total,
	})
}

// History lists the authenticated user's ledger rows, newest first.
func (h *PointsHandler) History(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}

	txs, err := h.points.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": txs})
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
